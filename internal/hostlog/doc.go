// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package hostlog turns the game server's console log into connection
// events.
//
// # Key Types
//
//   - Parser: Matches log lines against configurable patterns
//   - Event: A parsed join, leave, rejection or restart
//   - Handler: Receives events
//   - Tailer: Follows the log file as the server writes it
//
// # Patterns
//
// Each pattern is a Go regular expression. Named groups carry the fields:
//
//	uuid    player identity (required for join, leave and reject)
//	name    display name
//	ip      source address
//	reason  rejection reason
//
// # Usage
//
//	parser, err := hostlog.NewParser(hostlog.DefaultPatterns())
//	tailer := hostlog.NewTailer(logPath, parser, handler)
//	if err := tailer.Replay(); err != nil { ... }
//	err = tailer.Run(ctx)
package hostlog
