// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the wlctl command line.
//
// Parse turns os.Args into a Command and Args. Each command has a Handle
// function that runs against an Env built by main: the loaded config, the
// activated plugin and the writers to print to.
//
// # Commands
//
//	wlctl [tui]                       Interactive whitelist manager
//	wlctl console                     Line-oriented manager with history
//	wlctl attempts [list|clear]       Recent rejected connection attempts
//	wlctl attempts remove <uuid>      Forget one attempt
//	wlctl attempts approve <uuid>     Whitelist a pending player
//	wlctl status                      Whitelist and attempt log summary
//	wlctl add <name|uuid>             Whitelist a player
//	wlctl remove <uuid|name>          Remove a player
//	wlctl toggle                      Enable or disable enforcement
//	wlctl serve                       Watch the server and expose /metrics
//	wlctl config [show|path|init|get] Configuration
//	wlctl help [topic]                Help topics
//	wlctl version                     Version information
//
// Every command that prints data accepts --json. JSON output is
// highlighted when stdout is a terminal.
//
// # Exit Codes
//
//	0  success
//	1  the action failed
//	2  bad usage
//	3  bad configuration
//	4  the whitelist is unavailable
//	7  the named player or attempt does not exist
package cli
