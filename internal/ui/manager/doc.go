// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package manager is the interactive whitelist manager.
//
// It draws a workflow session with Bubble Tea: the list view shows the
// enforcement badge, whitelisted players with online markers and recent
// rejected attempts; the add view takes a player name or UUID. Every
// operator action is dispatched to the session off the UI goroutine and
// the returned outcome replaces what is on screen.
//
// # Key Bindings (list view)
//
//	t        toggle enforcement
//	a        add a player
//	d        remove the selected player / dismiss the selected attempt
//	enter    approve the selected attempt
//	tab      switch between players and attempts
//	r        refresh
//	q        close
package manager
