// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package workflow implements an operator session for managing the
// whitelist.
//
// A session is a small state machine with two views. The list view shows
// the whitelist and pending attempts and offers toggle, remove, refresh,
// approve and dismiss. The add view takes a player name or a raw UUID and
// resolves it before whitelisting.
//
//	ListView --Add--> AddEntryView --Confirm ok / Cancel--> ListView
//	    \                                                     /
//	     +------------------ Close --> Closed <--------------+
//
// Every action returns an Outcome with exactly one Notice and the data
// needed to redraw the current view. Actions on one session are
// serialised; separate sessions share only the gateway, resolver and
// attempt log.
package workflow
