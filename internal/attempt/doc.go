// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attempt keeps the rolling log of connection attempts rejected by
// the whitelist.
//
// # Key Types
//
//   - Record: An immutable snapshot of one rejected attempt
//   - Store: A bounded, deduplicated log persisted after every mutation
//
// # Usage
//
//	store := attempt.NewStore(
//	    attempt.WithPath("/srv/game/whitelist_pending.json"),
//	    attempt.WithCapacity(50),
//	    attempt.WithLogger(logger),
//	)
//	_ = store.Add(attempt.New(id, "Steve", "203.0.113.7"))
//
//	for _, rec := range store.List() {
//	    fmt.Println(rec.Name(), rec.FormattedAge(time.Now()))
//	}
//
// # Storage Format
//
// The log is a pretty-printed JSON array, newest first:
//
//	[
//	  {
//	    "uuid": "069a79f4-44e9-4726-a5be-fca90e38aaf5",
//	    "username": "Steve",
//	    "timestamp": 1718035200000,
//	    "ip": "203.0.113.7"
//	  }
//	]
//
// Timestamps are Unix milliseconds. A missing ip loads as "unknown".
//
// Several processes may open the same file. Mutations hold an advisory lock
// on the file name plus ".lock" and re-read the log before saving.
package attempt
