// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across wlctl.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: Crash-safe whole-file replacement with fsync
//   - WithFileLock: Cross-process advisory lock around a read-modify-write
//
// Display Helpers:
//   - Truncate: Display-width aware truncation with ellipsis
//   - PadRight: Display-width aware padding for table columns
//   - ExpandHome: Resolves a leading ~ to the user's home directory
package util
