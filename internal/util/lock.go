// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// LockSuffix is appended to a file path to name its lock file.
const LockSuffix = ".lock"

// WithFileLock runs fn while holding an exclusive advisory lock on
// path+LockSuffix. The lock is shared by every process that uses it for the
// same path, so read-modify-write cycles on path do not interleave.
func WithFileLock(path string, fn func() error) (err error) {
	lockPath := path + LockSuffix
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock %s: %w", lockPath, err)
	}
	defer f.Close()

	if err := lockFile(f); err != nil {
		return fmt.Errorf("lock %s: %w", lockPath, err)
	}
	defer func() {
		if uerr := unlockFile(f); uerr != nil && err == nil {
			err = fmt.Errorf("unlock %s: %w", lockPath, uerr)
		}
	}()

	return fn()
}
