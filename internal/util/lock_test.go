// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
)

func TestWithFileLock_Serializes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter")
	if err := os.WriteFile(path, []byte("0"), 0600); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				err := WithFileLock(path, func() error {
					data, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					n, err := strconv.Atoi(string(data))
					if err != nil {
						return err
					}
					return AtomicWriteFile(path, []byte(strconv.Itoa(n+1)), 0600)
				})
				if err != nil {
					t.Errorf("WithFileLock failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "100" {
		t.Errorf("counter = %s, want 100", data)
	}
}

func TestWithFileLock_ReturnsFnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	want := errors.New("boom")

	if err := WithFileLock(path, func() error { return want }); !errors.Is(err, want) {
		t.Errorf("WithFileLock error = %v, want %v", err, want)
	}
	if _, err := os.Stat(path + LockSuffix); err != nil {
		t.Errorf("lock file not created: %v", err)
	}
}

func TestWithFileLock_UnusableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	ran := false
	err := WithFileLock(filepath.Join(blocker, "data.json"), func() error {
		ran = true
		return nil
	})
	if err == nil || ran {
		t.Errorf("expected failure before fn runs, err=%v ran=%v", err, ran)
	}
}
