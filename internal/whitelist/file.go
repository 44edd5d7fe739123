// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package whitelist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/wlctl/internal/identity"
	"github.com/jeranaias/wlctl/internal/util"
)

const (
	// DefaultFileName is the whitelist file written by the game server.
	DefaultFileName = "whitelist.json"

	// DefaultDebounce is how long Watch waits for writes to settle.
	DefaultDebounce = 250 * time.Millisecond

	// filePerm keeps the file readable by the server process.
	filePerm = 0644
)

// fileState is the on-disk shape of whitelist.json.
type fileState struct {
	Enabled bool          `json:"enabled"`
	List    []identity.ID `json:"list"`
}

// FileGateway is a Gateway backed by the server's whitelist file.
type FileGateway struct {
	path     string
	debounce time.Duration
	logger   *zap.Logger
	onChange func()

	mu      sync.Mutex
	enabled bool
	list    identity.Set

	// enabledSet marks an enabled flag set locally and not yet written.
	// File reads keep it instead of the value on disk.
	enabledSet bool
}

// FileOption configures a FileGateway.
type FileOption func(*FileGateway)

// WithLogger sets the gateway logger.
func WithLogger(logger *zap.Logger) FileOption {
	return func(g *FileGateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithDebounce sets the settle time used by Watch.
func WithDebounce(d time.Duration) FileOption {
	return func(g *FileGateway) {
		if d > 0 {
			g.debounce = d
		}
	}
}

// WithOnChange registers a callback run after Watch reloads the file.
func WithOnChange(fn func()) FileOption {
	return func(g *FileGateway) {
		g.onChange = fn
	}
}

// OpenFile loads the whitelist at path. A missing file yields a disabled,
// empty whitelist that is created on the first save. A file that cannot be
// parsed is an error.
func OpenFile(path string, opts ...FileOption) (*FileGateway, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve whitelist path: %w", err)
	}

	g := &FileGateway{
		path:     abs,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		list:     identity.NewSet(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if err := g.Reload(); err != nil {
		return nil, err
	}
	return g, nil
}

// Path returns the whitelist file path.
func (g *FileGateway) Path() string {
	return g.path
}

func (g *FileGateway) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// SetEnabled changes the flag in memory. Persist writes it.
func (g *FileGateway) SetEnabled(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enabled = enabled
	g.enabledSet = true
}

func (g *FileGateway) Identities() identity.Set {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.list.Clone()
}

// Persist writes the enabled flag. The identity list is re-read under the
// cross-process lock first, so entries written by others are kept.
func (g *FileGateway) Persist() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return util.WithFileLock(g.path, func() error {
		if err := g.readLocked(); err != nil {
			return err
		}
		return g.writeLocked()
	})
}

// Modify re-reads the file, applies fn and writes the result, all under the
// process mutex and the cross-process lock. If the write fails the error is
// returned and the in-memory list is replaced by the file on the next read.
func (g *FileGateway) Modify(fn func(identity.Set) bool) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var changed bool
	err := util.WithFileLock(g.path, func() error {
		if err := g.readLocked(); err != nil {
			return err
		}
		changed = fn(g.list)
		if !changed {
			return nil
		}
		return g.writeLocked()
	})
	return changed, err
}

// Reload replaces the in-memory state with the file contents.
func (g *FileGateway) Reload() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return util.WithFileLock(g.path, g.readLocked)
}

// =============================================================================
// FILE ACCESS
// =============================================================================

// readLocked loads the file into memory, keeping an unwritten enabled
// flag. Caller holds g.mu and the file lock.
func (g *FileGateway) readLocked() error {
	data, err := os.ReadFile(g.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if !g.enabledSet {
				g.enabled = false
			}
			g.list = identity.NewSet()
			return nil
		}
		return fmt.Errorf("read whitelist: %w", err)
	}

	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decode whitelist %s: %w", g.path, err)
	}
	if !g.enabledSet {
		g.enabled = st.Enabled
	}
	g.list = identity.NewSet(st.List...)
	return nil
}

// writeLocked saves memory to the file. Caller holds g.mu and the file lock.
func (g *FileGateway) writeLocked() error {
	st := fileState{Enabled: g.enabled, List: g.list.Sorted()}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode whitelist: %w", err)
	}
	if err := util.AtomicWriteFile(g.path, data, filePerm); err != nil {
		g.logger.Error("Failed to save whitelist", zap.String("path", g.path), zap.Error(err))
		return fmt.Errorf("save whitelist: %w", err)
	}
	g.enabledSet = false
	g.logger.Debug("Saved whitelist",
		zap.String("path", g.path),
		zap.Bool("enabled", st.Enabled),
		zap.Int("count", len(st.List)))
	return nil
}
