// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package hostlog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jeranaias/wlctl/internal/metrics"
)

// DefaultPollInterval is the fallback poll used alongside fsnotify, for
// filesystems that do not deliver change events.
const DefaultPollInterval = 2 * time.Second

// maxLineBytes bounds a buffered partial line.
const maxLineBytes = 64 * 1024

// Tailer follows a log file and dispatches parsed events. It detects
// truncation and rotation and restarts from the top of the new file.
// A Tailer is not safe for concurrent use.
type Tailer struct {
	path     string
	parser   *Parser
	handler  Handler
	logger   *zap.Logger
	metrics  *metrics.Metrics
	interval time.Duration

	offset  int64
	info    os.FileInfo
	partial []byte
}

// TailerOption configures a Tailer.
type TailerOption func(*Tailer)

// WithLogger sets the tailer logger.
func WithLogger(logger *zap.Logger) TailerOption {
	return func(t *Tailer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithMetrics counts parsed events.
func WithMetrics(m *metrics.Metrics) TailerOption {
	return func(t *Tailer) {
		t.metrics = m
	}
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) TailerOption {
	return func(t *Tailer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// NewTailer creates a tailer for the log at path.
func NewTailer(path string, parser *Parser, handler Handler, opts ...TailerOption) *Tailer {
	t := &Tailer{
		path:     filepath.Clean(path),
		parser:   parser,
		handler:  handler,
		logger:   zap.NewNop(),
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Offset returns the byte offset consumed so far.
func (t *Tailer) Offset() int64 {
	return t.offset
}

// Replay reads the log from its current position to the end, delivering
// joins, leaves and restarts so presence can be rebuilt. Historical
// rejections are skipped; they were recorded when they happened.
func (t *Tailer) Replay() error {
	return t.read(false)
}

// SkipToEnd positions the tailer at the end of the current file without
// dispatching anything.
func (t *Tailer) SkipToEnd() error {
	info, err := os.Stat(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat server log: %w", err)
	}
	t.info = info
	t.offset = info.Size()
	t.partial = nil
	return nil
}

// Run follows the log until ctx is cancelled.
func (t *Tailer) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create log watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(t.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info("Following server log", zap.String("path", t.path), zap.Int64("offset", t.offset))

	for {
		if err := t.read(true); err != nil {
			t.logger.Warn("Failed to read server log", zap.String("path", t.path), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != t.path {
				continue
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			t.logger.Warn("Server log watcher error", zap.Error(err))
		case <-ticker.C:
		}
	}
}

// read consumes everything appended since the last call.
func (t *Tailer) read(withRejects bool) error {
	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open server log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat server log: %w", err)
	}
	if t.info != nil && !os.SameFile(t.info, info) {
		t.logger.Info("Server log rotated", zap.String("path", t.path))
		t.offset, t.partial = 0, nil
	} else if info.Size() < t.offset {
		t.logger.Info("Server log truncated", zap.String("path", t.path))
		t.offset, t.partial = 0, nil
	}
	t.info = info

	if info.Size() == t.offset {
		return nil
	}
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek server log: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(f, info.Size()-t.offset))
	if err != nil {
		return fmt.Errorf("read server log: %w", err)
	}
	t.offset += int64(len(data))

	buf := append(t.partial, data...)
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		t.handleLine(string(buf[:i]), withRejects)
		buf = buf[i+1:]
	}
	if len(buf) > maxLineBytes {
		buf = nil
	}
	t.partial = append([]byte(nil), buf...)
	return nil
}

func (t *Tailer) handleLine(line string, withRejects bool) {
	ev, ok := t.parser.Parse(line)
	if !ok {
		return
	}
	if ev.Kind == KindReject && !withRejects {
		return
	}
	t.metrics.RecordLogEvent(ev.Kind.String())
	Dispatch(ev, t.handler)
}
