// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package whitelist

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the gateway whenever the whitelist file changes on disk,
// until ctx is cancelled. Bursts of events are collapsed by the debounce
// interval. The containing directory is watched so atomic replacements by
// rename are seen.
func (g *FileGateway) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create whitelist watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(g.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != g.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			timer.Reset(g.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			g.logger.Warn("Whitelist watcher error", zap.Error(err))

		case <-timer.C:
			if err := g.Reload(); err != nil {
				// A half-written file from another writer; keep the last good state.
				g.logger.Warn("Failed to reload whitelist", zap.String("path", g.path), zap.Error(err))
				continue
			}
			g.logger.Info("Reloaded whitelist after external change", zap.String("path", g.path))
			if g.onChange != nil {
				g.onChange()
			}
		}
	}
}
