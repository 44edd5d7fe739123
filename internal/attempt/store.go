// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attempt

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/wlctl/internal/identity"
	"github.com/jeranaias/wlctl/internal/metrics"
	"github.com/jeranaias/wlctl/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultCapacity is the number of attempts kept when no capacity is set.
	DefaultCapacity = 50

	// DefaultFileName is the conventional name of the attempt log.
	DefaultFileName = "whitelist_pending.json"

	// filePerm restricts the log to the owner; it holds player addresses.
	filePerm = 0600
)

// =============================================================================
// STORE
// =============================================================================

// entry pairs a record with its insertion sequence. The sequence breaks
// timestamp ties so ordering stays deterministic.
type entry struct {
	rec Record
	seq uint64
}

// Store is a bounded attempt log keyed by identity. It is safe for
// concurrent use, including by several processes sharing one file: each
// mutation re-reads the file under a cross-process lock, applies the change
// and saves before the call returns. Reads pick up files replaced by other
// processes.
type Store struct {
	mu       sync.Mutex
	entries  map[identity.ID]entry
	nextSeq  uint64
	capacity int
	path     string
	lastErr  error

	// stamp describes the file as last read or written.
	stamp os.FileInfo
	// dirty is set while memory holds changes a failed save did not write.
	dirty bool

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCapacity sets the maximum number of records kept. Values below 1 are
// ignored.
func WithCapacity(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithPath sets the file the log is loaded from and saved to. An empty path
// keeps the log in memory only.
func WithPath(path string) StoreOption {
	return func(s *Store) {
		s.path = path
	}
}

// WithLogger sets the logger used for load and save failures.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore creates a store and loads any persisted log. Load failures are
// logged and leave the store empty; they never prevent construction.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		entries:  make(map[identity.ID]entry),
		capacity: DefaultCapacity,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.readLocked()
	if err != nil {
		s.logger.Warn("Attempt log unreadable, starting empty",
			zap.String("path", s.path), zap.Error(err))
		entries = make(map[identity.ID]entry)
	}
	s.entries = entries
	s.stamp = s.statLocked()
	if n := s.evictLocked(); n > 0 {
		s.logger.Info("Trimmed attempt log to capacity",
			zap.Int("dropped", n), zap.Int("capacity", s.capacity))
	}
	s.metrics.SetPending(len(s.entries))
	return s
}

// Add inserts rec, replacing any earlier attempt by the same identity, then
// evicts the oldest records until the log fits its capacity and saves.
// A save error is returned but the in-memory change is kept.
func (s *Store) Add(rec Record) error {
	return s.mutate(func() {
		s.nextSeq++
		s.entries[rec.ID()] = entry{rec: rec, seq: s.nextSeq}
		evicted := s.evictLocked()

		s.metrics.RecordAttempt()
		s.metrics.RecordEvictions(evicted)

		s.logger.Debug("Recorded connection attempt",
			zap.Stringer("uuid", rec.ID()),
			zap.String("username", rec.Name()),
			zap.String("ip", rec.Address()),
			zap.Int("evicted", evicted))
	})
}

// Remove deletes the attempt for id if present and saves.
func (s *Store) Remove(id identity.ID) error {
	return s.mutate(func() {
		delete(s.entries, id)
	})
}

// Clear deletes every attempt and saves.
func (s *Store) Clear() error {
	return s.mutate(func() {
		s.entries = make(map[identity.ID]entry)
	})
}

// mutate applies fn between a re-read and a save of the file, holding s.mu
// and the cross-process lock. If the lock cannot be taken fn still runs and
// the failure is reported like a failed save.
func (s *Store) mutate(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.metrics.SetPending(len(s.entries)) }()

	if s.path == "" {
		fn()
		return s.saveLocked()
	}

	ran := false
	err := util.WithFileLock(s.path, func() error {
		ran = true
		s.refreshLocked()
		fn()
		return s.saveLocked()
	})
	if !ran {
		fn()
		return s.failLocked(err)
	}
	return err
}

// List returns a snapshot of all attempts, newest first.
func (s *Store) List() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked()

	sorted := s.sortedLocked()
	out := make([]Record, len(sorted))
	for i, e := range sorted {
		out[i] = e.rec
	}
	return out
}

// Get returns the attempt recorded for id.
func (s *Store) Get(id identity.ID) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked()

	e, ok := s.entries[id]
	return e.rec, ok
}

// Count returns the number of attempts held.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked()
	return len(s.entries)
}

// Capacity returns the maximum number of attempts kept.
func (s *Store) Capacity() int {
	return s.capacity
}

// Path returns the backing file, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// Err returns the error from the most recent save, or nil if it succeeded.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// =============================================================================
// ORDERING
// =============================================================================

// newer reports whether a sorts before b in List order.
func newer(a, b entry) bool {
	if !a.rec.at.Equal(b.rec.at) {
		return a.rec.at.After(b.rec.at)
	}
	if a.seq != b.seq {
		return a.seq > b.seq
	}
	return identity.Compare(a.rec.id, b.rec.id) > 0
}

// sortedLocked returns entries newest first. Caller must hold s.mu.
func (s *Store) sortedLocked() []entry {
	out := make([]entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i], out[j])
	})
	return out
}

// evictLocked drops the oldest entries until the store fits its capacity
// and returns how many were removed. Caller must hold s.mu.
func (s *Store) evictLocked() int {
	excess := len(s.entries) - s.capacity
	if excess <= 0 {
		return 0
	}
	sorted := s.sortedLocked()
	for _, e := range sorted[len(sorted)-excess:] {
		delete(s.entries, e.rec.id)
	}
	return excess
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// fileRecord is the on-disk shape of one attempt.
type fileRecord struct {
	UUID      string  `json:"uuid"`
	Username  string  `json:"username"`
	Timestamp int64   `json:"timestamp"`
	IP        *string `json:"ip,omitempty"`
}

// readLocked parses the persisted log into a fresh map. A missing file
// yields an empty map. Caller must hold s.mu.
func (s *Store) readLocked() (map[identity.ID]entry, error) {
	entries := make(map[identity.ID]entry)
	if s.path == "" {
		return entries, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entries, nil
		}
		return nil, fmt.Errorf("read attempt log: %w", err)
	}

	var raw []fileRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode attempt log: %w", err)
	}

	// The file is written newest first; walk it backwards so insertion
	// sequence follows file order when timestamps tie.
	for i := len(raw) - 1; i >= 0; i-- {
		fr := raw[i]
		id, err := identity.Parse(fr.UUID)
		if err != nil {
			return nil, fmt.Errorf("decode attempt log entry %d: %w", i, err)
		}
		addr := UnknownAddress
		if fr.IP != nil {
			addr = *fr.IP
		}
		rec := NewAt(id, fr.Username, msToTime(fr.Timestamp), addr)

		if prev, ok := entries[id]; ok && rec.at.Before(prev.rec.at) {
			continue
		}
		s.nextSeq++
		entries[id] = entry{rec: rec, seq: s.nextSeq}
	}
	return entries, nil
}

// refreshLocked brings memory up to date with the file before a mutation.
// With no unsaved changes the file replaces memory, so other processes'
// additions and removals are both kept. After a failed save the two are
// merged, the newer attempt winning per identity. An unreadable file
// leaves memory as is; the next save overwrites it.
// Caller must hold s.mu and the file lock.
func (s *Store) refreshLocked() {
	onDisk, err := s.readLocked()
	if err != nil {
		s.logger.Warn("Attempt log unreadable, keeping memory",
			zap.String("path", s.path), zap.Error(err))
		return
	}
	if s.dirty {
		for id, e := range s.entries {
			if prev, ok := onDisk[id]; !ok || newer(e, prev) {
				onDisk[id] = e
			}
		}
	}
	s.entries = onDisk
	s.evictLocked()
}

// syncLocked reloads the log when another process has replaced the file
// since it was last read or written. Caller must hold s.mu.
func (s *Store) syncLocked() {
	if s.path == "" || s.dirty {
		return
	}
	cur := s.statLocked()
	if sameStamp(s.stamp, cur) {
		return
	}
	entries, err := s.readLocked()
	if err != nil {
		s.logger.Debug("Attempt log changed but unreadable",
			zap.String("path", s.path), zap.Error(err))
		return
	}
	s.entries = entries
	s.stamp = cur
	s.evictLocked()
	s.metrics.SetPending(len(s.entries))
}

func (s *Store) statLocked() os.FileInfo {
	if s.path == "" {
		return nil
	}
	fi, err := os.Stat(s.path)
	if err != nil {
		return nil
	}
	return fi
}

// sameStamp reports whether two stats describe the same file contents.
// Saves replace the file, so a rewrite shows up as a different file.
func sameStamp(a, b os.FileInfo) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return os.SameFile(a, b) && a.ModTime().Equal(b.ModTime()) && a.Size() == b.Size()
}

// saveLocked writes the whole log atomically. Caller must hold s.mu.
func (s *Store) saveLocked() error {
	if s.path == "" {
		s.lastErr = nil
		return nil
	}

	sorted := s.sortedLocked()
	out := make([]fileRecord, len(sorted))
	for i, e := range sorted {
		ip := e.rec.address
		out[i] = fileRecord{
			UUID:      e.rec.id.String(),
			Username:  e.rec.name,
			Timestamp: e.rec.at.UnixMilli(),
			IP:        &ip,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err == nil {
		err = util.AtomicWriteFile(s.path, data, filePerm)
	}
	if err != nil {
		return s.failLocked(err)
	}

	s.lastErr = nil
	s.dirty = false
	s.stamp = s.statLocked()
	return nil
}

// failLocked records a save failure. Memory keeps the change and stays
// authoritative until a later save succeeds. Caller must hold s.mu.
func (s *Store) failLocked(err error) error {
	s.lastErr = fmt.Errorf("save attempt log: %w", err)
	s.dirty = true
	s.metrics.RecordPersistFailure()
	s.logger.Error("Failed to save attempt log",
		zap.String("path", s.path), zap.Error(err))
	return s.lastErr
}
