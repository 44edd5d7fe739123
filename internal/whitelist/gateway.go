// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package whitelist

import (
	"sync"

	"github.com/jeranaias/wlctl/internal/identity"
)

// Gateway is the host's whitelist. Implementations must be safe for
// concurrent use.
type Gateway interface {
	// Enabled reports whether the whitelist is enforced.
	Enabled() bool

	// SetEnabled changes the enforcement flag in memory. Call Persist to
	// make it durable.
	SetEnabled(enabled bool)

	// Persist writes the current state to durable storage.
	Persist() error

	// Identities returns a snapshot of the whitelisted identities.
	Identities() identity.Set

	// Modify applies fn to the live set as one atomic step and reports
	// whether fn changed it. A changed set is persisted before Modify
	// returns.
	Modify(fn func(identity.Set) bool) (bool, error)
}

// Add whitelists id and reports whether it was newly added.
func Add(gw Gateway, id identity.ID) (bool, error) {
	return gw.Modify(func(s identity.Set) bool { return s.Add(id) })
}

// Remove drops id and reports whether it was present.
func Remove(gw Gateway, id identity.ID) (bool, error) {
	return gw.Modify(func(s identity.Set) bool { return s.Remove(id) })
}

// =============================================================================
// MEMORY GATEWAY
// =============================================================================

// Memory is a Gateway with no backing storage.
type Memory struct {
	mu      sync.Mutex
	enabled bool
	list    identity.Set

	// PersistErr, when set, is returned by Persist and Modify.
	PersistErr error
	persisted  int
}

// NewMemory creates a Memory gateway holding ids.
func NewMemory(enabled bool, ids ...identity.ID) *Memory {
	return &Memory{enabled: enabled, list: identity.NewSet(ids...)}
}

func (m *Memory) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

func (m *Memory) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

func (m *Memory) Persist() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PersistErr != nil {
		return m.PersistErr
	}
	m.persisted++
	return nil
}

func (m *Memory) Identities() identity.Set {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list.Clone()
}

func (m *Memory) Modify(fn func(identity.Set) bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !fn(m.list) {
		return false, nil
	}
	if m.PersistErr != nil {
		return true, m.PersistErr
	}
	m.persisted++
	return true, nil
}

// Persisted returns how many successful saves have happened.
func (m *Memory) Persisted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persisted
}
