// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package presence tracks which players are currently connected.
//
// Registry implements identity.Resolver so the management workflow can
// turn an online player's name into their identity.
package presence

import (
	"context"
	"sort"
	"sync"

	"github.com/jeranaias/wlctl/internal/identity"
)

// Player is an online player.
type Player struct {
	ID      identity.ID
	Name    string
	Address string
}

// Registry is a concurrency-safe index of online players.
type Registry struct {
	mu      sync.RWMutex
	players map[identity.ID]Player
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{players: make(map[identity.ID]Player)}
}

// Join marks a player online, replacing any earlier entry.
func (r *Registry) Join(p Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[p.ID] = p
}

// Leave marks a player offline.
func (r *Registry) Leave(id identity.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, id)
}

// Reset forgets every player, e.g. after a server restart.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players = make(map[identity.ID]Player)
}

// Online returns all online players sorted by name.
func (r *Registry) Online() []Player {
	r.mu.RLock()
	out := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return identity.FoldName(out[i].Name) < identity.FoldName(out[j].Name)
	})
	return out
}

// Count returns the number of online players.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// FindOnline implements identity.Resolver.
func (r *Registry) FindOnline(_ context.Context, id identity.ID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	return p.Name, ok
}

// FindOnlineByName implements identity.Resolver. A non-exact query must
// match exactly one player.
func (r *Registry) FindOnlineByName(ctx context.Context, name string, exact bool) (identity.ID, bool) {
	if ctx.Err() != nil {
		return identity.Nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var found identity.ID
	matches := 0
	for id, p := range r.players {
		if !identity.MatchName(p.Name, name, exact) {
			continue
		}
		if exact {
			return id, true
		}
		found = id
		matches++
	}
	if matches != 1 {
		return identity.Nil, false
	}
	return found, true
}

var _ identity.Resolver = (*Registry)(nil)
