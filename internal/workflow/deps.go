// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workflow

import (
	"context"

	"github.com/jeranaias/wlctl/internal/attempt"
	"github.com/jeranaias/wlctl/internal/identity"
	"github.com/jeranaias/wlctl/internal/whitelist"
)

// Gateway is the whitelist a session mutates. It has the same method set
// as whitelist.Gateway.
type Gateway interface {
	Enabled() bool
	SetEnabled(enabled bool)
	Persist() error
	Identities() identity.Set
	Modify(fn func(identity.Set) bool) (bool, error)
}

// Resolver looks up online players. It has the same method set as
// identity.Resolver.
type Resolver interface {
	FindOnline(ctx context.Context, id identity.ID) (string, bool)
	FindOnlineByName(ctx context.Context, name string, exact bool) (identity.ID, bool)
}

// AttemptLog is the part of *attempt.Store a session reads and prunes.
type AttemptLog interface {
	List() []attempt.Record
	Remove(id identity.ID) error
}

var (
	_ Gateway           = (whitelist.Gateway)(nil)
	_ whitelist.Gateway = (Gateway)(nil)
	_ Resolver          = (identity.Resolver)(nil)
	_ AttemptLog        = (*attempt.Store)(nil)
)
