// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Resolver looks up players currently known to the host. Implementations
// must be safe for concurrent use and must never return an identity for a
// player that is not online.
type Resolver interface {
	// FindOnline returns the display name of an online player.
	FindOnline(ctx context.Context, id ID) (name string, ok bool)

	// FindOnlineByName returns the identity of an online player. With exact
	// set, folded names must match completely; otherwise a unique folded
	// prefix is enough.
	FindOnlineByName(ctx context.Context, name string, exact bool) (ID, bool)
}

// =============================================================================
// NAME FOLDING
// =============================================================================

// UNICODE: player names are compared after NFKC normalisation and full case
// folding, so "ＡＬＩＣＥ" and "alice" refer to the same player.

// FoldName returns the comparison key for a display name.
func FoldName(name string) string {
	// A Caser carries state and must not be shared between goroutines.
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(name)))
}

// MatchName reports whether candidate satisfies query under the given
// matching mode. Both arguments are raw display names.
func MatchName(candidate, query string, exact bool) bool {
	c, q := FoldName(candidate), FoldName(query)
	if q == "" {
		return false
	}
	if exact {
		return c == q
	}
	return strings.HasPrefix(c, q)
}
