// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package identity defines player identities and the lookup contract used
// to turn operator input into a canonical identity.
//
// # Key Types
//
//   - ID: A 128-bit player identity (UUID)
//   - Set: An unordered set of identities, as held by a whitelist
//   - Resolver: Name and presence lookup provided by the host
//
// # Usage
//
// Parse a raw token typed by an operator:
//
//	id, err := identity.Parse("069a79f4-44e9-4726-a5be-fca90e38aaf5")
//	if errors.Is(err, identity.ErrInvalidToken) {
//	    // reject the input
//	}
//
// Resolve an online player by name:
//
//	id, ok := resolver.FindOnlineByName(ctx, "Notch", true)
package identity
