// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidToken is returned when operator input is not a usable identity.
var ErrInvalidToken = errors.New("invalid identity token")

// ID is a player identity. The zero value is the nil UUID and never names a
// real player.
type ID uuid.UUID

// Nil is the zero identity.
var Nil ID

// Parse converts operator input into an ID. Surrounding whitespace is ignored
// and every textual form accepted by uuid.Parse is allowed. The nil UUID is
// rejected.
func Parse(token string) (ID, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	u, err := uuid.Parse(trimmed)
	if err != nil {
		return Nil, fmt.Errorf("%w: %q: %v", ErrInvalidToken, trimmed, err)
	}
	if u == uuid.Nil {
		return Nil, fmt.Errorf("%w: nil identity", ErrInvalidToken)
	}
	return ID(u), nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// constants.
func MustParse(token string) ID {
	id, err := Parse(token)
	if err != nil {
		panic(err)
	}
	return id
}

// New returns a random identity.
func New() ID {
	return ID(uuid.New())
}

// String returns the canonical hyphenated lowercase form.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// Short returns an abbreviated form for narrow table columns.
func (id ID) Short() string {
	s := id.String()
	return s[:8] + "..."
}

// IsZero reports whether id is the nil identity.
func (id ID) IsZero() bool {
	return id == Nil
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Compare orders identities by their raw bytes.
func Compare(a, b ID) int {
	return bytes.Compare(a[:], b[:])
}
