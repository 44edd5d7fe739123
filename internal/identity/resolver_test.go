// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldName(t *testing.T) {
	assert.Equal(t, FoldName("alice"), FoldName("ALICE"))
	assert.Equal(t, FoldName("alice"), FoldName("ＡＬＩＣＥ"), "fullwidth forms fold to ASCII")
	assert.Equal(t, "bob", FoldName("  Bob "))
}

func TestMatchName(t *testing.T) {
	tests := []struct {
		candidate string
		query     string
		exact     bool
		want      bool
	}{
		{"Alice", "alice", true, true},
		{"Alice", "ali", true, false},
		{"Alice", "ali", false, true},
		{"Alice", "", false, false},
		{"Alice", "Bob", false, false},
	}
	for _, tt := range tests {
		got := MatchName(tt.candidate, tt.query, tt.exact)
		assert.Equal(t, tt.want, got, "MatchName(%q, %q, %v)", tt.candidate, tt.query, tt.exact)
	}
}
