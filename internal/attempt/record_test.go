// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attempt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/wlctl/internal/identity"
)

func TestFormatAge(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s ago"},
		{59, "59s ago"},
		{60, "1m ago"},
		{3599, "59m ago"},
		{3600, "1h ago"},
		{86399, "23h ago"},
		{86400, "1d ago"},
		{86400 * 400, "400d ago"},
		{-30, "0s ago"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatAge(time.Duration(tt.seconds) * time.Second)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatAge_TruncatesFractions(t *testing.T) {
	assert.Equal(t, "59s ago", FormatAge(59*time.Second+999*time.Millisecond))
	assert.Equal(t, "1m ago", FormatAge(119*time.Second))
}

func TestNewAt_MillisecondResolution(t *testing.T) {
	at := time.Date(2024, 6, 10, 12, 0, 0, 123456789, time.UTC)
	rec := NewAt(identity.New(), "Steve", at, "10.0.0.1")

	assert.Equal(t, at.UnixMilli(), rec.Timestamp().UnixMilli())
	assert.Equal(t, 0, rec.Timestamp().Nanosecond()%int(time.Millisecond))
}

func TestNew_EmptyAddressIsUnknown(t *testing.T) {
	rec := New(identity.New(), "Steve", "")
	assert.Equal(t, UnknownAddress, rec.Address())
}

func TestRecord_FormattedAge(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)
	rec := NewAt(identity.New(), "Alex", at, "")

	assert.Equal(t, "5m ago", rec.FormattedAge(at.Add(5*time.Minute+10*time.Second)))
	assert.Equal(t, "0s ago", rec.FormattedAge(at.Add(-time.Hour)))
}
