// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attempt

import (
	"fmt"
	"time"

	"github.com/jeranaias/wlctl/internal/identity"
)

// UnknownAddress is recorded when the host cannot report a source address.
const UnknownAddress = "unknown"

// Record is one rejected connection attempt. It is immutable once built.
type Record struct {
	id      identity.ID
	name    string
	at      time.Time
	address string
}

// New records an attempt happening now.
func New(id identity.ID, name, address string) Record {
	return NewAt(id, name, time.Now(), address)
}

// NewAt records an attempt at a known instant, truncated to milliseconds.
func NewAt(id identity.ID, name string, at time.Time, address string) Record {
	if address == "" {
		address = UnknownAddress
	}
	return Record{
		id:      id,
		name:    name,
		at:      time.UnixMilli(at.UnixMilli()),
		address: address,
	}
}

// ID returns the player identity.
func (r Record) ID() identity.ID { return r.id }

// Name returns the display name given at the time of the attempt.
func (r Record) Name() string { return r.name }

// Timestamp returns when the attempt happened.
func (r Record) Timestamp() time.Time { return r.at }

// Address returns the source address or UnknownAddress.
func (r Record) Address() string { return r.address }

// Age returns how long ago the attempt happened relative to now.
func (r Record) Age(now time.Time) time.Duration {
	return now.Sub(r.at)
}

// FormattedAge renders Age with FormatAge.
func (r Record) FormattedAge(now time.Time) string {
	return FormatAge(r.Age(now))
}

// FormatAge renders an elapsed duration in its largest whole unit:
// "42s ago", "5m ago", "3h ago", "12d ago". Negative durations read as
// "0s ago".
func FormatAge(d time.Duration) string {
	s := int64(d / time.Second)
	if s < 0 {
		s = 0
	}
	if s < 60 {
		return fmt.Sprintf("%ds ago", s)
	}
	m := s / 60
	if m < 60 {
		return fmt.Sprintf("%dm ago", m)
	}
	h := m / 60
	if h < 24 {
		return fmt.Sprintf("%dh ago", h)
	}
	return fmt.Sprintf("%dd ago", h/24)
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// Summary is the JSON shape of a Record used by listings and the status
// endpoint.
type Summary struct {
	UUID      string `json:"uuid"`
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
	IP        string `json:"ip"`
	Age       string `json:"age"`
}

// Summarize renders r relative to now.
func (r Record) Summarize(now time.Time) Summary {
	return Summary{
		UUID:      r.id.String(),
		Username:  r.name,
		Timestamp: r.at.UnixMilli(),
		IP:        r.address,
		Age:       r.FormattedAge(now),
	}
}
