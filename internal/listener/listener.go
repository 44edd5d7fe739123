// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package listener records whitelist rejections reported by the host.
//
// The host calls OnConnectionRejected for every refused connection. Only
// rejections whose reason mentions the whitelist are recorded; the rest are
// counted and ignored. An optional per-identity token bucket coalesces
// reconnect storms from one player; distinct players are always recorded.
package listener

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/wlctl/internal/attempt"
	"github.com/jeranaias/wlctl/internal/identity"
	"github.com/jeranaias/wlctl/internal/metrics"
)

const (
	// DefaultReasonMatch selects whitelist rejections.
	DefaultReasonMatch = "whitelist"

	// maxTracked is the number of per-identity limiters kept before idle
	// ones are pruned.
	maxTracked = 1024
)

// Sink stores recorded attempts. *attempt.Store satisfies it.
type Sink interface {
	Add(rec attempt.Record) error
}

// Listener turns rejection notifications into attempt records.
type Listener struct {
	sink    Sink
	match   string
	limiter *throttle
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Listener.
type Option func(*Listener)

// WithReasonMatch sets the case-insensitive text a reason must contain.
func WithReasonMatch(match string) Option {
	return func(l *Listener) {
		if match = strings.TrimSpace(match); match != "" {
			l.match = strings.ToLower(match)
		}
	}
}

// WithRateLimit limits how often one identity is recorded. Repeats above
// the limit are dropped; other identities are unaffected. A non-positive
// perSecond disables it, which is the default.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(l *Listener) {
		if perSecond <= 0 {
			l.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		l.limiter = newThrottle(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the listener logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Listener) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Listener) {
		l.metrics = m
	}
}

// New creates a listener writing to sink.
func New(sink Sink, opts ...Option) *Listener {
	l := &Listener{
		sink:   sink,
		match:  DefaultReasonMatch,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnConnectionRejected records the attempt when reason refers to the
// whitelist. It reports whether a record was written.
func (l *Listener) OnConnectionRejected(id identity.ID, name, address, reason string) bool {
	if !strings.Contains(strings.ToLower(reason), l.match) {
		l.metrics.RecordIgnored()
		return false
	}
	if id.IsZero() {
		l.logger.Warn("Ignoring rejection without identity", zap.String("username", name))
		return false
	}
	if l.limiter != nil && !l.limiter.allow(id) {
		l.metrics.RecordThrottled()
		l.logger.Debug("Repeat rejection dropped by rate limit", zap.Stringer("uuid", id))
		return false
	}

	if err := l.sink.Add(attempt.New(id, name, address)); err != nil {
		// The store keeps the record in memory; the next save retries it.
		l.logger.Warn("Attempt recorded but not saved", zap.Stringer("uuid", id), zap.Error(err))
	}
	l.logger.Info("Recorded rejected connection",
		zap.Stringer("uuid", id),
		zap.String("username", name),
		zap.String("ip", address))
	return true
}

// =============================================================================
// PER-IDENTITY THROTTLE
// =============================================================================

type throttle struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[identity.ID]*rate.Limiter
}

func newThrottle(limit rate.Limit, burst int) *throttle {
	return &throttle{
		limit:    limit,
		burst:    burst,
		limiters: make(map[identity.ID]*rate.Limiter),
	}
}

func (t *throttle) allow(id identity.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	lim, ok := t.limiters[id]
	if !ok {
		if len(t.limiters) >= maxTracked {
			t.pruneLocked()
		}
		lim = rate.NewLimiter(t.limit, t.burst)
		t.limiters[id] = lim
	}
	return lim.Allow()
}

// pruneLocked drops limiters whose bucket has refilled. A fresh limiter
// behaves the same, so nothing is lost.
func (t *throttle) pruneLocked() {
	for id, lim := range t.limiters {
		if lim.Tokens() >= float64(t.burst) {
			delete(t.limiters, id)
		}
	}
}
