// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package plugin wires the attempt log, the rejection listener and
// management sessions onto a host.
//
// # Usage
//
//	p, err := plugin.Activate(host,
//	    plugin.WithAttemptsPath(path),
//	    plugin.WithLogger(logger))
//	if errors.Is(err, plugin.ErrGatewayUnavailable) {
//	    // nothing was registered
//	}
//	host.OnRejected(p.Listener().OnConnectionRejected)
//	session, _ := p.OpenSession()
package plugin

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/wlctl/internal/attempt"
	"github.com/jeranaias/wlctl/internal/identity"
	"github.com/jeranaias/wlctl/internal/listener"
	"github.com/jeranaias/wlctl/internal/metrics"
	"github.com/jeranaias/wlctl/internal/whitelist"
	"github.com/jeranaias/wlctl/internal/workflow"
)

// ErrGatewayUnavailable is returned by Activate when the host cannot
// provide its whitelist.
var ErrGatewayUnavailable = errors.New("whitelist gateway unavailable")

// Host is the game server as seen by the plugin.
type Host interface {
	// Whitelist returns the host's whitelist. On failure it returns an
	// error; a nil *whitelist.FileGateway or *whitelist.Memory is also
	// treated as unavailable.
	Whitelist() (whitelist.Gateway, error)

	// Presence returns the online player lookup.
	Presence() identity.Resolver
}

// Plugin is an activated instance. It owns the attempt store.
type Plugin struct {
	gateway  whitelist.Gateway
	resolver identity.Resolver
	store    *attempt.Store
	listener *listener.Listener

	resolveTimeout time.Duration
	logger         *zap.Logger
	metrics        *metrics.Metrics
}

type settings struct {
	attemptsPath   string
	capacity       int
	reasonMatch    string
	ratePerSec     float64
	burst          int
	rateSet        bool
	resolveTimeout time.Duration
	logger         *zap.Logger
	metrics        *metrics.Metrics
}

// Option configures activation.
type Option func(*settings)

// WithAttemptsPath sets the attempt log file. Empty keeps it in memory.
func WithAttemptsPath(path string) Option {
	return func(s *settings) { s.attemptsPath = path }
}

// WithCapacity sets the attempt log capacity.
func WithCapacity(n int) Option {
	return func(s *settings) { s.capacity = n }
}

// WithReasonMatch sets the rejection reason filter.
func WithReasonMatch(match string) Option {
	return func(s *settings) { s.reasonMatch = match }
}

// WithRateLimit sets the listener ingest limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *settings) {
		s.ratePerSec, s.burst, s.rateSet = perSecond, burst, true
	}
}

// WithResolveTimeout bounds name lookups in sessions.
func WithResolveTimeout(d time.Duration) Option {
	return func(s *settings) { s.resolveTimeout = d }
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithMetrics attaches Prometheus collectors to every component.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// Activate obtains the host's whitelist and builds the plugin. If the
// gateway is unavailable nothing is created and the error wraps
// ErrGatewayUnavailable.
func Activate(host Host, opts ...Option) (*Plugin, error) {
	cfg := settings{
		capacity: attempt.DefaultCapacity,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	log := cfg.logger.Named("plugin")

	if host == nil {
		return nil, fmt.Errorf("%w: no host", ErrGatewayUnavailable)
	}
	gw, err := host.Whitelist()
	if err != nil {
		log.Error("Failed to access whitelist", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}
	if isNilGateway(gw) {
		return nil, fmt.Errorf("%w: host returned no gateway", ErrGatewayUnavailable)
	}
	resolver := host.Presence()
	if resolver == nil {
		return nil, errors.New("host presence lookup is required")
	}

	store := attempt.NewStore(
		attempt.WithPath(cfg.attemptsPath),
		attempt.WithCapacity(cfg.capacity),
		attempt.WithLogger(cfg.logger.Named("attempts")),
		attempt.WithMetrics(cfg.metrics),
	)

	listenerOpts := []listener.Option{
		listener.WithReasonMatch(cfg.reasonMatch),
		listener.WithLogger(cfg.logger.Named("listener")),
		listener.WithMetrics(cfg.metrics),
	}
	if cfg.rateSet {
		listenerOpts = append(listenerOpts, listener.WithRateLimit(cfg.ratePerSec, cfg.burst))
	}

	p := &Plugin{
		gateway:        gw,
		resolver:       resolver,
		store:          store,
		listener:       listener.New(store, listenerOpts...),
		resolveTimeout: cfg.resolveTimeout,
		logger:         log,
		metrics:        cfg.metrics,
	}

	log.Info("Whitelist manager activated",
		zap.String("attempts", store.Path()),
		zap.Int("pending", store.Count()),
		zap.Int("capacity", store.Capacity()))
	return p, nil
}

// isNilGateway catches both a nil interface and a nil pointer of one of
// the package's gateway types wrapped in it.
func isNilGateway(gw whitelist.Gateway) bool {
	switch g := gw.(type) {
	case nil:
		return true
	case *whitelist.FileGateway:
		return g == nil
	case *whitelist.Memory:
		return g == nil
	}
	return false
}

// OpenSession starts a management session in the list view.
func (p *Plugin) OpenSession() (*workflow.Workflow, error) {
	return workflow.New(p.gateway, p.resolver,
		workflow.WithAttemptLog(p.store),
		workflow.WithResolveTimeout(p.resolveTimeout),
		workflow.WithLogger(p.logger.Named("session")),
		workflow.WithMetrics(p.metrics),
	)
}

// Listener returns the rejection listener to register with the host.
func (p *Plugin) Listener() *listener.Listener {
	return p.listener
}

// Attempts returns the attempt log.
func (p *Plugin) Attempts() *attempt.Store {
	return p.store
}

// Gateway returns the host whitelist.
func (p *Plugin) Gateway() whitelist.Gateway {
	return p.gateway
}
