// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sidecar hosts the whitelist manager next to a running game
// server. It reads the server's whitelist file, follows the server console
// log for joins, leaves and rejected connections, and serves status over
// HTTP.
package sidecar

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/wlctl/internal/config"
	"github.com/jeranaias/wlctl/internal/hostlog"
	"github.com/jeranaias/wlctl/internal/identity"
	"github.com/jeranaias/wlctl/internal/metrics"
	"github.com/jeranaias/wlctl/internal/plugin"
	"github.com/jeranaias/wlctl/internal/presence"
	"github.com/jeranaias/wlctl/internal/server"
	"github.com/jeranaias/wlctl/internal/whitelist"
)

// Sidecar is a plugin.Host backed by the server's files.
type Sidecar struct {
	cfg    *config.Config
	logger *zap.Logger

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	gateway    *whitelist.FileGateway
	gatewayErr error
	presence   *presence.Registry
	plugin     *plugin.Plugin
	tailer     *hostlog.Tailer

	pollInterval time.Duration
	changes      chan struct{}
}

var _ plugin.Host = (*Sidecar)(nil)

// Option configures a Sidecar.
type Option func(*Sidecar)

// WithPollInterval overrides how often the server log is polled in
// addition to file notifications.
func WithPollInterval(d time.Duration) Option {
	return func(s *Sidecar) { s.pollInterval = d }
}

// WithRegistry collects metrics into reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Sidecar) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// New opens the whitelist, activates the plugin and, when enabled, replays
// the server log to rebuild the online player list. Errors wrapping
// plugin.ErrGatewayUnavailable mean the whitelist file could not be used.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Sidecar, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Sidecar{
		cfg:      cfg,
		logger:   logger,
		presence: presence.NewRegistry(),
		changes:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	s.metrics = metrics.New(s.registry)

	s.gateway, s.gatewayErr = whitelist.OpenFile(cfg.WhitelistPath(),
		whitelist.WithLogger(logger.Named("whitelist")),
		whitelist.WithDebounce(cfg.WatchDebounce()),
		whitelist.WithOnChange(s.notify),
	)

	p, err := plugin.Activate(s,
		plugin.WithAttemptsPath(cfg.AttemptsPath()),
		plugin.WithCapacity(cfg.Attempts.Capacity),
		plugin.WithReasonMatch(cfg.Listener.ReasonMatch),
		plugin.WithRateLimit(cfg.Listener.RatePerSec, cfg.Listener.Burst),
		plugin.WithResolveTimeout(cfg.ResolveTimeout()),
		plugin.WithLogger(logger),
		plugin.WithMetrics(s.metrics),
	)
	if err != nil {
		return nil, err
	}
	s.plugin = p

	parser, err := hostlog.NewParser(patterns(cfg.Server))
	if err != nil {
		return nil, fmt.Errorf("server log patterns: %w", err)
	}
	s.tailer = hostlog.NewTailer(cfg.ServerLogPath(), parser, events{s},
		hostlog.WithLogger(logger.Named("hostlog")),
		hostlog.WithMetrics(s.metrics),
		hostlog.WithPollInterval(s.pollInterval),
	)

	if cfg.Server.ReplayLog {
		err = s.tailer.Replay()
	} else {
		err = s.tailer.SkipToEnd()
	}
	if err != nil {
		logger.Warn("Could not read server log", zap.String("path", cfg.ServerLogPath()), zap.Error(err))
	}
	return s, nil
}

func patterns(c config.ServerConfig) hostlog.Patterns {
	p := hostlog.DefaultPatterns()
	if c.JoinPattern != "" {
		p.Join = c.JoinPattern
	}
	if c.LeavePattern != "" {
		p.Leave = c.LeavePattern
	}
	if c.RejectPattern != "" {
		p.Reject = c.RejectPattern
	}
	if c.ResetPattern != "" {
		p.Reset = c.ResetPattern
	}
	return p
}

// Whitelist implements plugin.Host.
func (s *Sidecar) Whitelist() (whitelist.Gateway, error) {
	if s.gatewayErr != nil {
		return nil, s.gatewayErr
	}
	return s.gateway, nil
}

// Presence implements plugin.Host.
func (s *Sidecar) Presence() identity.Resolver {
	return s.presence
}

// Plugin returns the activated plugin.
func (s *Sidecar) Plugin() *plugin.Plugin { return s.plugin }

// Online returns the player registry.
func (s *Sidecar) Online() *presence.Registry { return s.presence }

// Registry returns the metrics registry.
func (s *Sidecar) Registry() *prometheus.Registry { return s.registry }

// Changes signals after the whitelist, presence or attempt log changed
// outside a session. Signals coalesce.
func (s *Sidecar) Changes() <-chan struct{} { return s.changes }

func (s *Sidecar) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Run follows the whitelist file and server log, and serves status when
// metrics are enabled, until ctx is cancelled or a component fails.
func (s *Sidecar) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.gateway.Watch(ctx) })
	g.Go(func() error { return s.tailer.Run(ctx) })

	if s.cfg.Metrics.Enabled {
		srv := server.New(s.cfg.Metrics.Addr,
			server.WithAttempts(s.plugin.Attempts()),
			server.WithWhitelist(s.gateway, s.presence),
			server.WithGatherer(s.registry),
			server.WithLogger(s.logger.Named("status")),
		)
		g.Go(func() error { return srv.Run(ctx) })
	}

	return g.Wait()
}

// =============================================================================
// LOG EVENTS
// =============================================================================

// events routes server log events to presence and the rejection listener.
type events struct{ s *Sidecar }

func (e events) PlayerJoined(id identity.ID, name, address string) {
	e.s.presence.Join(presence.Player{ID: id, Name: name, Address: address})
	e.s.notify()
}

func (e events) PlayerLeft(id identity.ID) {
	e.s.presence.Leave(id)
	e.s.notify()
}

func (e events) ConnectionRejected(id identity.ID, name, address, reason string) {
	if e.s.plugin.Listener().OnConnectionRejected(id, name, address, reason) {
		e.s.notify()
	}
}

func (e events) ServerReset() {
	e.s.presence.Reset()
	e.s.notify()
}
