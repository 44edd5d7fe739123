// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jeranaias/wlctl/internal/attempt"
	"github.com/jeranaias/wlctl/internal/identity"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:9464"

	// ShutdownTimeout bounds graceful shutdown in Run.
	ShutdownTimeout = 5 * time.Second
)

// Version is reported by /health. Set by main.
var Version = "dev"

// ============================================================================
// SOURCES
// ============================================================================

// AttemptSource is the attempt log as seen by the status endpoint.
type AttemptSource interface {
	List() []attempt.Record
	Capacity() int
	Err() error
}

// WhitelistSource is the whitelist as seen by the status endpoint.
type WhitelistSource interface {
	Enabled() bool
	Identities() identity.Set
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the HTTP status server.
type Server struct {
	addr     string
	router   *http.ServeMux
	server   *http.Server
	logger   *zap.Logger
	gatherer prometheus.Gatherer
	started  time.Time
	now      func() time.Time

	attempts AttemptSource
	list     WhitelistSource
	online   identity.Resolver

	mu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithAttempts exposes the attempt log.
func WithAttempts(src AttemptSource) Option {
	return func(s *Server) { s.attempts = src }
}

// WithWhitelist exposes the whitelist. online may be nil.
func WithWhitelist(src WhitelistSource, online identity.Resolver) Option {
	return func(s *Server) {
		s.list = src
		s.online = online
	}
}

// WithGatherer sets the metrics source. Defaults to the global registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Server listening on addr. An empty addr uses DefaultAddr.
func New(addr string, opts ...Option) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	s := &Server{
		addr:     addr,
		router:   http.NewServeMux(),
		logger:   zap.NewNop(),
		gatherer: prometheus.DefaultGatherer,
		started:  time.Now(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /attempts", s.handleAttempts)
	s.router.HandleFunc("GET /whitelist", s.handleWhitelist)
	s.router.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.logger),
	)(s.router)
}

// ============================================================================
// HANDLERS
// ============================================================================

// HealthResponse is the /health body.
type HealthResponse struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	WhitelistEnabled *bool  `json:"whitelist_enabled,omitempty"`
	Pending          int    `json:"pending"`
	AttemptLogError  string `json:"attempt_log_error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:        "ok",
		Version:       Version,
		UptimeSeconds: int64(s.now().Sub(s.started).Seconds()),
	}
	if s.list != nil {
		enabled := s.list.Enabled()
		health.WhitelistEnabled = &enabled
	}
	if s.attempts != nil {
		health.Pending = len(s.attempts.List())
		if err := s.attempts.Err(); err != nil {
			health.Status = "degraded"
			health.AttemptLogError = err.Error()
		}
	}
	s.writeJSON(w, http.StatusOK, health)
}

// AttemptsResponse is the /attempts body.
type AttemptsResponse struct {
	Capacity int               `json:"capacity"`
	Count    int               `json:"count"`
	Attempts []attempt.Summary `json:"attempts"`
}

func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	if s.attempts == nil {
		s.writeError(w, http.StatusNotFound, "attempt log not attached")
		return
	}
	now := s.now()
	recs := s.attempts.List()
	resp := AttemptsResponse{
		Capacity: s.attempts.Capacity(),
		Count:    len(recs),
		Attempts: make([]attempt.Summary, 0, len(recs)),
	}
	for _, rec := range recs {
		resp.Attempts = append(resp.Attempts, rec.Summarize(now))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// WhitelistEntry is one player in the /whitelist body.
type WhitelistEntry struct {
	UUID   string `json:"uuid"`
	Name   string `json:"name,omitempty"`
	Online bool   `json:"online"`
}

// WhitelistResponse is the /whitelist body.
type WhitelistResponse struct {
	Enabled bool             `json:"enabled"`
	Count   int              `json:"count"`
	Players []WhitelistEntry `json:"players"`
}

func (s *Server) handleWhitelist(w http.ResponseWriter, r *http.Request) {
	if s.list == nil {
		s.writeError(w, http.StatusNotFound, "whitelist not attached")
		return
	}
	ids := s.list.Identities().Sorted()
	resp := WhitelistResponse{
		Enabled: s.list.Enabled(),
		Count:   len(ids),
		Players: make([]WhitelistEntry, 0, len(ids)),
	}
	for _, id := range ids {
		entry := WhitelistEntry{UUID: id.String()}
		if s.online != nil {
			entry.Name, entry.Online = s.online.FindOnline(r.Context(), id)
		}
		resp.Players = append(resp.Players, entry)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

func (s *Server) httpServer() *http.Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.server
}

func (s *Server) serve(srv *http.Server, ln net.Listener) error {
	s.logger.Info("Status server listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.serve(s.httpServer(), ln)
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	srv := s.httpServer()
	errCh := make(chan error, 1)
	go func() { errCh <- s.serve(srv, ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Info("Status server shutting down")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("Failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"code":    status,
		},
	})
}
