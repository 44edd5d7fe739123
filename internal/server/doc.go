// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides a read-only HTTP status endpoint for wlctl.
//
// # Endpoints
//
//   - GET /health    - Liveness and attempt log health
//   - GET /attempts  - Pending connection attempts, newest first
//   - GET /whitelist - Whitelist state with online markers
//   - GET /metrics   - Prometheus metrics
//
// Nothing here mutates state. Whitelist changes go through a management
// session.
//
// # Usage
//
//	srv := server.New("127.0.0.1:9464",
//		server.WithAttempts(store),
//		server.WithWhitelist(gateway, registry),
//		server.WithGatherer(reg),
//	)
//	err := srv.Run(ctx)
package server
