// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package whitelist defines the contract wlctl uses to read and change the
// server's whitelist, plus two implementations.
//
// # Key Types
//
//   - Gateway: Enabled flag and identity set owned by the host
//   - FileGateway: Gateway over the server's whitelist.json file
//   - Memory: In-process Gateway for embedding and tests
//
// # Usage
//
//	gw, err := whitelist.OpenFile("/srv/game/whitelist.json",
//	    whitelist.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	changed, err := whitelist.Add(gw, id)
//
// # Concurrency
//
// Modify is atomic. FileGateway serialises writers inside the process with
// a mutex and across processes with an advisory lock on "<file>.lock", and
// re-reads the file under that lock so edits made by the server are not
// overwritten.
package whitelist
