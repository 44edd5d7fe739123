// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for wlctl.
//
// Configuration is read from a TOML file, falls back to built-in defaults
// and accepts environment overrides.
//
// Configuration file location:
//   - ~/.wlctl/config.toml
//   - Built-in defaults
//
// # Key Types
//
//   - Config: The complete configuration
//   - ValidationError, ValidateErrors: Field-level validation failures
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	store := attempt.NewStore(attempt.WithPath(cfg.AttemptsPath()))
//
// # Environment Overrides
//
// Every key can be overridden with WLCTL_<SECTION>_<KEY>:
//
//	WLCTL_SERVER_DIR=/srv/game
//	WLCTL_ATTEMPTS_CAPACITY=100
//	WLCTL_LOG_LEVEL=debug
package config
