// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for deskshell.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, validation and live reload.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - ShellConfig: Prompt, history and scrollback sizes, locale
//   - StorageConfig: Persistence backend for history and aliases
//   - Watcher: Reloads the config file when it changes
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (DESKSHELL_*)
//   - ~/.deskshell/config.toml
//   - ~/.deskshell/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	go config.Watch(ctx, path, func(cfg *config.Config, err error) {
//	    // apply cfg.Aliases
//	})
package config
