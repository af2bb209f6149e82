// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for worknote.
//
// Configuration is TOML with sensible defaults, `.env` support for API keys,
// environment variable overrides, validation and live reload.
//
// Configuration sources (later wins):
//   - Built-in defaults
//   - ~/.worknote/config.toml (or the path given with --config)
//   - .env in the working directory and in ~/.worknote
//   - Environment variables (HF_TOKEN, ANTHROPIC_API_KEY, WORKNOTE_*)
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	stop, err := config.Watch(ctx, path, func(c *config.Config) { ... })
package config
