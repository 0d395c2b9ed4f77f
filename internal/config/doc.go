// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for pgpt.
//
// # Key Types
//
//   - Config: main configuration structure
//   - ServerConfig: PrivateGPT address, timeouts and request rate
//   - UIConfig: theme, layout, markdown and initial surface
//   - ValidateErrors: every validation failure found in one pass
//
// # Configuration Precedence
//
//   - Environment variables (PGPT_*), including those from ./.env
//   - ~/.pgpt/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg := config.Global()
//	client := privategpt.NewClientWithConfig(&privategpt.ClientConfig{
//	    BaseURL: cfg.Server.URL,
//	    Timeout: cfg.Server.Timeout(),
//	})
//
//	_ = cfg.Set("ui.theme", "light")
//	_ = config.Save(cfg)
package config
