// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-interactive
// commands of pgpt.
//
// # Key Types
//
//   - Command: enumeration of the available commands
//   - Args: parsed global and command-specific flags
//   - Env: the configuration, logger, storage and PrivateGPT client a
//     command runs against
//
// # Usage
//
//	cmd, args := cli.Parse()
//	if cmd == cli.CmdTUI {
//	    os.Exit(runTUI(args))
//	}
//	os.Exit(cli.Execute(cmd, args))
//
// # Commands Overview
//
//   - tui: the interactive chat and playground (default)
//   - ask: one-shot question
//   - files: list, upload or delete ingested files
//   - health: probe the service
//   - config: show, get or set configuration values
//   - export: write the chat transcript to a file
//   - version
//
// The files, health and version commands accept --json.
package cli
