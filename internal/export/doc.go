// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the chat history to a file.
//
// # Key Types
//
//   - Transcript: the exported view of a session
//   - Exporter: format interface (Markdown, JSON, YAML)
//   - Options: output directory and content switches
//
// # Supported Formats
//
//   - Markdown: readable, with YAML frontmatter, sources and scores
//   - JSON: machine-readable, complete
//   - YAML: machine-readable, complete
//
// # Usage
//
//	tr := export.FromSession(store.Snapshot())
//	exp, err := export.ForFormat("md", opts)
//	path, err := export.ExportToFile(tr, exp, opts)
package export
