// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across pgpt-tui.
//
// # Key Functions
//
// Display width:
//   - StringWidth, TruncateWidth, PadRight: terminal-cell aware string sizing
//
// Names:
//   - NormalizeName: canonical (NFC) form of an ingested file name
//
// Files:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	label := util.TruncateWidth(entry.FileName, 24)
//	if util.NormalizeName(a) == util.NormalizeName(b) { ... }
//	err := util.AtomicWriteFile(path, data, 0644)
package util
