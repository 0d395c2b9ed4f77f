// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns assistant text into terminal output.
//
// Markdown goes through glamour with the dark or light standard style.
// With markdown disabled, text is printed as is except fenced code blocks,
// which chroma highlights.
package render
