// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package playground provides the prompt playground surface of the pgpt TUI.

The playground sends one prompt at a time, optionally with a system prompt,
and shows a single completion. A new prompt replaces the previous
completion and clears its stored sources.

# Key Types

  - Model: the Bubble Tea model for the surface
  - Field: which input has focus
*/
package playground
