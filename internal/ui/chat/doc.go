// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the chat surface of the pgpt TUI.

The surface shows the conversation held by the session store, streams new
answers through the completion gateway and manages the file selection that
scopes "Query docs" and "Search files".

# Key Types

  - Model: the Bubble Tea model for the surface
  - State: ready or streaming

# Usage

	m := chat.New(deps, theme)
	p := tea.NewProgram(m)

The root model normally owns the surface and forwards window sizes, theme
changes and storage reloads through SetSize, SetTheme and Reload.
*/
package chat
