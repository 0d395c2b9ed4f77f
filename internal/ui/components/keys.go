// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the key bindings of both surfaces. Bindings a surface does
// not use are simply never matched there.
type KeyMap struct {
	Submit      key.Binding
	Stop        key.Binding
	Clear       key.Binding
	CycleMode   key.Binding
	ToggleFiles key.Binding
	ToggleFile  key.Binding
	Upload      key.Binding
	DeleteFile  key.Binding
	Refresh     key.Binding
	Copy        key.Binding
	ScoreUp     key.Binding
	ScoreDown   key.Binding
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	FocusNext   key.Binding
	ToggleDark  key.Binding
	Export      key.Binding
	Surface     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Stop: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "stop"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "clear"),
		),
		CycleMode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "mode"),
		),
		ToggleFiles: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("C-f", "files"),
		),
		ToggleFile: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "select file"),
		),
		Upload: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("C-u", "upload path"),
		),
		DeleteFile: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("C-d", "delete file"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "reload files"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "copy"),
		),
		ScoreUp: key.NewBinding(
			key.WithKeys("+"),
			key.WithHelp("+", "good answer"),
		),
		ScoreDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "bad answer"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("up", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("down", "next"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "page down"),
		),
		FocusNext: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "next field"),
		),
		ToggleDark: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "dark/light"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "export"),
		),
		Surface: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("C-p", "chat/playground"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// =============================================================================
// HELP TEXT
// =============================================================================

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.CycleMode, k.ToggleFiles, k.Surface, k.Help}
}

// FullHelp returns every binding grouped by concern.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Stop, k.Clear, k.CycleMode, k.FocusNext},
		{k.ToggleFiles, k.ToggleFile, k.Upload, k.DeleteFile, k.Refresh},
		{k.Up, k.Down, k.ScoreUp, k.ScoreDown, k.Copy},
		{k.PageUp, k.PageDown, k.ToggleDark, k.Export, k.Surface, k.Quit},
	}
}
