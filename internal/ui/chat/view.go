// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/jeranaias/pgpt-tui/internal/session"
	"github.com/jeranaias/pgpt-tui/internal/ui/components"
)

// pickerRows is the number of file lines shown at once.
const pickerRows = 6

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat surface.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	parts := []string{m.headerView(), m.viewport.View()}
	if m.picker.IsOpen() {
		parts = append(parts, m.pickerView())
	}
	parts = append(parts, m.footerView())
	return strings.Join(parts, "\n")
}

func (m Model) headerView() string {
	modes := components.RenderModes(m.theme, session.SurfaceChat, m.mode, m.contentWidth())
	if m.theme.Appearance.Compact {
		return modes
	}
	return m.theme.Header.Width(m.width).Render("PrivateGPT Chat") + "\n" + modes
}

func (m Model) pickerView() string {
	return m.picker.View(m.width, pickerRows, m.mode.UsesFiles())
}

func (m Model) footerView() string {
	var b strings.Builder
	if m.alert.Visible() {
		b.WriteString(m.alert.View(m.width))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.InputContainer.Width(m.width).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(components.RenderStatusBar(m.theme, m.statusInfo(), m.width))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) statusInfo() components.StatusInfo {
	info := components.StatusInfo{
		Surface:  session.SurfaceChat,
		Mode:     m.mode,
		Selected: m.picker.SelectedCount(),
		BaseURL:  m.deps.Session.BaseURL(),
		Status:   components.StatusReady,
	}
	switch {
	case m.state == StateStreaming && m.mode == session.ModeSearch:
		info.Status = components.StatusSearching
	case m.state == StateStreaming:
		info.Status = components.StatusStreaming
	case m.alert.IsError():
		info.Status = components.StatusError
	}
	return info
}
