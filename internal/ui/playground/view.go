// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package playground

import (
	"strings"

	"github.com/jeranaias/pgpt-tui/internal/session"
	"github.com/jeranaias/pgpt-tui/internal/ui/components"
)

const pickerRows = 5

// View renders the playground.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	parts := []string{m.headerView(), m.inputsView(), m.viewport.View()}
	if m.picker.IsOpen() {
		parts = append(parts, m.pickerView())
	}
	parts = append(parts, m.footerView())
	return strings.Join(parts, "\n")
}

func (m Model) headerView() string {
	modes := components.RenderModes(m.theme, session.SurfacePlayground, m.mode, m.contentWidth())
	if m.theme.Appearance.Compact {
		return modes
	}
	return m.theme.Header.Width(m.width).Render("PrivateGPT Playground") + "\n" + modes
}

func (m Model) inputsView() string {
	box := m.theme.InputContainer.Width(m.width)
	return box.Render(m.system.View()) + "\n" + box.Render(m.prompt.View())
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
	info := components.StatusInfo{
		Surface:  session.SurfacePlayground,
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
	b.WriteString(components.RenderStatusBar(m.theme, info, m.width))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
