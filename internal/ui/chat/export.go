// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/pgpt-tui/internal/export"
)

// ExportDoneMsg reports a finished transcript export.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// exportCmd writes the current session as a transcript in the configured
// format.
func (m Model) exportCmd() tea.Cmd {
	st := m.deps.Session.Snapshot()
	format := m.deps.ExportFormat
	if format == "" {
		format = "md"
	}
	opts := export.DefaultOptions()
	if m.deps.ExportDir != "" {
		opts.OutputDir = m.deps.ExportDir
	}

	return func() tea.Msg {
		exporter, err := export.ForFormat(format, opts)
		if err != nil {
			return ExportDoneMsg{Err: err}
		}
		path, err := export.ExportToFile(export.FromSession(st), exporter, opts)
		return ExportDoneMsg{Path: path, Err: err}
	}
}

func (m Model) handleExportDone(msg ExportDoneMsg) (Model, tea.Cmd) {
	switch {
	case errors.Is(msg.Err, export.ErrEmptyTranscript):
		return m, m.alert.Notice("Nothing to export yet")
	case msg.Err != nil:
		m.deps.Log().Warn("export failed", zap.Error(msg.Err))
		m.alert.Error("Export failed: " + msg.Err.Error())
		return m, nil
	}
	m.deps.Log().Info("exported transcript", zap.String("path", msg.Path))
	return m, m.alert.Notice("Exported to " + msg.Path)
}
