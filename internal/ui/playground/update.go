// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package playground

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/pgpt-tui/internal/gateway"
	"github.com/jeranaias/pgpt-tui/internal/session"
	"github.com/jeranaias/pgpt-tui/internal/ui/components"
)

// Update handles messages and user input.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		m, cmd = m.handleKey(msg)

	case components.StreamEventMsg:
		if msg.Surface != session.SurfacePlayground {
			return m, nil
		}
		m, cmd = m.handleStreamEvent(msg)

	case components.StreamTickMsg:
		if msg.Surface != session.SurfacePlayground {
			return m, nil
		}
		if m.state == StateStreaming {
			if m.buffer.Flush() {
				m.renderStream()
			}
			cmd = components.StreamTickCmd(session.SurfacePlayground)
		}

	case components.FilesLoadedMsg:
		if msg.Err != nil {
			m.alert.Error(components.DescribeError(msg.Err))
			m.picker.SetEntries(m.deps.Files.Entries())
		} else {
			m.picker.SetEntries(msg.Entries)
		}
		m.picker.SetSelected(m.deps.Session.SelectedFiles())
		m.picker.SetUploading(m.deps.Files.Uploading())

	case components.UploadDoneMsg:
		refresh := components.RefreshFilesCmd(m.deps.Files)
		if msg.Err != nil {
			m.alert.Error(components.DescribeError(msg.Err))
			cmd = refresh
		} else {
			cmd = tea.Batch(m.alert.Notice("Uploaded "+filepath.Base(msg.Path)), refresh)
		}

	case components.DeleteDoneMsg:
		m.picker.SetSelected(m.deps.Session.SelectedFiles())
		refresh := components.RefreshFilesCmd(m.deps.Files)
		if msg.Err != nil {
			m.alert.Error(components.DescribeError(msg.Err))
			cmd = refresh
		} else {
			cmd = tea.Batch(m.alert.Notice("Deleted "+msg.Name), refresh)
		}

	case components.CopiedMsg:
		cmd = m.alert.Notice(fmt.Sprintf("Copied %d characters", msg.Chars))

	case components.AlertExpiredMsg:
		m.alert = m.alert.Update(msg)

	default:
		m.spinner, cmd = m.spinner.Update(msg)
	}

	m.layout()
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Stop):
		return m.handleEscape()
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Clear):
		return m.clear()
	case key.Matches(msg, m.keys.CycleMode):
		return m.cycleMode()
	case key.Matches(msg, m.keys.FocusNext):
		return m.switchFocus()
	case key.Matches(msg, m.keys.ToggleFiles):
		m.picker.Toggle()
		return m, nil
	case key.Matches(msg, m.keys.Upload):
		return m.upload()
	case key.Matches(msg, m.keys.Refresh):
		return m, components.RefreshFilesCmd(m.deps.Files)
	case key.Matches(msg, m.keys.Copy):
		if m.completion == "" {
			return m, m.alert.Notice("No completion to copy")
		}
		return m, components.CopyCmd(m.completion, m.deps.Log())
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	}

	if m.picker.IsOpen() {
		switch {
		case key.Matches(msg, m.keys.Up):
			m.picker.MoveUp()
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.picker.MoveDown()
			return m, nil
		case key.Matches(msg, m.keys.ToggleFile):
			return m.toggleFile()
		case key.Matches(msg, m.keys.DeleteFile):
			name, ok := m.picker.Current()
			if !ok {
				return m, nil
			}
			return m, tea.Batch(m.alert.Notice("Deleting "+name), components.DeleteCmd(m.deps.Files, name))
		}
	} else {
		switch {
		case key.Matches(msg, m.keys.Up):
			m.viewport.LineUp(1)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.viewport.LineDown(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focus == FieldSystem {
		m.system, cmd = m.system.Update(msg)
	} else {
		m.prompt, cmd = m.prompt.Update(msg)
	}
	return m, cmd
}

func (m Model) handleEscape() (Model, tea.Cmd) {
	switch {
	case m.state == StateStreaming:
		m.Stop()
		return m, m.alert.Notice("Stopped")
	case m.alert.Visible():
		m.alert.Dismiss()
	case m.picker.IsOpen():
		m.picker.Toggle()
	}
	return m, nil
}

// switchFocus moves between the prompt and the system prompt. Leaving the
// system prompt stores it.
func (m Model) switchFocus() (Model, tea.Cmd) {
	if m.focus == FieldSystem {
		m.saveSystemPrompt()
		m.setFocus(FieldPrompt)
	} else {
		m.setFocus(FieldSystem)
	}
	return m, textinput.Blink
}

func (m *Model) saveSystemPrompt() {
	text := strings.TrimSpace(m.system.Value())
	if text == m.deps.Session.Snapshot().SystemPrompt {
		return
	}
	if err := m.deps.Session.SetSystemPrompt(text); err != nil {
		m.alert.Error("Could not save the system prompt: " + err.Error())
	}
}

// =============================================================================
// REQUESTS
// =============================================================================

func (m Model) submit() (Model, tea.Cmd) {
	if m.state == StateStreaming {
		return m, nil
	}
	prompt := strings.TrimSpace(m.prompt.Value())
	if prompt == "" {
		if m.focus == FieldSystem {
			m.saveSystemPrompt()
			m.setFocus(FieldPrompt)
		}
		return m, nil
	}
	m.saveSystemPrompt()
	if err := m.deps.Session.SetPlaygroundSources(nil); err != nil {
		m.deps.Log().Warn("clear playground sources", zap.Error(err))
	}
	m.alert.Dismiss()
	m.completion = ""
	m.sources = nil

	snap := m.deps.Session.Snapshot()
	m.mode = snap.Mode(session.SurfacePlayground)
	req := gateway.Request{
		Surface:      session.SurfacePlayground,
		Mode:         m.mode,
		Prompt:       prompt,
		SystemPrompt: snap.SystemPrompt,
	}
	if m.mode.UsesFiles() {
		req.DocIDs = m.deps.Files.DocIDs(snap.SelectedFiles)
	}

	tok := m.deps.Gateway.Begin()
	m.tokenID = tok.ID()
	m.events = m.deps.Gateway.Stream(tok, req)
	m.state = StateStreaming
	m.buffer.Reset()
	m.streamText = ""
	m.dirty = true

	label := "Thinking"
	if m.mode == session.ModeSearch {
		label = "Searching"
	}
	return m, tea.Batch(
		components.WaitForEvent(session.SurfacePlayground, tok.ID(), m.events),
		m.spinner.Start(label),
		components.StreamTickCmd(session.SurfacePlayground),
	)
}

func (m Model) handleStreamEvent(msg components.StreamEventMsg) (Model, tea.Cmd) {
	next := msg.Next()
	if msg.TokenID != m.tokenID || m.state != StateStreaming {
		return m, next
	}
	if msg.Closed {
		m.endStream()
		return m, nil
	}

	ev := msg.Event
	switch ev.Kind {
	case gateway.EventDelta:
		m.buffer.Write(ev.Delta)
	case gateway.EventDone:
		m.completion = ev.Result.Text
		m.sources = ev.Result.Sources
		if err := m.deps.Session.SetPlaygroundSources(ev.Result.Sources); err != nil {
			m.alert.Error("Could not save the sources: " + err.Error())
		}
		m.endStream()
		m.viewport.GotoTop()
	case gateway.EventError:
		m.deps.Log().Debug("playground request failed", zap.Error(ev.Err))
		m.alert.Error(components.DescribeError(ev.Err))
		m.endStream()
	}
	return m, next
}

// =============================================================================
// SESSION ACTIONS
// =============================================================================

// clear drops the completion and its stored sources.
func (m Model) clear() (Model, tea.Cmd) {
	m.Stop()
	if err := m.deps.Session.SetPlaygroundSources(nil); err != nil {
		m.alert.Error("Could not clear the sources: " + err.Error())
		return m, nil
	}
	m.completion = ""
	m.sources = nil
	m.prompt.Reset()
	m.dirty = true
	return m, nil
}

func (m Model) cycleMode() (Model, tea.Cmd) {
	next := session.SurfacePlayground.NextMode(m.mode)
	if err := m.deps.Session.SetMode(session.SurfacePlayground, next); err != nil {
		m.alert.Error(err.Error())
		return m, nil
	}
	m.mode = next
	return m, nil
}

func (m Model) toggleFile() (Model, tea.Cmd) {
	name, ok := m.picker.Current()
	if !ok {
		return m, nil
	}
	if _, err := m.deps.Session.ToggleFile(name); err != nil {
		m.alert.Error("Could not update the selection: " + err.Error())
		return m, nil
	}
	m.picker.SetSelected(m.deps.Session.SelectedFiles())
	return m, nil
}

func (m Model) upload() (Model, tea.Cmd) {
	path := components.CleanPath(m.prompt.Value())
	if path == "" {
		m.alert.Error("Type the path of a file to upload, then press ctrl+u")
		return m, nil
	}
	m.prompt.Reset()
	m.picker.SetUploading(true)
	return m, components.UploadCmd(m.deps.Files, path)
}
