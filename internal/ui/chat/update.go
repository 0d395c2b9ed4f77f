// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/pgpt-tui/internal/gateway"
	"github.com/jeranaias/pgpt-tui/internal/session"
	"github.com/jeranaias/pgpt-tui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

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
		if msg.Surface != session.SurfaceChat {
			return m, nil
		}
		m, cmd = m.handleStreamEvent(msg)

	case components.StreamTickMsg:
		if msg.Surface != session.SurfaceChat {
			return m, nil
		}
		m, cmd = m.handleStreamTick()

	case components.FilesLoadedMsg:
		m = m.handleFilesLoaded(msg)

	case components.UploadDoneMsg:
		m, cmd = m.handleUploadDone(msg)

	case components.DeleteDoneMsg:
		m, cmd = m.handleDeleteDone(msg)

	case components.CopiedMsg:
		cmd = m.alert.Notice(fmt.Sprintf("Copied %d characters", msg.Chars))

	case components.AlertExpiredMsg:
		m.alert = m.alert.Update(msg)

	case ExportDoneMsg:
		m, cmd = m.handleExportDone(msg)

	default:
		m.spinner, cmd = m.spinner.Update(msg)
	}

	m.layout()
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

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
	case key.Matches(msg, m.keys.ToggleFiles):
		m.picker.Toggle()
		return m, nil
	case key.Matches(msg, m.keys.Upload):
		return m.upload()
	case key.Matches(msg, m.keys.Refresh):
		return m, components.RefreshFilesCmd(m.deps.Files)
	case key.Matches(msg, m.keys.Copy):
		return m.copyAnswer()
	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()
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
			return m.deleteFile()
		}
	} else {
		switch {
		case key.Matches(msg, m.keys.Up):
			m.moveCursor(-1)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.moveCursor(1)
			return m, nil
		case m.cursor != noCursor && key.Matches(msg, m.keys.ScoreUp):
			return m.score(session.ScorePositive)
		case m.cursor != noCursor && key.Matches(msg, m.keys.ScoreDown):
			return m.score(session.ScoreNegative)
		}
	}

	// Typing leaves history navigation.
	if msg.Type == tea.KeyRunes && m.cursor != noCursor {
		m.setCursor(noCursor)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleEscape() (Model, tea.Cmd) {
	switch {
	case m.state == StateStreaming:
		m.Stop()
		return m, m.alert.Notice("Stopped")
	case m.alert.Visible():
		m.alert.Dismiss()
	case m.cursor != noCursor:
		m.setCursor(noCursor)
	case m.picker.IsOpen():
		m.picker.Toggle()
	}
	return m, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (m Model) submit() (Model, tea.Cmd) {
	if m.state == StateStreaming {
		return m, nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if err := m.deps.Session.AppendMessage(session.NewMessage(session.RoleUser, text)); err != nil {
		m.alert.Error("Could not save the message: " + err.Error())
		return m, nil
	}
	m.input.Reset()
	m.alert.Dismiss()
	m.setCursor(noCursor)

	snap := m.deps.Session.Snapshot()
	m.messages = snap.Messages
	m.mode = snap.Mode(session.SurfaceChat)
	m.dirty = true

	req := gateway.Request{
		Surface:      session.SurfaceChat,
		Mode:         m.mode,
		History:      snap.Messages,
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

	label := "Thinking"
	if m.mode == session.ModeSearch {
		label = "Searching"
	}
	return m, tea.Batch(
		components.WaitForEvent(session.SurfaceChat, tok.ID(), m.events),
		m.spinner.Start(label),
		components.StreamTickCmd(session.SurfaceChat),
	)
}

func (m Model) handleStreamEvent(msg components.StreamEventMsg) (Model, tea.Cmd) {
	next := msg.Next()

	if msg.TokenID != m.tokenID || m.state != StateStreaming {
		// Stale request; keep draining so its goroutine can finish.
		return m, next
	}
	if msg.Closed {
		// Closed without a final event: cancelled from elsewhere.
		m.endStream()
		return m, nil
	}

	ev := msg.Event
	switch ev.Kind {
	case gateway.EventDelta:
		m.buffer.Write(ev.Delta)

	case gateway.EventDone:
		answer := session.NewAssistantMessage(ev.Result.Text, ev.Result.Sources)
		if err := m.deps.Session.AppendMessage(answer); err != nil {
			m.alert.Error("Could not save the answer: " + err.Error())
		}
		m.endStream()
		m.messages = m.deps.Session.Messages()

	case gateway.EventError:
		m.deps.Log().Debug("chat request failed", zap.Error(ev.Err))
		m.alert.Error(components.DescribeError(ev.Err))
		m.endStream()
	}
	return m, next
}

func (m Model) handleStreamTick() (Model, tea.Cmd) {
	if m.state != StateStreaming {
		return m, nil
	}
	if m.buffer.Flush() {
		m.renderStream()
	}
	return m, components.StreamTickCmd(session.SurfaceChat)
}

// =============================================================================
// SESSION ACTIONS
// =============================================================================

func (m Model) clear() (Model, tea.Cmd) {
	// Cancel first so no delta of the old answer lands after the clear.
	m.Stop()
	if err := m.deps.Session.Clear(); err != nil {
		m.alert.Error("Could not clear the chat: " + err.Error())
		return m, nil
	}
	m.cursor = noCursor
	m.alert.Dismiss()
	m.loadSession()
	m.viewport.GotoTop()
	return m, nil
}

func (m Model) cycleMode() (Model, tea.Cmd) {
	next := session.SurfaceChat.NextMode(m.mode)
	if err := m.deps.Session.SetMode(session.SurfaceChat, next); err != nil {
		m.alert.Error(err.Error())
		return m, nil
	}
	m.mode = next
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	n := len(m.messages)
	if n == 0 {
		return
	}
	cur := m.cursor
	switch {
	case cur == noCursor && delta < 0:
		cur = n - 1
	case cur == noCursor:
		return
	default:
		cur += delta
	}
	if cur < 0 {
		cur = 0
	}
	if cur >= n {
		cur = noCursor
	}
	m.setCursor(cur)
}

func (m *Model) setCursor(cur int) {
	if cur == m.cursor {
		return
	}
	m.cursor = cur
	m.dirty = true
	if cur == noCursor {
		m.viewport.GotoBottom()
		return
	}
	m.refreshViewport()
	if cur < len(m.offsets) {
		m.viewport.SetYOffset(m.offsets[cur])
	}
}

func (m Model) score(s session.Score) (Model, tea.Cmd) {
	err := m.deps.Session.SetScore(m.cursor, s)
	switch {
	case errors.Is(err, session.ErrNotAssistant):
		return m, m.alert.Notice("Only answers can be scored")
	case err != nil:
		m.alert.Error("Could not save the score: " + err.Error())
		return m, nil
	}
	m.messages = m.deps.Session.Messages()
	m.dirty = true
	return m, nil
}

func (m Model) copyAnswer() (Model, tea.Cmd) {
	var text string
	if m.cursor != noCursor && m.cursor < len(m.messages) && m.messages[m.cursor].Role == session.RoleAssistant {
		text = m.messages[m.cursor].Content
	} else {
		for i := len(m.messages) - 1; i >= 0; i-- {
			if m.messages[i].Role == session.RoleAssistant {
				text = m.messages[i].Content
				break
			}
		}
	}
	if text == "" {
		return m, m.alert.Notice("No answer to copy")
	}
	return m, components.CopyCmd(text, m.deps.Log())
}

// =============================================================================
// FILES
// =============================================================================

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
	path := components.CleanPath(m.input.Value())
	if path == "" {
		m.alert.Error("Type the path of a file to upload, then press ctrl+u")
		return m, nil
	}
	m.input.Reset()
	m.picker.SetUploading(true)
	return m, components.UploadCmd(m.deps.Files, path)
}

func (m Model) deleteFile() (Model, tea.Cmd) {
	name, ok := m.picker.Current()
	if !ok {
		return m, nil
	}
	return m, tea.Batch(
		m.alert.Notice("Deleting "+name),
		components.DeleteCmd(m.deps.Files, name),
	)
}

func (m Model) handleFilesLoaded(msg components.FilesLoadedMsg) Model {
	if msg.Err != nil {
		m.alert.Error(components.DescribeError(msg.Err))
		m.picker.SetEntries(m.deps.Files.Entries())
	} else {
		m.picker.SetEntries(msg.Entries)
	}
	m.picker.SetSelected(m.deps.Session.SelectedFiles())
	m.picker.SetUploading(m.deps.Files.Uploading())
	return m
}

func (m Model) handleUploadDone(msg components.UploadDoneMsg) (Model, tea.Cmd) {
	refresh := components.RefreshFilesCmd(m.deps.Files)
	if msg.Err != nil {
		m.alert.Error(components.DescribeError(msg.Err))
		return m, refresh
	}
	return m, tea.Batch(m.alert.Notice("Uploaded "+filepath.Base(msg.Path)), refresh)
}

func (m Model) handleDeleteDone(msg components.DeleteDoneMsg) (Model, tea.Cmd) {
	m.picker.SetSelected(m.deps.Session.SelectedFiles())
	refresh := components.RefreshFilesCmd(m.deps.Files)
	if msg.Err != nil {
		m.alert.Error(components.DescribeError(msg.Err))
		return m, refresh
	}
	return m, tea.Batch(m.alert.Notice("Deleted "+msg.Name), refresh)
}
