// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pgpt-tui/internal/gateway"
	"github.com/jeranaias/pgpt-tui/internal/session"
	"github.com/jeranaias/pgpt-tui/internal/ui/components"
	"github.com/jeranaias/pgpt-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // A request is in flight
)

const noCursor = -1

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat surface.
type Model struct {
	state State
	deps  components.Deps
	theme *styles.Theme
	keys  components.KeyMap

	width  int
	height int

	viewport viewport.Model
	input    textinput.Model
	spinner  components.Spinner
	alert    components.Alert
	picker   components.FilePicker
	help     help.Model
	showHelp bool

	// messages mirrors the session history. rendered is the joined
	// bubbles, offsets the first line of each, bubbles a per-message cache.
	messages []session.Message
	rendered string
	offsets  []int
	bubbles  map[bubbleKey]string
	dirty    bool
	cursor   int

	buffer     *components.StreamingBuffer
	streamText string
	tokenID    uint64
	events     <-chan gateway.Event
	mode       session.Mode
}

type bubbleKey struct {
	id          string
	score       session.Score
	highlighted bool
}

// New creates the chat surface over deps.
func New(deps components.Deps, theme *styles.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask a question, or type a file path and press ctrl+u"
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.CharLimit = 0
	ti.Focus()

	m := Model{
		state:    StateReady,
		deps:     deps,
		theme:    theme,
		keys:     components.DefaultKeyMap(),
		viewport: viewport.New(80, 20),
		input:    ti,
		spinner:  components.NewSpinner(theme),
		alert:    components.NewAlert(theme),
		picker:   components.NewFilePicker(theme),
		help:     components.NewHelp(theme),
		cursor:   noCursor,
		buffer:   components.NewStreamingBuffer(),
		bubbles:  make(map[bubbleKey]string),
		dirty:    true,
	}
	m.loadSession()
	return m
}

// Init loads the file list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(components.RefreshFilesCmd(m.deps.Files), textinput.Blink)
}

// =============================================================================
// ROOT HOOKS
// =============================================================================

// SetTheme rebinds every style to theme.
func (m *Model) SetTheme(theme *styles.Theme) {
	m.theme = theme
	m.input.PromptStyle = theme.InputPrompt
	m.spinner.SetTheme(theme)
	m.alert.SetTheme(theme)
	m.picker.SetTheme(theme)
	m.help = components.NewHelp(theme)
	m.help.Width = m.width
	m.invalidate()
	m.layout()
}

// SetSize resizes the surface.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	m.input.Width = width - 6
	m.help.Width = width
	m.invalidate()
	m.layout()
}

// Reload re-reads the session after another process changed it.
func (m *Model) Reload() {
	m.loadSession()
	m.layout()
}

// Stop cancels the request in flight and discards its partial answer.
func (m *Model) Stop() {
	if m.state != StateStreaming {
		return
	}
	if m.deps.Gateway.IsCurrent(m.tokenID) {
		m.deps.Gateway.Cancel()
	}
	m.endStream()
}

// State returns the current state.
func (m Model) State() State {
	return m.state
}

// Busy reports whether a request is in flight.
func (m Model) Busy() bool {
	return m.state == StateStreaming
}

// Messages returns the displayed history.
func (m Model) Messages() []session.Message {
	return m.messages
}

// =============================================================================
// INTERNAL STATE HELPERS
// =============================================================================

func (m *Model) loadSession() {
	m.messages = m.deps.Session.Messages()
	m.mode = m.deps.Session.Mode(session.SurfaceChat)
	m.picker.SetSelected(m.deps.Session.SelectedFiles())
	if m.cursor >= len(m.messages) {
		m.cursor = noCursor
	}
	m.dirty = true
}

func (m *Model) endStream() {
	m.state = StateReady
	m.tokenID = 0
	m.buffer.Reset()
	m.streamText = ""
	m.spinner.Stop()
	m.dirty = true
}

// invalidate drops every cached bubble.
func (m *Model) invalidate() {
	m.bubbles = make(map[bubbleKey]string)
	m.dirty = true
}

// layout sizes the viewport to whatever the fixed parts leave over and
// refreshes its content.
func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	fixed := lipgloss.Height(m.headerView()) + lipgloss.Height(m.footerView())
	if m.picker.IsOpen() {
		fixed += lipgloss.Height(m.pickerView())
	}
	h := m.height - fixed
	if h < 3 {
		h = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	atBottom := m.viewport.AtBottom()
	if m.dirty {
		m.rendered = m.renderHistory()
		m.dirty = false
	}
	content := m.rendered
	switch {
	case m.state == StateStreaming:
		bubble := components.RenderStreaming(m.theme, m.streamText, m.spinner.View(), m.contentWidth())
		if content != "" {
			content += "\n"
		}
		content += bubble
	case content == "":
		content = components.RenderWelcome(m.theme, m.contentWidth())
	}
	m.viewport.SetContent(content)
	if m.cursor == noCursor && (atBottom || m.state == StateStreaming) {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderHistory() string {
	var b strings.Builder
	m.offsets = m.offsets[:0]
	line := 0
	for i, msg := range m.messages {
		k := bubbleKey{id: msg.ID, score: msg.Score, highlighted: i == m.cursor}
		bubble, ok := m.bubbles[k]
		if !ok {
			bubble = components.RenderMessage(m.theme, m.deps.Markdown, msg, components.MessageOptions{
				Width:       m.contentWidth(),
				Highlighted: k.highlighted,
			})
			m.bubbles[k] = bubble
		}
		if i > 0 {
			b.WriteString("\n")
			line++
		}
		m.offsets = append(m.offsets, line)
		b.WriteString(bubble)
		line += lipgloss.Height(bubble)
	}
	return b.String()
}

// renderStream re-renders the visible part of the streamed answer.
func (m *Model) renderStream() {
	text := m.buffer.Text()
	if text == "" {
		m.streamText = ""
		return
	}
	m.streamText = m.deps.Markdown.Render(text, components.BubbleTextWidth(m.theme, m.contentWidth()), m.theme.IsDark())
}

func (m Model) contentWidth() int {
	w := m.width - 2
	if w < 20 {
		w = 20
	}
	return w
}
