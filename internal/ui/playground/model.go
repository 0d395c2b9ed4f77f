// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package playground

import (
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

// State represents the current state of the playground.
type State int

const (
	StateReady State = iota
	StateStreaming
)

// Field identifies an input of the playground.
type Field int

const (
	FieldPrompt Field = iota
	FieldSystem
)

// Model is the Bubble Tea model for the prompt playground.
type Model struct {
	state State
	deps  components.Deps
	theme *styles.Theme
	keys  components.KeyMap

	width  int
	height int

	prompt   textinput.Model
	system   textinput.Model
	focus    Field
	viewport viewport.Model
	spinner  components.Spinner
	alert    components.Alert
	picker   components.FilePicker
	help     help.Model
	showHelp bool

	mode       session.Mode
	completion string
	sources    []session.Citation
	rendered   string
	dirty      bool

	buffer     *components.StreamingBuffer
	streamText string
	tokenID    uint64
	events     <-chan gateway.Event
}

// New creates the playground surface over deps.
func New(deps components.Deps, theme *styles.Theme) Model {
	prompt := textinput.New()
	prompt.Placeholder = "Prompt"
	prompt.Prompt = "> "
	prompt.CharLimit = 0

	system := textinput.New()
	system.Placeholder = "System prompt (optional)"
	system.Prompt = "system: "
	system.CharLimit = 0

	m := Model{
		state:    StateReady,
		deps:     deps,
		theme:    theme,
		keys:     components.DefaultKeyMap(),
		prompt:   prompt,
		system:   system,
		viewport: viewport.New(80, 10),
		spinner:  components.NewSpinner(theme),
		alert:    components.NewAlert(theme),
		picker:   components.NewFilePicker(theme),
		help:     components.NewHelp(theme),
		buffer:   components.NewStreamingBuffer(),
		dirty:    true,
	}
	m.setFocus(FieldPrompt)
	m.loadSession()
	m.system.SetValue(deps.Session.Snapshot().SystemPrompt)
	return m
}

// Init loads the file list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(components.RefreshFilesCmd(m.deps.Files), textinput.Blink)
}

// SetTheme rebinds every style to theme.
func (m *Model) SetTheme(theme *styles.Theme) {
	m.theme = theme
	m.spinner.SetTheme(theme)
	m.alert.SetTheme(theme)
	m.picker.SetTheme(theme)
	m.help = components.NewHelp(theme)
	m.help.Width = m.width
	m.setFocus(m.focus)
	m.dirty = true
	m.layout()
}

// SetSize resizes the surface.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	m.prompt.Width = width - 6
	m.system.Width = width - 12
	m.help.Width = width
	m.dirty = true
	m.layout()
}

// Reload re-reads the session after another process changed it. The
// system prompt is left alone while it is being edited.
func (m *Model) Reload() {
	m.loadSession()
	if m.focus != FieldSystem {
		m.system.SetValue(m.deps.Session.Snapshot().SystemPrompt)
	}
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
func (m Model) State() State { return m.state }

// Busy reports whether a request is in flight.
func (m Model) Busy() bool { return m.state == StateStreaming }

// Focus returns the focused input.
func (m Model) Focus() Field { return m.focus }

// Completion returns the last finished completion.
func (m Model) Completion() string { return m.completion }

func (m *Model) loadSession() {
	snap := m.deps.Session.Snapshot()
	m.mode = snap.Mode(session.SurfacePlayground)
	m.picker.SetSelected(snap.SelectedFiles)
	if m.state != StateStreaming {
		m.sources = snap.PlaygroundSources
	}
	m.dirty = true
}

func (m *Model) setFocus(f Field) {
	m.focus = f
	focused, blurred := &m.prompt, &m.system
	if f == FieldSystem {
		focused, blurred = &m.system, &m.prompt
	}
	focused.Focus()
	focused.PromptStyle = m.theme.InputPrompt
	blurred.Blur()
	blurred.PromptStyle = m.theme.Muted
}

func (m *Model) endStream() {
	m.state = StateReady
	m.tokenID = 0
	m.buffer.Reset()
	m.streamText = ""
	m.spinner.Stop()
	m.dirty = true
}

func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	fixed := lipgloss.Height(m.headerView()) + lipgloss.Height(m.inputsView()) + lipgloss.Height(m.footerView())
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
	width := m.contentWidth()
	switch {
	case m.state == StateStreaming:
		m.viewport.SetContent(components.RenderStreaming(m.theme, m.streamText, m.spinner.View(), width))
		m.viewport.GotoBottom()
		return
	case m.dirty:
		m.rendered = m.renderCompletion(width)
		m.dirty = false
	}
	m.viewport.SetContent(m.rendered)
}

// renderCompletion draws the finished completion, or only the stored
// sources when the completion itself was not kept.
func (m *Model) renderCompletion(width int) string {
	switch {
	case m.completion != "":
		msg := session.NewAssistantMessage(m.completion, m.sources)
		return components.RenderMessage(m.theme, m.deps.Markdown, msg, components.MessageOptions{Width: width})
	case len(m.sources) > 0:
		return components.RenderSources(m.theme, m.sources, width)
	}
	return m.theme.Welcome.Width(width).Render(EmptyText)
}

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

// EmptyText fills the output area before the first completion.
const EmptyText = "Write a prompt and press enter."
