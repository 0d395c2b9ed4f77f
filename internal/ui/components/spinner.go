// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pgpt-tui/internal/ui/styles"
)

// =============================================================================
// SPINNER
// =============================================================================

// Spinner shows that a request is in flight, with its elapsed time.
type Spinner struct {
	spinner spinner.Model
	theme   *styles.Theme

	message   string
	startTime time.Time
	active    bool
}

// NewSpinner creates an idle spinner with ASCII frames.
func NewSpinner(theme *styles.Theme) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	return Spinner{spinner: s, theme: theme, message: "Thinking"}
}

// SetTheme rebinds the spinner to theme.
func (s *Spinner) SetTheme(theme *styles.Theme) {
	s.theme = theme
}

// Start activates the spinner with message and returns its first tick.
func (s *Spinner) Start(message string) tea.Cmd {
	s.active = true
	s.message = message
	s.startTime = time.Now()
	return s.spinner.Tick
}

// Stop deactivates the spinner.
func (s *Spinner) Stop() {
	s.active = false
}

// IsActive reports whether the spinner is running.
func (s Spinner) IsActive() bool {
	return s.active
}

// Elapsed returns the time since Start.
func (s Spinner) Elapsed() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

// Update advances the animation. Ticks for other spinners are ignored by
// the underlying model.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	if !s.active {
		return s, nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// View renders the spinner line, or nothing when idle.
func (s Spinner) View() string {
	if !s.active {
		return ""
	}
	out := s.theme.Spinner.Render(s.spinner.View()) + " " + s.theme.Muted.Render(s.message+"...")
	if !s.startTime.IsZero() {
		out += s.theme.Muted.Render(" (" + formatElapsed(s.Elapsed()) + ")")
	}
	return out
}
