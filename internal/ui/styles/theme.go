// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds every style, resolved for one Appearance.
type Theme struct {
	Appearance Appearance

	renderer *lipgloss.Renderer

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App    lipgloss.Style
	Header lipgloss.Style
	Title  lipgloss.Style
	Muted  lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	StreamingBubble lipgloss.Style
	MessageCursor   lipgloss.Style
	SourcesLabel    lipgloss.Style
	SourceItem      lipgloss.Style
	ScorePositive   lipgloss.Style
	ScoreNegative   lipgloss.Style
	Welcome         lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	InputLabel     lipgloss.Style
	StatusBar      lipgloss.Style
	ModeActive     lipgloss.Style
	ModeInactive   lipgloss.Style
	ModeDesc       lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style
	Spinner        lipgloss.Style

	// ==========================================================================
	// FILE PANEL STYLES
	// ==========================================================================

	FilePanel        lipgloss.Style
	FileItem         lipgloss.Style
	FileItemSelected lipgloss.Style
	FileCursor       lipgloss.Style
	Uploading        lipgloss.Style

	// ==========================================================================
	// ALERT STYLES
	// ==========================================================================

	ErrorAlert  lipgloss.Style
	NoticeAlert lipgloss.Style
}

// NewTheme builds the styles for a. Adaptive colors resolve against
// a.Dark, not the terminal's background.
func NewTheme(a Appearance) *Theme {
	r := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(a.Profile))
	r.SetColorProfile(a.Profile)
	r.SetHasDarkBackground(a.Dark)

	t := &Theme{Appearance: a, renderer: r}
	t.initStyles()
	return t
}

// Renderer returns the renderer the styles are bound to.
func (t *Theme) Renderer() *lipgloss.Renderer {
	return t.renderer
}

// IsDark reports whether the theme renders for a dark background.
func (t *Theme) IsDark() bool {
	return t.Appearance.Dark
}

func (t *Theme) initStyles() {
	r := t.renderer
	a := t.Appearance

	t.App = r.NewStyle().Padding(0, 1)

	t.Header = r.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Background(SurfaceDim).
		Padding(0, 1)

	t.Title = r.NewStyle().Bold(true).Foreground(Purple)
	t.Muted = r.NewStyle().Foreground(TextMuted)

	// Messages. Compact layout drops the side margins and borders.
	t.UserBubble = r.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		Padding(0, 1)
	t.AssistantBubble = r.NewStyle().
		Foreground(AssistantBubbleFg).
		Padding(0, 1)
	if !a.Compact {
		t.UserBubble = t.UserBubble.
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(UserBubbleBorder).
			MarginLeft(4)
		t.AssistantBubble = t.AssistantBubble.
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(AssistantBubbleBorder).
			MarginRight(4)
	}
	t.StreamingBubble = t.AssistantBubble.BorderForeground(Amber)

	t.MessageCursor = r.NewStyle().Foreground(Cyan).Bold(true)
	t.SourcesLabel = r.NewStyle().Foreground(TextSecondary).Bold(true)
	t.SourceItem = r.NewStyle().Foreground(TextSecondary).PaddingLeft(2)
	t.ScorePositive = r.NewStyle().Foreground(Emerald).Bold(true)
	t.ScoreNegative = r.NewStyle().Foreground(Rose).Bold(true)
	t.Welcome = r.NewStyle().Foreground(TextSecondary).Italic(true).Padding(1, 2)

	// Input and status
	t.InputContainer = r.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)
	t.InputPrompt = r.NewStyle().Foreground(Cyan).Bold(true)
	t.InputLabel = r.NewStyle().Foreground(TextSecondary)
	t.StatusBar = r.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.ModeActive = r.NewStyle().
		Foreground(TextInverse).
		Background(Cyan).
		Bold(true).
		Padding(0, 1)
	t.ModeInactive = r.NewStyle().Foreground(TextSecondary).Padding(0, 1)
	t.ModeDesc = r.NewStyle().Foreground(TextMuted).Italic(true)
	t.ShortcutKey = r.NewStyle().Foreground(Cyan).Bold(true)
	t.ShortcutDesc = r.NewStyle().Foreground(TextMuted)
	t.Spinner = r.NewStyle().Foreground(Purple)

	// Files
	t.FilePanel = r.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	if a.Compact {
		t.FilePanel = t.FilePanel.Border(lipgloss.NormalBorder(), true, false)
	}
	t.FileItem = r.NewStyle().Foreground(TextPrimary)
	t.FileItemSelected = r.NewStyle().Foreground(Emerald).Bold(true)
	t.FileCursor = r.NewStyle().Foreground(Cyan)
	t.Uploading = r.NewStyle().Foreground(Amber).Italic(true)

	// Alerts
	t.ErrorAlert = r.NewStyle().
		Foreground(TextInverse).
		Background(Rose).
		Bold(true).
		Padding(0, 1)
	t.NoticeAlert = r.NewStyle().Foreground(Emerald)
}
