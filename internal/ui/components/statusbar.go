// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pgpt-tui/internal/session"
	"github.com/jeranaias/pgpt-tui/internal/ui/styles"
	"github.com/jeranaias/pgpt-tui/internal/util"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// Status is what a request is doing.
type Status int

const (
	StatusReady Status = iota
	StatusStreaming
	StatusSearching
	StatusError
)

// String returns the display text for the status.
func (s Status) String() string {
	switch s {
	case StatusStreaming:
		return "Generating"
	case StatusSearching:
		return "Searching"
	case StatusError:
		return "Error"
	default:
		return "Ready"
	}
}

// StatusInfo is the content of the status bar.
type StatusInfo struct {
	Surface  session.Surface
	Mode     session.Mode
	Selected int
	BaseURL  string
	Status   Status
}

// RenderStatusBar renders info on one line of width cells. The compact
// layout drops the server address.
func RenderStatusBar(t *styles.Theme, info StatusInfo, width int) string {
	left := []string{surfaceLabel(info.Surface), info.Mode.Label()}
	if info.Mode.UsesFiles() {
		left = append(left, fileCount(info.Selected))
	}
	left = append(left, info.Status.String())
	leftText := strings.Join(left, " | ")

	right := ""
	if !t.Appearance.Compact && info.BaseURL != "" {
		right = hostOf(info.BaseURL)
	}

	inner := width - 2
	gap := inner - util.StringWidth(leftText) - util.StringWidth(right)
	if gap < 1 {
		right = ""
		gap = inner - util.StringWidth(leftText)
	}
	if gap < 0 {
		leftText = util.TruncateWidth(leftText, inner)
		gap = 0
	}
	return t.StatusBar.Width(width).Render(leftText + strings.Repeat(" ", gap) + right)
}

func surfaceLabel(s session.Surface) string {
	if s == session.SurfacePlayground {
		return "Playground"
	}
	return "Chat"
}

func fileCount(n int) string {
	switch n {
	case 0:
		return "all files"
	case 1:
		return "1 file"
	default:
		return fmt.Sprintf("%d files", n)
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}

// =============================================================================
// MODE SELECTOR
// =============================================================================

// RenderModes renders the surface's modes with active highlighted and its
// description underneath.
func RenderModes(t *styles.Theme, surface session.Surface, active session.Mode, width int) string {
	var tabs []string
	for _, m := range surface.Modes() {
		if m == active {
			tabs = append(tabs, t.ModeActive.Render(m.Label()))
		} else {
			tabs = append(tabs, t.ModeInactive.Render(m.Label()))
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	desc := t.ModeDesc.Render(util.TruncateWidth(active.Description(), width))
	return row + "\n" + desc
}

// =============================================================================
// HELP
// =============================================================================

// NewHelp creates a help view styled by t.
func NewHelp(t *styles.Theme) help.Model {
	h := help.New()
	h.Styles.ShortKey = t.ShortcutKey
	h.Styles.ShortDesc = t.ShortcutDesc
	h.Styles.ShortSeparator = t.Muted
	h.Styles.FullKey = t.ShortcutKey
	h.Styles.FullDesc = t.ShortcutDesc
	h.Styles.FullSeparator = t.Muted
	h.Styles.Ellipsis = t.Muted
	return h
}
