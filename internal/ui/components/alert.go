// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pgpt-tui/internal/ui/styles"
	"github.com/jeranaias/pgpt-tui/internal/util"
)

// =============================================================================
// ALERT
// =============================================================================

// AlertKind distinguishes errors from notices.
type AlertKind int

const (
	// AlertError stays until dismissed or replaced.
	AlertError AlertKind = iota
	// AlertNotice disappears after NoticeDuration.
	AlertNotice
)

// NoticeDuration is how long a notice stays visible.
const NoticeDuration = 4 * time.Second

var alertSeq atomic.Int64

// AlertExpiredMsg dismisses the alert with the same ID.
type AlertExpiredMsg struct {
	ID int64
}

// Alert is a single dismissible line above the input.
type Alert struct {
	theme   *styles.Theme
	id      int64
	kind    AlertKind
	message string
}

// NewAlert creates a hidden alert.
func NewAlert(theme *styles.Theme) Alert {
	return Alert{theme: theme}
}

// SetTheme rebinds the alert to theme.
func (a *Alert) SetTheme(theme *styles.Theme) {
	a.theme = theme
}

// Error shows an error. It stays until Dismiss.
func (a *Alert) Error(message string) {
	a.id = alertSeq.Add(1)
	a.kind = AlertError
	a.message = message
}

// Notice shows message and returns the command that expires it.
func (a *Alert) Notice(message string) tea.Cmd {
	a.id = alertSeq.Add(1)
	a.kind = AlertNotice
	a.message = message
	id := a.id
	return tea.Tick(NoticeDuration, func(time.Time) tea.Msg {
		return AlertExpiredMsg{ID: id}
	})
}

// Dismiss hides the alert.
func (a *Alert) Dismiss() {
	a.message = ""
}

// Visible reports whether something is shown.
func (a Alert) Visible() bool {
	return a.message != ""
}

// IsError reports whether an error is shown.
func (a Alert) IsError() bool {
	return a.Visible() && a.kind == AlertError
}

// Message returns the shown text.
func (a Alert) Message() string {
	return a.message
}

// Update handles expiry.
func (a Alert) Update(msg tea.Msg) Alert {
	if m, ok := msg.(AlertExpiredMsg); ok && m.ID == a.id && a.kind == AlertNotice {
		a.message = ""
	}
	return a
}

// View renders the alert truncated to width.
func (a Alert) View(width int) string {
	if !a.Visible() {
		return ""
	}
	if a.kind == AlertError {
		text := util.TruncateWidth("Error: "+a.message+"  (esc to dismiss)", width-2)
		return a.theme.ErrorAlert.Render(text)
	}
	return a.theme.NoticeAlert.Render(util.TruncateWidth(a.message, width))
}
