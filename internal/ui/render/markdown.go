// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
)

// Markdown renders assistant text at a given width and background. The
// glamour renderer is built lazily and rebuilt when the width or
// background changes. Safe for concurrent use.
type Markdown struct {
	enabled bool
	log     *zap.Logger

	mu    sync.Mutex
	tr    *glamour.TermRenderer
	width int
	dark  bool
}

// NewMarkdown creates a renderer. With enabled false, only code fences
// are highlighted.
func NewMarkdown(enabled bool, log *zap.Logger) *Markdown {
	if log == nil {
		log = zap.NewNop()
	}
	return &Markdown{enabled: enabled, log: log.Named("render")}
}

// Enabled reports whether glamour rendering is on.
func (m *Markdown) Enabled() bool {
	return m.enabled
}

// Render formats text for width columns. Errors fall back to raw text.
func (m *Markdown) Render(text string, width int, dark bool) string {
	if !m.enabled {
		return HighlightFences(text, dark)
	}
	if width < 20 {
		width = 20
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tr == nil || m.width != width || m.dark != dark {
		tr, err := newTermRenderer(width, dark)
		if err != nil {
			m.log.Warn("glamour renderer", zap.Error(err))
			return HighlightFences(text, dark)
		}
		m.tr, m.width, m.dark = tr, width, dark
	}

	out, err := m.tr.Render(text)
	if err != nil {
		m.log.Debug("markdown render failed", zap.Error(err))
		return HighlightFences(text, dark)
	}
	return strings.Trim(out, "\n")
}

func newTermRenderer(width int, dark bool) (*glamour.TermRenderer, error) {
	style := "light"
	if dark {
		style = "dark"
	}
	return glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
}

// Terminal renders text once for command-line output, following the
// terminal's own background.
func Terminal(text string, width int) (string, error) {
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return tr.Render(text)
}
