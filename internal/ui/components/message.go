// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pgpt-tui/internal/session"
	"github.com/jeranaias/pgpt-tui/internal/ui/render"
	"github.com/jeranaias/pgpt-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLES
// =============================================================================

// MessageOptions controls how one message is drawn.
type MessageOptions struct {
	// Width is the width of the content area.
	Width int
	// Highlighted marks the message under the history cursor.
	Highlighted bool
}

// RenderMessage renders msg as a bubble. Assistant content goes through md.
func RenderMessage(t *styles.Theme, md *render.Markdown, msg session.Message, opts MessageOptions) string {
	bw := bubbleWidth(t, opts.Width)

	if msg.Role == session.RoleUser {
		body := t.UserBubble.Width(bw).Render(wrap(msg.Content, bw-4))
		body = withCursor(t, body, opts.Highlighted)
		if t.Appearance.Compact {
			return body
		}
		return lipgloss.PlaceHorizontal(opts.Width, lipgloss.Right, body)
	}

	content := md.Render(msg.Content, bw-4, t.IsDark())
	if len(msg.Sources) > 0 {
		content += "\n\n" + RenderSources(t, msg.Sources, bw-4)
	}
	if mark := scoreMark(t, msg.Score); mark != "" {
		content += "\n" + mark
	}
	return withCursor(t, t.AssistantBubble.Width(bw).Render(content), opts.Highlighted)
}

// RenderStreaming renders the in-progress answer with the spinner line.
// rendered is the partial text already passed through the markdown
// renderer at BubbleTextWidth.
func RenderStreaming(t *styles.Theme, rendered, spinner string, width int) string {
	content := spinner
	if rendered != "" {
		content = rendered + "\n" + spinner
	}
	return t.StreamingBubble.Width(bubbleWidth(t, width)).Render(content)
}

// BubbleTextWidth is the text width inside a bubble for a content area of
// width cells.
func BubbleTextWidth(t *styles.Theme, width int) int {
	return bubbleWidth(t, width) - 4
}

// RenderSources renders the "Sources:" list, one line per distinct label.
func RenderSources(t *styles.Theme, sources []session.Citation, width int) string {
	var b strings.Builder
	b.WriteString(t.SourcesLabel.Render("Sources:"))
	for _, label := range SourceLabels(sources) {
		b.WriteString("\n")
		b.WriteString(t.SourceItem.Render(truncate(label, width-2)))
	}
	return b.String()
}

// SourceLabels returns the distinct citation labels in order.
func SourceLabels(sources []session.Citation) []string {
	var out []string
	seen := make(map[string]bool, len(sources))
	for _, c := range sources {
		label := c.Label()
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}

// RenderWelcome renders the empty-history greeting.
func RenderWelcome(t *styles.Theme, width int) string {
	return t.Welcome.Width(width).Render(WelcomeText)
}

// WelcomeText greets the user when the history is empty.
const WelcomeText = "Hi, what can I help you with today?"

func scoreMark(t *styles.Theme, s session.Score) string {
	switch s {
	case session.ScorePositive:
		return t.ScorePositive.Render("+ helpful")
	case session.ScoreNegative:
		return t.ScoreNegative.Render("- not helpful")
	}
	return ""
}

func withCursor(t *styles.Theme, body string, highlighted bool) string {
	if !highlighted {
		return body
	}
	lines := strings.Split(body, "\n")
	for i := range lines {
		lines[i] = t.MessageCursor.Render("|") + lines[i]
	}
	return strings.Join(lines, "\n")
}

func bubbleWidth(t *styles.Theme, width int) int {
	a := t.Appearance
	a.Width = width + 2
	bw := a.BubbleWidth()
	if bw < 24 {
		bw = 24
	}
	return bw
}
