// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"time"

	"github.com/jeranaias/pgpt-tui/internal/session"
	"github.com/jeranaias/pgpt-tui/internal/util"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is the exported form of a chat session.
type Transcript struct {
	Title        string    `json:"title" yaml:"title"`
	Mode         string    `json:"mode" yaml:"mode"`
	SystemPrompt string    `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	Files        []string  `json:"selected_files,omitempty" yaml:"selected_files,omitempty"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	Messages     []Entry   `json:"messages" yaml:"messages"`
}

// Entry is one exported message.
type Entry struct {
	Role      string    `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Score     string    `json:"score,omitempty" yaml:"score,omitempty"`
	Sources   []Source  `json:"sources,omitempty" yaml:"sources,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Source is an exported citation.
type Source struct {
	File    string `json:"file" yaml:"file"`
	Page    string `json:"page,omitempty" yaml:"page,omitempty"`
	Excerpt string `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
}

const titleWidth = 50

// FromSession builds a transcript from the chat side of a session state.
// The title is the first user message, shortened.
func FromSession(st session.State) *Transcript {
	tr := &Transcript{
		Title:        "PrivateGPT chat",
		Mode:         st.ChatMode.Label(),
		SystemPrompt: st.SystemPrompt,
		Files:        append([]string(nil), st.SelectedFiles...),
		Messages:     make([]Entry, 0, len(st.Messages)),
	}

	for _, m := range st.Messages {
		if tr.CreatedAt.IsZero() || (!m.CreatedAt.IsZero() && m.CreatedAt.Before(tr.CreatedAt)) {
			tr.CreatedAt = m.CreatedAt
		}
		e := Entry{Role: string(m.Role), Content: m.Content, Timestamp: m.CreatedAt}
		if m.Score != session.ScoreUnset {
			e.Score = m.Score.String()
		}
		for _, c := range m.Sources {
			e.Sources = append(e.Sources, Source{File: c.FileName, Page: c.PageLabel, Excerpt: c.Excerpt})
		}
		tr.Messages = append(tr.Messages, e)
	}

	for _, m := range st.Messages {
		if m.Role == session.RoleUser && m.Content != "" {
			tr.Title = util.TruncateWidth(firstLine(m.Content), titleWidth)
			break
		}
	}
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = time.Now()
	}
	return tr
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
