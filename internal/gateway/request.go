// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/pgpt-tui/internal/privategpt"
	"github.com/jeranaias/pgpt-tui/internal/session"
)

// ErrEmptyPrompt is returned when there is nothing to send.
var ErrEmptyPrompt = errors.New("nothing to submit")

// Request is a snapshot of what to ask.
type Request struct {
	Surface session.Surface
	Mode    session.Mode

	// History is the chat conversation including the new user message.
	// Used on the chat surface.
	History []session.Message

	// Prompt is the playground input. Used on the playground surface.
	Prompt string

	SystemPrompt string

	// DocIDs restricts query and search. Empty means every document.
	DocIDs []string
}

// Result is a finished answer.
type Result struct {
	Text    string
	Sources []session.Citation
}

// text returns the user's question: the playground prompt, or the latest
// user message of the history.
func (r Request) text() string {
	if r.Surface == session.SurfacePlayground {
		return r.Prompt
	}
	for i := len(r.History) - 1; i >= 0; i-- {
		if r.History[i].Role == session.RoleUser {
			return r.History[i].Content
		}
	}
	return ""
}

// chatMessages maps the history to the wire format, prefixed by the system
// prompt when one is set.
func (r Request) chatMessages() []privategpt.OpenAIMessage {
	out := make([]privategpt.OpenAIMessage, 0, len(r.History)+1)
	if r.SystemPrompt != "" {
		out = append(out, privategpt.NewSystemMessage(r.SystemPrompt))
	}
	for _, m := range r.History {
		switch m.Role {
		case session.RoleUser:
			out = append(out, privategpt.NewUserMessage(m.Content))
		case session.RoleAssistant:
			out = append(out, privategpt.NewAssistantMessage(m.Content))
		}
	}
	return out
}

// chatBody builds the /v1/chat/completions payload for chat and query.
func (r Request) chatBody() privategpt.ChatBody {
	if r.Mode == session.ModeQuery {
		msgs := make([]privategpt.OpenAIMessage, 0, 2)
		if r.SystemPrompt != "" {
			msgs = append(msgs, privategpt.NewSystemMessage(r.SystemPrompt))
		}
		msgs = append(msgs, privategpt.NewUserMessage(r.text()))
		return privategpt.ChatBody{
			Messages:       msgs,
			UseContext:     true,
			ContextFilter:  privategpt.NewContextFilter(r.DocIDs),
			IncludeSources: true,
			Stream:         true,
		}
	}
	return privategpt.ChatBody{
		Messages: r.chatMessages(),
		Stream:   true,
	}
}

// completionsBody builds the /v1/completions payload for the playground.
func (r Request) completionsBody() privategpt.CompletionsBody {
	body := privategpt.CompletionsBody{
		Prompt:       r.Prompt,
		SystemPrompt: r.SystemPrompt,
		Stream:       true,
	}
	if r.Mode == session.ModeQuery {
		body.UseContext = true
		body.IncludeSources = true
		body.ContextFilter = privategpt.NewContextFilter(r.DocIDs)
	}
	return body
}

// chunksBody builds the /v1/chunks payload for search.
func (r Request) chunksBody(limit int) privategpt.ChunksBody {
	return privategpt.ChunksBody{
		Text:          r.text(),
		ContextFilter: privategpt.NewContextFilter(r.DocIDs),
		Limit:         limit,
	}
}

func (r Request) validate() error {
	if !r.Surface.Valid() {
		return fmt.Errorf("unknown surface %q", r.Surface)
	}
	if !r.Surface.Accepts(r.Mode) {
		return fmt.Errorf("%w: %s on %s", session.ErrInvalidMode, r.Mode, r.Surface)
	}
	if strings.TrimSpace(r.text()) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// FormatSearchResults renders chunks as a numbered markdown list. The page
// is omitted when a chunk has no page label.
func FormatSearchResults(chunks []privategpt.Chunk) string {
	var b strings.Builder
	for i, c := range chunks {
		cit := session.CitationFromChunk(c)
		if cit.PageLabel != "" {
			fmt.Fprintf(&b, "**%d.%s (page %s)**\n\n %s \n\n", i+1, cit.FileName, cit.PageLabel, cit.Excerpt)
		} else {
			fmt.Fprintf(&b, "**%d.%s**\n\n %s \n\n", i+1, cit.FileName, cit.Excerpt)
		}
	}
	return b.String()
}
