// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package privategpt

import (
	"fmt"
	"strconv"
)

// =============================================================================
// MESSAGES
// =============================================================================

// Message roles accepted by the chat endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// OpenAIMessage is one turn of a chat completion request.
type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) OpenAIMessage {
	return OpenAIMessage{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) OpenAIMessage {
	return OpenAIMessage{Role: RoleAssistant, Content: content}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) OpenAIMessage {
	return OpenAIMessage{Role: RoleSystem, Content: content}
}

// =============================================================================
// REQUESTS
// =============================================================================

// ContextFilter restricts retrieval to a set of ingested document ids.
type ContextFilter struct {
	DocsIDs []string `json:"docs_ids"`
}

// NewContextFilter returns a filter for ids, or nil when ids is empty so
// the field is omitted and retrieval spans every document.
func NewContextFilter(ids []string) *ContextFilter {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return &ContextFilter{DocsIDs: out}
}

// ChatBody is the payload of POST /v1/chat/completions.
type ChatBody struct {
	Messages       []OpenAIMessage `json:"messages"`
	UseContext     bool            `json:"use_context"`
	ContextFilter  *ContextFilter  `json:"context_filter,omitempty"`
	IncludeSources bool            `json:"include_sources"`
	Stream         bool            `json:"stream"`
}

// CompletionsBody is the payload of POST /v1/completions.
type CompletionsBody struct {
	Prompt         string         `json:"prompt"`
	SystemPrompt   string         `json:"system_prompt,omitempty"`
	UseContext     bool           `json:"use_context"`
	ContextFilter  *ContextFilter `json:"context_filter,omitempty"`
	IncludeSources bool           `json:"include_sources"`
	Stream         bool           `json:"stream"`
}

// ChunksBody is the payload of POST /v1/chunks.
type ChunksBody struct {
	Text           string         `json:"text"`
	ContextFilter  *ContextFilter `json:"context_filter,omitempty"`
	Limit          int            `json:"limit,omitempty"`
	PrevNextChunks int            `json:"prev_next_chunks"`
}

// =============================================================================
// RESPONSES
// =============================================================================

// DocMetadata is the free-form metadata PrivateGPT stores per document.
// Values are usually strings, but page labels sometimes arrive as numbers.
type DocMetadata map[string]interface{}

func (m DocMetadata) str(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// FileName returns the "file_name" entry.
func (m DocMetadata) FileName() string { return m.str("file_name") }

// PageLabel returns the "page_label" entry, empty when absent.
func (m DocMetadata) PageLabel() string { return m.str("page_label") }

// OriginalText returns the "original_text" entry, empty when absent.
func (m DocMetadata) OriginalText() string { return m.str("original_text") }

// IngestedDoc is one ingested document chunk group.
type IngestedDoc struct {
	Object      string      `json:"object"`
	DocID       string      `json:"doc_id"`
	DocMetadata DocMetadata `json:"doc_metadata"`
}

// Chunk is a retrieved text chunk with its source document.
type Chunk struct {
	Object        string      `json:"object"`
	Score         float64     `json:"score"`
	Document      IngestedDoc `json:"document"`
	Text          string      `json:"text"`
	PreviousTexts []string    `json:"previous_texts,omitempty"`
	NextTexts     []string    `json:"next_texts,omitempty"`
}

// Excerpt returns the sentence-window original text when the index stored
// one, else the chunk text itself.
func (c Chunk) Excerpt() string {
	if t := c.Document.DocMetadata.OriginalText(); t != "" {
		return t
	}
	return c.Text
}

// Delta is the incremental content of a streamed choice.
type Delta struct {
	Content string `json:"content"`
}

// Choice is one completion choice, streamed or not.
type Choice struct {
	Index        int            `json:"index"`
	FinishReason *string        `json:"finish_reason"`
	Delta        *Delta         `json:"delta,omitempty"`
	Message      *OpenAIMessage `json:"message,omitempty"`
	Sources      []Chunk        `json:"sources,omitempty"`
}

// OpenAICompletion is the envelope of completion responses and stream events.
type OpenAICompletion struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

type listResponse[T any] struct {
	Object string `json:"object"`
	Model  string `json:"model"`
	Data   []T    `json:"data"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

type errorBody struct {
	Detail interface{} `json:"detail"`
}

// =============================================================================
// STREAMING
// =============================================================================

// StreamChunk is a single decoded event from a completion stream.
type StreamChunk struct {
	// Delta is the newly generated text, possibly empty.
	Delta string
	// Sources is set on the event that carries citations, usually the last.
	Sources []Chunk
	// Done marks the end of the stream.
	Done bool
}

// StreamCallback receives stream chunks in order.
type StreamCallback func(chunk StreamChunk)
