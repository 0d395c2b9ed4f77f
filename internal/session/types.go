// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/pgpt-tui/internal/privategpt"
)

// =============================================================================
// ROLES AND MODES
// =============================================================================

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Mode selects how a submission is answered.
type Mode string

const (
	// ModeQuery answers with context retrieved from ingested documents.
	ModeQuery Mode = "query"
	// ModeSearch returns the most similar chunks without a model call.
	ModeSearch Mode = "search"
	// ModeChat is a plain conversation with no document context.
	ModeChat Mode = "chat"
	// ModePrompt is a single playground completion with no document context.
	ModePrompt Mode = "prompt"
)

// Label returns the short name shown in the mode selector.
func (m Mode) Label() string {
	switch m {
	case ModeQuery:
		return "Query docs"
	case ModeSearch:
		return "Search files"
	case ModeChat:
		return "LLM Chat"
	case ModePrompt:
		return "Prompt"
	default:
		return string(m)
	}
}

// Description explains the mode in one sentence.
func (m Mode) Description() string {
	switch m {
	case ModeQuery:
		return "Uses the context from the ingested documents to answer the questions"
	case ModeSearch:
		return "Fast search that returns the most related text chunks with their files"
	case ModeChat, ModePrompt:
		return "No context from files"
	default:
		return ""
	}
}

// UsesFiles reports whether the mode is scoped by the selected files.
func (m Mode) UsesFiles() bool {
	return m == ModeQuery || m == ModeSearch
}

// Surface is one of the two UI surfaces.
type Surface string

const (
	SurfaceChat       Surface = "chat"
	SurfacePlayground Surface = "playground"
)

// Modes lists the modes a surface accepts, in selector order.
func (s Surface) Modes() []Mode {
	switch s {
	case SurfacePlayground:
		return []Mode{ModeQuery, ModeSearch, ModePrompt}
	default:
		return []Mode{ModeQuery, ModeSearch, ModeChat}
	}
}

// DefaultMode is the mode a fresh or cleared session starts in.
func (s Surface) DefaultMode() Mode {
	if s == SurfacePlayground {
		return ModePrompt
	}
	return ModeChat
}

// Accepts reports whether the surface supports m.
func (s Surface) Accepts(m Mode) bool {
	for _, mm := range s.Modes() {
		if mm == m {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known surface.
func (s Surface) Valid() bool {
	return s == SurfaceChat || s == SurfacePlayground
}

// NextMode cycles to the mode after cur on this surface.
func (s Surface) NextMode(cur Mode) Mode {
	modes := s.Modes()
	for i, m := range modes {
		if m == cur {
			return modes[(i+1)%len(modes)]
		}
	}
	return s.DefaultMode()
}

// =============================================================================
// SCORE
// =============================================================================

// Score is a user rating of an assistant message. It persists as JSON
// null, true or false.
type Score int8

const (
	ScoreUnset    Score = 0
	ScorePositive Score = 1
	ScoreNegative Score = -1
)

func (s Score) String() string {
	switch s {
	case ScorePositive:
		return "positive"
	case ScoreNegative:
		return "negative"
	default:
		return "unset"
	}
}

// MarshalJSON implements json.Marshaler.
func (s Score) MarshalJSON() ([]byte, error) {
	switch s {
	case ScorePositive:
		return []byte("true"), nil
	case ScoreNegative:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler. Anything other than a bool
// decodes as ScoreUnset.
func (s *Score) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*s = ScorePositive
	case "false":
		*s = ScoreNegative
	default:
		*s = ScoreUnset
	}
	return nil
}

// =============================================================================
// MESSAGES AND CITATIONS
// =============================================================================

// Citation references the document chunk an answer drew on.
type Citation struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name"`
	PageLabel  string `json:"page_label,omitempty"`
	Excerpt    string `json:"excerpt"`
}

// Label returns "file (page N)" or just the file name.
func (c Citation) Label() string {
	if c.PageLabel == "" {
		return c.FileName
	}
	return fmt.Sprintf("%s (page %s)", c.FileName, c.PageLabel)
}

// CitationFromChunk converts a retrieved chunk into a Citation. Query
// sources and search results both go through here.
func CitationFromChunk(c privategpt.Chunk) Citation {
	return Citation{
		DocumentID: c.Document.DocID,
		FileName:   c.Document.DocMetadata.FileName(),
		PageLabel:  c.Document.DocMetadata.PageLabel(),
		Excerpt:    c.Excerpt(),
	}
}

// CitationsFromChunks converts chunks in order. Returns nil for none.
func CitationsFromChunks(chunks []privategpt.Chunk) []Citation {
	if len(chunks) == 0 {
		return nil
	}
	out := make([]Citation, len(chunks))
	for i, c := range chunks {
		out[i] = CitationFromChunk(c)
	}
	return out
}

// Message is one turn of the conversation. Only Score may change after
// the message is appended.
type Message struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Sources   []Citation `json:"sources,omitempty"`
	Score     Score      `json:"score"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewMessage creates a message with a fresh id and timestamp.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewAssistantMessage creates an assistant message with sources.
func NewAssistantMessage(content string, sources []Citation) Message {
	m := NewMessage(RoleAssistant, content)
	m.Sources = sources
	return m
}

func (m Message) clone() Message {
	if m.Sources != nil {
		src := make([]Citation, len(m.Sources))
		copy(src, m.Sources)
		m.Sources = src
	}
	return m
}

// marshal is json.Marshal for values that cannot fail.
func marshal(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}
