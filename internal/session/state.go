// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/pgpt-tui/internal/storage"
)

// =============================================================================
// STORAGE KEYS
// =============================================================================

// Storage keys. Each holds one JSON value.
const (
	KeyBaseURL           = "pgpt-url"
	KeyChatMode          = "pgpt-chat-mode"
	KeyPromptMode        = "pgpt-prompt-mode"
	KeySystemPrompt      = "system-prompt"
	KeyMessages          = "messages"
	KeySelectedFiles     = "selected-files"
	KeyPlaygroundSources = "pgpt-sources"
	KeyDarkMode          = "preferredMode"
)

// Keys lists every key the session owns.
var Keys = []string{
	KeyBaseURL,
	KeyChatMode,
	KeyPromptMode,
	KeySystemPrompt,
	KeyMessages,
	KeySelectedFiles,
	KeyPlaygroundSources,
	KeyDarkMode,
}

// =============================================================================
// STATE
// =============================================================================

// State is every persisted session field.
type State struct {
	// BaseURL is the service address chosen at the URL prompt. Empty means
	// unset; the configured URL applies.
	BaseURL string

	ChatMode     Mode
	PromptMode   Mode
	SystemPrompt string
	Messages     []Message

	// SelectedFiles is ordered and free of duplicates.
	SelectedFiles []string

	// PlaygroundSources are the citations of the last playground answer.
	PlaygroundSources []Citation

	// DarkMode is the stored preference; nil defers to the terminal.
	DarkMode *bool
}

// DefaultState returns the state of a fresh session.
func DefaultState() State {
	return State{
		ChatMode:          SurfaceChat.DefaultMode(),
		PromptMode:        SurfacePlayground.DefaultMode(),
		Messages:          []Message{},
		SelectedFiles:     []string{},
		PlaygroundSources: []Citation{},
	}
}

// Mode returns the mode stored for surface.
func (s State) Mode(surface Surface) Mode {
	if surface == SurfacePlayground {
		return s.PromptMode
	}
	return s.ChatMode
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		out.Messages[i] = m.clone()
	}
	out.SelectedFiles = append([]string{}, s.SelectedFiles...)
	out.PlaygroundSources = append([]Citation{}, s.PlaygroundSources...)
	if s.DarkMode != nil {
		d := *s.DarkMode
		out.DarkMode = &d
	}
	return out
}

// =============================================================================
// ENCODE / DECODE
// =============================================================================

// Encode writes every field of s to kv in one batch. Unset optional
// fields delete their key.
func Encode(kv storage.KV, s State) error {
	batch := make(map[string]*string, len(Keys))
	for _, key := range Keys {
		batch[key] = s.encodeKey(key)
	}
	if err := kv.SetMany(batch); err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return nil
}

// encodeKey returns the JSON for key, or nil when the key should be absent.
func (s State) encodeKey(key string) *string {
	var v string
	switch key {
	case KeyBaseURL:
		if s.BaseURL == "" {
			return nil
		}
		v = marshal(s.BaseURL)
	case KeyChatMode:
		v = marshal(s.ChatMode)
	case KeyPromptMode:
		v = marshal(s.PromptMode)
	case KeySystemPrompt:
		v = marshal(s.SystemPrompt)
	case KeyMessages:
		v = marshal(nonNilMessages(s.Messages))
	case KeySelectedFiles:
		v = marshal(nonNilStrings(s.SelectedFiles))
	case KeyPlaygroundSources:
		v = marshal(nonNilCitations(s.PlaygroundSources))
	case KeyDarkMode:
		if s.DarkMode == nil {
			return nil
		}
		// Stored as the theme name, like a browser color-scheme preference.
		if *s.DarkMode {
			v = marshal("dark")
		} else {
			v = marshal("light")
		}
	default:
		return nil
	}
	return &v
}

// Decode reads every key from kv independently. A missing, malformed or
// out-of-range value falls back to that key's default. Only a storage
// failure is returned as an error.
func Decode(kv storage.KV) (State, []string, error) {
	s := DefaultState()
	var bad []string

	read := func(key string, into interface{}) (bool, error) {
		raw, ok, err := kv.Get(key)
		if err != nil {
			return false, fmt.Errorf("read %s: %w", key, err)
		}
		if !ok {
			return false, nil
		}
		if err := json.Unmarshal([]byte(raw), into); err != nil {
			bad = append(bad, key)
			return false, nil
		}
		return true, nil
	}

	var url string
	if ok, err := read(KeyBaseURL, &url); err != nil {
		return s, bad, err
	} else if ok {
		s.BaseURL = url
	}

	var mode Mode
	if ok, err := read(KeyChatMode, &mode); err != nil {
		return s, bad, err
	} else if ok {
		if SurfaceChat.Accepts(mode) {
			s.ChatMode = mode
		} else {
			bad = append(bad, KeyChatMode)
		}
	}

	mode = ""
	if ok, err := read(KeyPromptMode, &mode); err != nil {
		return s, bad, err
	} else if ok {
		if SurfacePlayground.Accepts(mode) {
			s.PromptMode = mode
		} else {
			bad = append(bad, KeyPromptMode)
		}
	}

	var prompt string
	if ok, err := read(KeySystemPrompt, &prompt); err != nil {
		return s, bad, err
	} else if ok {
		s.SystemPrompt = prompt
	}

	var msgs []Message
	if ok, err := read(KeyMessages, &msgs); err != nil {
		return s, bad, err
	} else if ok {
		s.Messages = make([]Message, 0, len(msgs))
		for _, m := range msgs {
			if m.Role.Valid() {
				s.Messages = append(s.Messages, m)
			}
		}
	}

	var sel []string
	if ok, err := read(KeySelectedFiles, &sel); err != nil {
		return s, bad, err
	} else if ok {
		s.SelectedFiles = dedupe(sel)
	}

	var src []Citation
	if ok, err := read(KeyPlaygroundSources, &src); err != nil {
		return s, bad, err
	} else if ok {
		s.PlaygroundSources = nonNilCitations(src)
	}

	var dark string
	if ok, err := read(KeyDarkMode, &dark); err != nil {
		return s, bad, err
	} else if ok {
		switch dark {
		case "dark":
			d := true
			s.DarkMode = &d
		case "light":
			d := false
			s.DarkMode = &d
		default:
			bad = append(bad, KeyDarkMode)
		}
	}

	return s, bad, nil
}

func dedupe(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func nonNilMessages(m []Message) []Message {
	if m == nil {
		return []Message{}
	}
	return m
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilCitations(c []Citation) []Citation {
	if c == nil {
		return []Citation{}
	}
	return c
}
