// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/pgpt-tui/internal/storage"
	"github.com/jeranaias/pgpt-tui/internal/util"
)

// Errors returned by Store operations.
var (
	ErrInvalidMode     = errors.New("mode not supported on this surface")
	ErrIndexOutOfRange = errors.New("message index out of range")
	ErrNotAssistant    = errors.New("only assistant messages can be scored")
)

// =============================================================================
// STORE
// =============================================================================

// Store is the session state and its backing storage. Every mutation
// updates memory first and then persists the affected keys synchronously.
// A persistence error is returned but the in-memory change stands.
type Store struct {
	mu    sync.Mutex
	kv    storage.KV
	state State
	log   *zap.Logger
}

// Open loads the session from kv. Malformed keys are logged and replaced
// by their defaults.
func Open(kv storage.KV, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{kv: kv, log: log.Named("session")}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads every key from storage, replacing the in-memory state.
func (s *Store) Reload() error {
	st, bad, err := Decode(s.kv)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	for _, key := range bad {
		s.log.Warn("ignoring malformed session key", zap.String("key", key))
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// persist writes keys from the current state. Caller holds s.mu.
func (s *Store) persist(keys ...string) error {
	batch := make(map[string]*string, len(keys))
	for _, k := range keys {
		batch[k] = s.state.encodeKey(k)
	}
	if err := s.kv.SetMany(batch); err != nil {
		s.log.Error("persist session", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("persist %v: %w", keys, err)
	}
	return nil
}

// =============================================================================
// HISTORY
// =============================================================================

// AppendMessage adds msg to the end of the history.
func (s *Store) AppendMessage(msg Message) error {
	if !msg.Role.Valid() {
		return fmt.Errorf("invalid role %q", msg.Role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Messages = append(s.state.Messages, msg.clone())
	return s.persist(KeyMessages)
}

// Messages returns a copy of the history.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.state.Messages))
	for i, m := range s.state.Messages {
		out[i] = m.clone()
	}
	return out
}

// Clear empties the history and resets modes, system prompt, selected files
// and playground sources. The base URL and dark preference survive.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	def := DefaultState()
	s.state.Messages = def.Messages
	s.state.ChatMode = def.ChatMode
	s.state.PromptMode = def.PromptMode
	s.state.SystemPrompt = def.SystemPrompt
	s.state.SelectedFiles = def.SelectedFiles
	s.state.PlaygroundSources = def.PlaygroundSources

	return s.persist(KeyMessages, KeyChatMode, KeyPromptMode, KeySystemPrompt,
		KeySelectedFiles, KeyPlaygroundSources)
}

// SetScore rates the assistant message at index. Setting the same score
// again is a no-op write.
func (s *Store) SetScore(index int, score Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.state.Messages) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if s.state.Messages[index].Role != RoleAssistant {
		return ErrNotAssistant
	}
	s.state.Messages[index].Score = score
	return s.persist(KeyMessages)
}

// =============================================================================
// MODES AND PROMPTS
// =============================================================================

// Mode returns the current mode of surface.
func (s *Store) Mode(surface Surface) Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Mode(surface)
}

// SetMode stores the mode for surface.
func (s *Store) SetMode(surface Surface, mode Mode) error {
	if !surface.Valid() || !surface.Accepts(mode) {
		return fmt.Errorf("%w: %s on %s", ErrInvalidMode, mode, surface)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if surface == SurfacePlayground {
		s.state.PromptMode = mode
		return s.persist(KeyPromptMode)
	}
	s.state.ChatMode = mode
	return s.persist(KeyChatMode)
}

// SetSystemPrompt stores the system prompt.
func (s *Store) SetSystemPrompt(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SystemPrompt = text
	return s.persist(KeySystemPrompt)
}

// SetPlaygroundSources stores the citations of the last playground answer.
func (s *Store) SetPlaygroundSources(sources []Citation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PlaygroundSources = append([]Citation{}, sources...)
	return s.persist(KeyPlaygroundSources)
}

// =============================================================================
// FILE SELECTION
// =============================================================================

// SelectedFiles returns a copy of the selection.
func (s *Store) SelectedFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.state.SelectedFiles...)
}

// SetSelectedFiles replaces the selection, dropping duplicates and keeping
// first-seen order.
func (s *Store) SetSelectedFiles(names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectedFiles = dedupe(names)
	return s.persist(KeySelectedFiles)
}

// ToggleFile selects name if unselected, otherwise deselects it. Returns
// whether name is selected afterwards.
func (s *Store) ToggleFile(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.state.SelectedFiles {
		if n == name {
			s.state.SelectedFiles = append(s.state.SelectedFiles[:i:i], s.state.SelectedFiles[i+1:]...)
			return false, s.persist(KeySelectedFiles)
		}
	}
	s.state.SelectedFiles = append(s.state.SelectedFiles, name)
	return true, s.persist(KeySelectedFiles)
}

// Deselect removes name from the selection if present.
func (s *Store) Deselect(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state.SelectedFiles[:0:0]
	for _, n := range s.state.SelectedFiles {
		if n != name {
			out = append(out, n)
		}
	}
	if len(out) == len(s.state.SelectedFiles) {
		return nil
	}
	s.state.SelectedFiles = out
	return s.persist(KeySelectedFiles)
}

// Reconcile drops selected names that are not in known. Names compare
// after NFC normalisation, so a decomposed "é" still matches. Returns the
// dropped names.
func (s *Store) Reconcile(known []string) ([]string, error) {
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[util.NormalizeName(k)] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var kept, dropped []string
	for _, n := range s.state.SelectedFiles {
		if set[util.NormalizeName(n)] {
			kept = append(kept, n)
		} else {
			dropped = append(dropped, n)
		}
	}
	if len(dropped) == 0 {
		return nil, nil
	}
	s.state.SelectedFiles = nonNilStrings(kept)
	s.log.Debug("reconciled selection", zap.Strings("dropped", dropped))
	return dropped, s.persist(KeySelectedFiles)
}

// =============================================================================
// PREFERENCES
// =============================================================================

// BaseURL returns the stored service address, empty if unset.
func (s *Store) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.BaseURL
}

// SetBaseURL stores the service address. Empty unsets it.
func (s *Store) SetBaseURL(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.BaseURL = url
	return s.persist(KeyBaseURL)
}

// DarkMode returns the stored preference, nil when unset.
func (s *Store) DarkMode() *bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.DarkMode == nil {
		return nil
	}
	d := *s.state.DarkMode
	return &d
}

// SetDarkMode stores the light/dark preference.
func (s *Store) SetDarkMode(dark bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.DarkMode = &dark
	return s.persist(KeyDarkMode)
}
