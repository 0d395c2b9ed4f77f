// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/pgpt-tui/internal/files"
	"github.com/jeranaias/pgpt-tui/internal/gateway"
	"github.com/jeranaias/pgpt-tui/internal/session"
)

// fileOpTimeout bounds list and delete calls. Uploads use the client's
// own upload timeout.
const fileOpTimeout = 30 * time.Second

// =============================================================================
// GATEWAY EVENTS
// =============================================================================

// StreamEventMsg carries one gateway event to the surface that started the
// request. Closed is set once the channel is drained; TokenID is set even
// then.
type StreamEventMsg struct {
	Surface session.Surface
	TokenID uint64
	Event   gateway.Event
	Closed  bool

	ch <-chan gateway.Event
}

// Next keeps draining the channel. It returns nil after Closed.
func (m StreamEventMsg) Next() tea.Cmd {
	if m.Closed {
		return nil
	}
	return WaitForEvent(m.Surface, m.TokenID, m.ch)
}

// WaitForEvent reads the next event of request tokenID from ch.
func WaitForEvent(surface session.Surface, tokenID uint64, ch <-chan gateway.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		return StreamEventMsg{Surface: surface, TokenID: tokenID, Event: ev, Closed: !ok, ch: ch}
	}
}

// =============================================================================
// FILE OPERATIONS
// =============================================================================

// FilesLoadedMsg reports a registry refresh.
type FilesLoadedMsg struct {
	Entries []files.FileEntry
	Err     error
}

// UploadDoneMsg reports an upload. A refresh should follow it.
type UploadDoneMsg struct {
	Path string
	Err  error
}

// DeleteDoneMsg reports a file removal.
type DeleteDoneMsg struct {
	Name string
	Err  error
}

// RefreshFilesCmd reloads the ingested file list.
func RefreshFilesCmd(reg *files.Registry) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fileOpTimeout)
		defer cancel()
		entries, err := reg.Refresh(ctx)
		return FilesLoadedMsg{Entries: entries, Err: err}
	}
}

// UploadCmd ingests the file at path.
func UploadCmd(reg *files.Registry, path string) tea.Cmd {
	return func() tea.Msg {
		err := reg.Add(context.Background(), path)
		return UploadDoneMsg{Path: path, Err: err}
	}
}

// DeleteCmd removes every document of the named file.
func DeleteCmd(reg *files.Registry, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fileOpTimeout)
		defer cancel()
		return DeleteDoneMsg{Name: name, Err: reg.Remove(ctx, name)}
	}
}

// =============================================================================
// CLIPBOARD
// =============================================================================

// CopiedMsg reports a successful clipboard write. Failures are logged and
// produce no message.
type CopiedMsg struct {
	Chars int
}

// CopyCmd writes text to the system clipboard.
func CopyCmd(text string, log *zap.Logger) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			if log != nil {
				log.Warn("clipboard write failed", zap.Error(err))
			}
			return nil
		}
		return CopiedMsg{Chars: len([]rune(text))}
	}
}
