// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"sync"
)

// =============================================================================
// CANCELLATION TOKEN
// =============================================================================

// Token scopes one request. It must be used as a pointer; it holds a mutex.
type Token struct {
	id     uint64
	ctx    context.Context
	cancel context.CancelFunc

	// applyMu orders delta application against Cancel.
	applyMu sync.Mutex
}

func newToken(parent context.Context, id uint64) *Token {
	ctx, cancel := context.WithCancel(parent)
	return &Token{id: id, ctx: ctx, cancel: cancel}
}

// ID returns the token's sequence number. Later tokens have larger ids.
func (t *Token) ID() uint64 { return t.id }

// Context returns the context that aborts the underlying HTTP request.
func (t *Token) Context() context.Context { return t.ctx }

// Cancelled reports whether the token has been cancelled.
func (t *Token) Cancelled() bool { return t.ctx.Err() != nil }

// Cancel aborts the request. Once Cancel returns, no further delta is
// applied under this token. Safe to call more than once.
func (t *Token) Cancel() {
	t.cancel()
	// Wait out a delta that passed the check before the cancel.
	t.applyMu.Lock()
	t.applyMu.Unlock()
}

// apply runs fn unless the token is cancelled. Returns whether fn ran.
func (t *Token) apply(fn func()) bool {
	t.applyMu.Lock()
	defer t.applyMu.Unlock()
	if t.ctx.Err() != nil {
		return false
	}
	fn()
	return true
}
