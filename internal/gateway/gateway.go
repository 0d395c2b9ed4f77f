// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/pgpt-tui/internal/privategpt"
	"github.com/jeranaias/pgpt-tui/internal/session"
)

// ErrCancelled is returned by Submit when its token was cancelled.
var ErrCancelled = errors.New("request cancelled")

// NoResultsText is the search answer when nothing matched.
const NoResultsText = "No matching text found in the ingested files."

// DefaultSearchLimit is the number of chunks a search returns.
const DefaultSearchLimit = 4

// API is the part of the PrivateGPT client the gateway uses.
type API interface {
	ChatCompletionStream(ctx context.Context, body privategpt.ChatBody, cb privategpt.StreamCallback) error
	CompletionStream(ctx context.Context, body privategpt.CompletionsBody, cb privategpt.StreamCallback) error
	ChunksRetrieval(ctx context.Context, body privategpt.ChunksBody) ([]privategpt.Chunk, error)
}

// Options configures a Gateway.
type Options struct {
	// SearchLimit is the chunk count for search mode (default 4).
	SearchLimit int
	Logger      *zap.Logger
}

// =============================================================================
// GATEWAY
// =============================================================================

// Gateway issues one request at a time. It is safe for concurrent use.
type Gateway struct {
	api   API
	limit int
	log   *zap.Logger

	mu     sync.Mutex
	active *Token
	nextID uint64
}

// New creates a gateway over api.
func New(api API, opts Options) *Gateway {
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = DefaultSearchLimit
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Gateway{api: api, limit: opts.SearchLimit, log: opts.Logger.Named("gateway")}
}

// Begin cancels the active token, if any, and returns a new one.
func (g *Gateway) Begin() *Token {
	g.mu.Lock()
	prev := g.active
	g.nextID++
	tok := newToken(context.Background(), g.nextID)
	g.active = tok
	g.mu.Unlock()

	if prev != nil {
		prev.Cancel()
		g.log.Debug("superseded request", zap.Uint64("token", prev.ID()))
	}
	return tok
}

// Cancel cancels the active token. It is a no-op when idle.
func (g *Gateway) Cancel() {
	g.mu.Lock()
	tok := g.active
	g.active = nil
	g.mu.Unlock()

	if tok != nil {
		tok.Cancel()
		g.log.Debug("cancelled request", zap.Uint64("token", tok.ID()))
	}
}

// Busy reports whether a request is in flight.
func (g *Gateway) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active != nil
}

// IsCurrent reports whether id belongs to the in-flight token.
func (g *Gateway) IsCurrent(id uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active != nil && g.active.id == id
}

func (g *Gateway) finish(tok *Token) {
	g.mu.Lock()
	if g.active == tok {
		g.active = nil
	}
	g.mu.Unlock()
	tok.cancel()
}

// Submit runs req under tok and blocks until it finishes. onDelta receives
// streamed text and is never called once tok is cancelled. Search does not
// stream and never calls onDelta.
//
// A cancelled token yields ErrCancelled. Any other failure discards the
// partial text and returns the transport error.
func (g *Gateway) Submit(tok *Token, req Request, onDelta func(string)) (Result, error) {
	defer g.finish(tok)

	if err := req.validate(); err != nil {
		return Result{}, err
	}
	if tok.Cancelled() {
		return Result{}, ErrCancelled
	}

	start := time.Now()
	log := g.log.With(
		zap.Uint64("token", tok.ID()),
		zap.String("surface", string(req.Surface)),
		zap.String("mode", string(req.Mode)),
		zap.Int("doc_ids", len(req.DocIDs)),
	)
	log.Debug("submit")

	var (
		res Result
		err error
	)
	if req.Mode == session.ModeSearch {
		res, err = g.search(tok, req)
	} else {
		res, err = g.stream(tok, req, onDelta)
	}

	switch {
	case tok.Cancelled():
		log.Debug("request cancelled", zap.Duration("elapsed", time.Since(start)))
		return Result{}, ErrCancelled
	case err != nil:
		log.Warn("request failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return Result{}, err
	}
	log.Info("request complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(res.Text)),
		zap.Int("sources", len(res.Sources)))
	return res, nil
}

func (g *Gateway) search(tok *Token, req Request) (Result, error) {
	chunks, err := g.api.ChunksRetrieval(tok.Context(), req.chunksBody(g.limit))
	if err != nil {
		return Result{}, err
	}
	text := FormatSearchResults(chunks)
	if text == "" {
		text = NoResultsText
	}
	return Result{Text: text}, nil
}

func (g *Gateway) stream(tok *Token, req Request, onDelta func(string)) (Result, error) {
	var acc privategpt.StreamAccumulator
	cb := func(chunk privategpt.StreamChunk) {
		tok.apply(func() {
			acc.Add(chunk)
			if chunk.Delta != "" && onDelta != nil {
				onDelta(chunk.Delta)
			}
		})
	}

	var err error
	if req.Surface == session.SurfacePlayground {
		err = g.api.CompletionStream(tok.Context(), req.completionsBody(), cb)
	} else {
		err = g.api.ChatCompletionStream(tok.Context(), req.chatBody(), cb)
	}
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:    acc.Text(),
		Sources: session.CitationsFromChunks(acc.Sources()),
	}, nil
}

// =============================================================================
// EVENT STREAM
// =============================================================================

// EventKind distinguishes stream events.
type EventKind int

const (
	EventDelta EventKind = iota
	EventDone
	EventError
)

// Event is one step of a streamed request.
type Event struct {
	Kind    EventKind
	TokenID uint64
	Delta   string
	Result  Result
	Err     error
}

// Stream runs Submit in a goroutine and delivers its progress on the
// returned channel, which is closed afterwards. A cancelled request closes
// the channel without a final event.
func (g *Gateway) Stream(tok *Token, req Request) <-chan Event {
	ch := make(chan Event, 64)
	send := func(ev Event) {
		select {
		case ch <- ev:
		case <-tok.Context().Done():
		}
	}

	go func() {
		defer close(ch)
		res, err := g.Submit(tok, req, func(delta string) {
			send(Event{Kind: EventDelta, TokenID: tok.ID(), Delta: delta})
		})
		switch {
		case errors.Is(err, ErrCancelled):
		case err != nil:
			ch <- Event{Kind: EventError, TokenID: tok.ID(), Err: err}
		default:
			ch <- Event{Kind: EventDone, TokenID: tok.ID(), Result: res}
		}
	}()
	return ch
}
