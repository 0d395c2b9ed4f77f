// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/pgpt-tui/internal/privategpt"
	"github.com/jeranaias/pgpt-tui/internal/session"
	"github.com/jeranaias/pgpt-tui/internal/storage"
)

// =============================================================================
// FAKE SERVICE
// =============================================================================

type recorded struct {
	path string
	body map[string]interface{}
}

type fakeServer struct {
	t *testing.T

	mu   sync.Mutex
	reqs []recorded

	// handle writes the response; the request body is already recorded.
	handle func(w http.ResponseWriter, r *http.Request, body map[string]interface{})
}

func newFake(t *testing.T, handle func(w http.ResponseWriter, r *http.Request, body map[string]interface{})) (*fakeServer, *Gateway) {
	f := &fakeServer{t: t, handle: handle}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(data, &body)
		f.mu.Lock()
		f.reqs = append(f.reqs, recorded{path: r.URL.Path, body: body})
		f.mu.Unlock()
		f.handle(w, r, body)
	}))
	t.Cleanup(srv.Close)
	return f, New(privategpt.NewClient(srv.URL), Options{})
}

func (f *fakeServer) requests() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded{}, f.reqs...)
}

func sseDelta(w http.ResponseWriter, text string) {
	fmt.Fprintf(w, "data: {\"object\":\"completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q},\"finish_reason\":null}]}\n\n", text)
	if fl, ok := w.(http.Flusher); ok {
		fl.Flush()
	}
}

func sseFinish(w http.ResponseWriter, sources string) {
	if sources == "" {
		sources = "[]"
	}
	fmt.Fprintf(w, "data: {\"object\":\"completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"\"},\"finish_reason\":\"stop\",\"sources\":%s}]}\n\n", sources)
	fmt.Fprint(w, "data: [DONE]\n\n")
}

func streamText(parts ...string) func(http.ResponseWriter, *http.Request, map[string]interface{}) {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]interface{}) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, p := range parts {
			sseDelta(w, p)
		}
		sseFinish(w, "")
	}
}

func history(msgs ...string) []session.Message {
	out := make([]session.Message, len(msgs))
	for i, m := range msgs {
		role := session.RoleUser
		if i%2 == 1 {
			role = session.RoleAssistant
		}
		out[i] = session.NewMessage(role, m)
	}
	return out
}

// =============================================================================
// REQUEST SHAPES
// =============================================================================

func TestSubmit_ChatSendsHistoryWithoutFilter(t *testing.T) {
	fake, gw := newFake(t, streamText("Hello", " there"))

	var deltas []string
	res, err := gw.Submit(gw.Begin(), Request{
		Surface:      session.SurfaceChat,
		Mode:         session.ModeChat,
		History:      history("hi", "hello", "how are you?"),
		SystemPrompt: "Be brief.",
		DocIDs:       []string{"ignored"},
	}, func(d string) { deltas = append(deltas, d) })

	require.NoError(t, err)
	assert.Equal(t, "Hello there", res.Text)
	assert.Equal(t, []string{"Hello", " there"}, deltas)
	assert.Empty(t, res.Sources)

	reqs := fake.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/v1/chat/completions", reqs[0].path)
	body := reqs[0].body
	assert.NotContains(t, body, "context_filter")
	assert.Equal(t, false, body["use_context"])
	assert.Equal(t, true, body["stream"])

	msgs := body["messages"].([]interface{})
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
	assert.Equal(t, "Be brief.", msgs[0].(map[string]interface{})["content"])
	assert.Equal(t, "how are you?", msgs[3].(map[string]interface{})["content"])
}

func TestSubmit_QueryFiltersBySelectedDocs(t *testing.T) {
	fake, gw := newFake(t, func(w http.ResponseWriter, r *http.Request, _ map[string]interface{}) {
		sseDelta(w, "Thirty days.")
		sseFinish(w, `[{"object":"context.chunk","score":0.9,"text":"Refunds within 30 days","document":{"doc_id":"d2","doc_metadata":{"file_name":"policy.pdf","page_label":"4"}}}]`)
	})

	res, err := gw.Submit(gw.Begin(), Request{
		Surface: session.SurfaceChat,
		Mode:    session.ModeQuery,
		History: history("earlier", "answer", "refund policy?"),
		DocIDs:  []string{"d1", "d2"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Thirty days.", res.Text)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, session.Citation{DocumentID: "d2", FileName: "policy.pdf", PageLabel: "4", Excerpt: "Refunds within 30 days"}, res.Sources[0])

	body := fake.requests()[0].body
	assert.Equal(t, true, body["use_context"])
	assert.Equal(t, true, body["include_sources"])
	filter := body["context_filter"].(map[string]interface{})
	assert.Equal(t, []interface{}{"d1", "d2"}, filter["docs_ids"])

	msgs := body["messages"].([]interface{})
	require.Len(t, msgs, 1, "query sends only the latest user message")
	assert.Equal(t, "refund policy?", msgs[0].(map[string]interface{})["content"])
}

func TestSubmit_QueryWithoutSelectionOmitsFilter(t *testing.T) {
	fake, gw := newFake(t, streamText("ok"))
	_, err := gw.Submit(gw.Begin(), Request{
		Surface: session.SurfaceChat,
		Mode:    session.ModeQuery,
		History: history("anything"),
	}, nil)
	require.NoError(t, err)
	assert.NotContains(t, fake.requests()[0].body, "context_filter")
}

func TestSubmit_PlaygroundPrompt(t *testing.T) {
	fake, gw := newFake(t, streamText("A haiku."))
	res, err := gw.Submit(gw.Begin(), Request{
		Surface:      session.SurfacePlayground,
		Mode:         session.ModePrompt,
		Prompt:       "Write a haiku",
		SystemPrompt: "You are a poet.",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "A haiku.", res.Text)

	req := fake.requests()[0]
	assert.Equal(t, "/v1/completions", req.path)
	assert.Equal(t, "Write a haiku", req.body["prompt"])
	assert.Equal(t, "You are a poet.", req.body["system_prompt"])
	assert.Equal(t, false, req.body["use_context"])
}

func TestSubmit_PlaygroundQuery(t *testing.T) {
	fake, gw := newFake(t, streamText("ok"))
	_, err := gw.Submit(gw.Begin(), Request{
		Surface: session.SurfacePlayground,
		Mode:    session.ModeQuery,
		Prompt:  "summarise",
		DocIDs:  []string{"x"},
	}, nil)
	require.NoError(t, err)
	body := fake.requests()[0].body
	assert.Equal(t, true, body["use_context"])
	assert.Equal(t, true, body["include_sources"])
	assert.Contains(t, body, "context_filter")
}

func TestSubmit_Validation(t *testing.T) {
	_, gw := newFake(t, streamText("never"))
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"empty prompt", Request{Surface: session.SurfacePlayground, Mode: session.ModePrompt, Prompt: "  "}, ErrEmptyPrompt},
		{"no user message", Request{Surface: session.SurfaceChat, Mode: session.ModeChat}, ErrEmptyPrompt},
		{"wrong mode", Request{Surface: session.SurfaceChat, Mode: session.ModePrompt, History: history("x")}, session.ErrInvalidMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gw.Submit(gw.Begin(), tt.req, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.False(t, gw.Busy())
}

// =============================================================================
// SEARCH
// =============================================================================

func TestSubmit_SearchSynthesizesAnswer(t *testing.T) {
	fake, gw := newFake(t, func(w http.ResponseWriter, r *http.Request, _ map[string]interface{}) {
		fmt.Fprint(w, `{"object":"list","model":"private-gpt","data":[
			{"object":"context.chunk","score":0.91,"text":"Refunds are issued within 30 days.","document":{"doc_id":"a1","doc_metadata":{"file_name":"policy.pdf","page_label":"2"}}},
			{"object":"context.chunk","score":0.80,"text":"short","document":{"doc_id":"b1","doc_metadata":{"file_name":"faq.md","original_text":"Ask support for a refund."}}}
		]}`)
	})

	called := false
	res, err := gw.Submit(gw.Begin(), Request{
		Surface: session.SurfaceChat,
		Mode:    session.ModeSearch,
		History: history("refund policy"),
		DocIDs:  []string{"a1", "b1"},
	}, func(string) { called = true })
	require.NoError(t, err)

	assert.False(t, called, "search must not stream")
	assert.Empty(t, res.Sources)
	assert.Equal(t,
		"**1.policy.pdf (page 2)**\n\n Refunds are issued within 30 days. \n\n"+
			"**2.faq.md**\n\n Ask support for a refund. \n\n",
		res.Text)

	req := fake.requests()[0]
	assert.Equal(t, "/v1/chunks", req.path)
	assert.Equal(t, "refund policy", req.body["text"])
	assert.Equal(t, float64(DefaultSearchLimit), req.body["limit"])
}

func TestSubmit_SearchNoResults(t *testing.T) {
	_, gw := newFake(t, func(w http.ResponseWriter, r *http.Request, _ map[string]interface{}) {
		fmt.Fprint(w, `{"object":"list","data":[]}`)
	})
	res, err := gw.Submit(gw.Begin(), Request{Surface: session.SurfaceChat, Mode: session.ModeSearch, History: history("x")}, nil)
	require.NoError(t, err)
	assert.Equal(t, NoResultsText, res.Text)
}

// =============================================================================
// FAILURE AND CANCELLATION
// =============================================================================

func TestSubmit_MidStreamFailureDiscardsPartial(t *testing.T) {
	_, gw := newFake(t, func(w http.ResponseWriter, r *http.Request, _ map[string]interface{}) {
		sseDelta(w, "The refun")
		// Connection closes with no finish reason and no [DONE].
	})
	st, err := session.Open(storage.NewMemory(), nil)
	require.NoError(t, err)

	user := session.NewMessage(session.RoleUser, "refund policy?")
	require.NoError(t, st.AppendMessage(user))

	var partial strings.Builder
	res, err := gw.Submit(gw.Begin(), Request{
		Surface: session.SurfaceChat,
		Mode:    session.ModeChat,
		History: st.Messages(),
	}, func(d string) { partial.WriteString(d) })

	require.Error(t, err)
	assert.ErrorIs(t, err, privategpt.ErrTruncated)
	assert.Empty(t, res.Text)
	assert.Equal(t, "The refun", partial.String(), "the delta was shown while streaming")

	msgs := st.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, session.RoleUser, msgs[0].Role)
}

func TestSubmit_HTTPError(t *testing.T) {
	_, gw := newFake(t, func(w http.ResponseWriter, r *http.Request, _ map[string]interface{}) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"detail":"model loading"}`)
	})
	_, err := gw.Submit(gw.Begin(), Request{Surface: session.SurfaceChat, Mode: session.ModeChat, History: history("x")}, nil)
	require.Error(t, err)
	assert.True(t, privategpt.IsHTTPStatus(err, http.StatusServiceUnavailable))
	assert.False(t, errors.Is(err, ErrCancelled))
}

// endlessStream writes deltas until the client goes away.
func endlessStream(started chan<- struct{}) func(http.ResponseWriter, *http.Request, map[string]interface{}) {
	var once sync.Once
	return func(w http.ResponseWriter, r *http.Request, body map[string]interface{}) {
		msgs, _ := body["messages"].([]interface{})
		last := ""
		if len(msgs) > 0 {
			last, _ = msgs[len(msgs)-1].(map[string]interface{})["content"].(string)
		}
		if last == "second" {
			sseDelta(w, "fresh")
			sseFinish(w, "")
			return
		}
		for i := 0; ; i++ {
			select {
			case <-r.Context().Done():
				return
			default:
			}
			sseDelta(w, "stale ")
			if i == 0 {
				once.Do(func() { close(started) })
			}
			time.Sleep(2 * time.Millisecond)
		}
	}
}

func TestCancelThenSubmit_NoStaleDeltas(t *testing.T) {
	started := make(chan struct{})
	_, gw := newFake(t, endlessStream(started))

	var (
		mu      sync.Mutex
		applied []string
	)
	apply := func(d string) {
		mu.Lock()
		applied = append(applied, d)
		mu.Unlock()
	}
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(applied)
	}

	first := gw.Begin()
	firstDone := make(chan error, 1)
	go func() {
		_, err := gw.Submit(first, Request{Surface: session.SurfaceChat, Mode: session.ModeChat, History: history("first")}, apply)
		firstDone <- err
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first stream never started")
	}
	require.Eventually(t, func() bool { return count() > 0 }, 5*time.Second, time.Millisecond)

	// Begin cancels the first token; nothing from it may land afterwards.
	second := gw.Begin()
	assert.True(t, first.Cancelled())
	atCancel := count()

	// Simulate clearing history: drop what the first stream wrote.
	mu.Lock()
	applied = nil
	mu.Unlock()

	res, err := gw.Submit(second, Request{Surface: session.SurfaceChat, Mode: session.ModeChat, History: history("second")}, apply)
	require.NoError(t, err)
	assert.Equal(t, "fresh", res.Text)

	select {
	case err := <-firstDone:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled request did not return")
	}

	assert.Greater(t, atCancel, 0)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"fresh"}, applied, "no stale delta applied after cancel")
}

func TestCancel_Idle(t *testing.T) {
	_, gw := newFake(t, streamText("x"))
	gw.Cancel()
	assert.False(t, gw.Busy())

	tok := gw.Begin()
	assert.True(t, gw.Busy())
	assert.True(t, gw.IsCurrent(tok.ID()))
	gw.Cancel()
	assert.False(t, gw.Busy())

	_, err := gw.Submit(tok, Request{Surface: session.SurfaceChat, Mode: session.ModeChat, History: history("x")}, nil)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestToken_IDsIncrease(t *testing.T) {
	_, gw := newFake(t, streamText("x"))
	a := gw.Begin()
	b := gw.Begin()
	assert.Greater(t, b.ID(), a.ID())
	assert.True(t, a.Cancelled())
	assert.False(t, b.Cancelled())
	gw.Cancel()
}

// =============================================================================
// EVENT STREAM
// =============================================================================

func TestStream_Events(t *testing.T) {
	_, gw := newFake(t, streamText("a", "b"))
	tok := gw.Begin()
	ch := gw.Stream(tok, Request{Surface: session.SurfaceChat, Mode: session.ModeChat, History: history("x")})

	var events []Event
	for ev := range ch {
		events = append(events, ev)
	}
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Equal(t, tok.ID(), ev.TokenID)
	}
	assert.Equal(t, EventDelta, events[0].Kind)
	assert.Equal(t, "a", events[0].Delta)
	assert.Equal(t, EventDone, events[2].Kind)
	assert.Equal(t, "ab", events[2].Result.Text)
	assert.False(t, gw.Busy())
}

func TestStream_ErrorEvent(t *testing.T) {
	_, gw := newFake(t, func(w http.ResponseWriter, r *http.Request, _ map[string]interface{}) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	ch := gw.Stream(gw.Begin(), Request{Surface: session.SurfaceChat, Mode: session.ModeChat, History: history("x")})
	var last Event
	for ev := range ch {
		last = ev
	}
	assert.Equal(t, EventError, last.Kind)
	assert.Error(t, last.Err)
}

func TestStream_CancelledClosesWithoutFinalEvent(t *testing.T) {
	started := make(chan struct{})
	_, gw := newFake(t, endlessStream(started))
	tok := gw.Begin()
	ch := gw.Stream(tok, Request{Surface: session.SurfaceChat, Mode: session.ModeChat, History: history("first")})
	<-started
	gw.Cancel()

	for ev := range ch {
		assert.Equal(t, EventDelta, ev.Kind, "only buffered deltas may remain")
	}
}
