// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package privategpt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClientWithConfig(&ClientConfig{BaseURL: srv.URL + "/", Timeout: 2 * time.Second})
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c := NewClientWithConfig(nil)
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", c.BaseURL(), DefaultBaseURL)
	}
	if c.Config().Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", c.Config().Timeout)
	}

	c = NewClient("http://host:8001///")
	if c.BaseURL() != "http://host:8001" {
		t.Errorf("trailing slashes not trimmed: %q", c.BaseURL())
	}
}

// =============================================================================
// HEALTH TESTS
// =============================================================================

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    bool
		wantErr bool
	}{
		{"ok", http.StatusOK, `{"status":"ok"}`, true, false},
		{"not ok", http.StatusOK, `{"status":"starting"}`, false, false},
		{"server error", http.StatusServiceUnavailable, `{"detail":"warming up"}`, false, true},
		{"garbage", http.StatusOK, `<html>`, false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("path = %q, want /health", r.URL.Path)
				}
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))

			got, err := c.Health(context.Background())
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("Health() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHealth_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	ok, err := NewClient(url).Health(context.Background())
	if ok {
		t.Error("Health should be false for a closed server")
	}
	if !IsConnection(err) {
		t.Errorf("err = %v, want connection error", err)
	}
}

func TestHealth_HTTPDetail(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"detail":"warming up"}`)
	}))
	_, err := c.Health(context.Background())
	if !IsHTTPStatus(err, http.StatusServiceUnavailable) {
		t.Fatalf("err = %v, want HTTP 503", err)
	}
	if !strings.Contains(err.Error(), "warming up") {
		t.Errorf("error should carry server detail: %v", err)
	}
}

// =============================================================================
// STREAMING TESTS
// =============================================================================

func TestChatCompletionStream_RequestShape(t *testing.T) {
	var got ChatBody
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))

	var acc StreamAccumulator
	err := c.ChatCompletionStream(context.Background(), ChatBody{
		Messages:       []OpenAIMessage{NewSystemMessage("be brief"), NewUserMessage("hello")},
		UseContext:     true,
		IncludeSources: true,
		ContextFilter:  NewContextFilter([]string{"a", "b"}),
	}, acc.Add)
	if err != nil {
		t.Fatalf("ChatCompletionStream error: %v", err)
	}

	if acc.Text() != "hi" {
		t.Errorf("Text = %q, want hi", acc.Text())
	}
	if !got.Stream {
		t.Error("stream flag should be forced on")
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != RoleSystem {
		t.Errorf("messages = %+v", got.Messages)
	}
	if got.ContextFilter == nil || strings.Join(got.ContextFilter.DocsIDs, ",") != "a,b" {
		t.Errorf("context filter = %+v", got.ContextFilter)
	}
}

func TestChatCompletionStream_OmitsEmptyFilter(t *testing.T) {
	var raw map[string]interface{}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		fmt.Fprint(w, "data: [DONE]\n")
	}))

	err := c.ChatCompletionStream(context.Background(), ChatBody{
		Messages:      []OpenAIMessage{NewUserMessage("x")},
		ContextFilter: NewContextFilter(nil),
	}, func(StreamChunk) {})
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if _, ok := raw["context_filter"]; ok {
		t.Error("context_filter should be omitted when no ids are given")
	}
}

func TestCompletionStream_Endpoint(t *testing.T) {
	var got CompletionsBody
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/completions" {
			t.Errorf("path = %q, want /v1/completions", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"42\"},\"finish_reason\":\"stop\"}]}\n")
	}))

	var acc StreamAccumulator
	err := c.CompletionStream(context.Background(), CompletionsBody{Prompt: "meaning?", SystemPrompt: "terse"}, acc.Add)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if got.Prompt != "meaning?" || got.SystemPrompt != "terse" || !got.Stream {
		t.Errorf("body = %+v", got)
	}
	if acc.Text() != "42" || !acc.Done() {
		t.Errorf("Text = %q, Done = %v", acc.Text(), acc.Done())
	}
}

func TestStream_Cancel(t *testing.T) {
	started := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n")
		w.(http.Flusher).Flush()
		close(started)
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	err := c.ChatCompletionStream(ctx, ChatBody{Messages: []OpenAIMessage{NewUserMessage("x")}}, func(StreamChunk) {})
	if !IsCancelled(err) {
		t.Errorf("err = %v, want cancelled", err)
	}
}

func TestStream_HTTPError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"LLM unavailable"}`, http.StatusInternalServerError)
	}))

	err := c.CompletionStream(context.Background(), CompletionsBody{Prompt: "x"}, func(StreamChunk) {})
	if !IsHTTPStatus(err, http.StatusInternalServerError) {
		t.Errorf("err = %v, want HTTP 500", err)
	}
}

// =============================================================================
// RETRIEVAL AND INGESTION TESTS
// =============================================================================

func TestChunksRetrieval(t *testing.T) {
	var got ChunksBody
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chunks" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"object":"list","model":"private-gpt","data":[
			{"object":"context.chunk","score":0.9,"document":{"doc_id":"d1","doc_metadata":{"file_name":"a.pdf","page_label":2,"original_text":"window text"}},"text":"chunk text"},
			{"object":"context.chunk","score":0.5,"document":{"doc_id":"d2","doc_metadata":{"file_name":"b.txt"}},"text":"plain"}
		]}`)
	}))

	chunks, err := c.ChunksRetrieval(context.Background(), ChunksBody{Text: "refund policy", Limit: 4})
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if got.Text != "refund policy" || got.Limit != 4 {
		t.Errorf("body = %+v", got)
	}
	if len(chunks) != 2 {
		t.Fatalf("len = %d, want 2", len(chunks))
	}
	if chunks[0].Document.DocMetadata.PageLabel() != "2" {
		t.Errorf("numeric page label = %q, want 2", chunks[0].Document.DocMetadata.PageLabel())
	}
	if chunks[0].Excerpt() != "window text" {
		t.Errorf("Excerpt() = %q, want original text", chunks[0].Excerpt())
	}
	if chunks[1].Excerpt() != "plain" || chunks[1].Document.DocMetadata.PageLabel() != "" {
		t.Errorf("fallback excerpt/page = %q/%q", chunks[1].Excerpt(), chunks[1].Document.DocMetadata.PageLabel())
	}
}

func TestListIngested(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/ingest/list" || r.Method != http.MethodGet {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"object":"list","model":"private-gpt","data":[
			{"object":"ingest.document","doc_id":"d1","doc_metadata":{"file_name":"a.pdf"}},
			{"object":"ingest.document","doc_id":"d2","doc_metadata":{"file_name":"a.pdf"}}
		]}`)
	}))

	docs, err := c.ListIngested(context.Background())
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if len(docs) != 2 || docs[1].DocID != "d2" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestIngestFile(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/ingest/file" {
			t.Errorf("path = %q", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		data, _ := io.ReadAll(file)
		if header.Filename != "notes.txt" || string(data) != "hello" {
			t.Errorf("upload = %q %q", header.Filename, data)
		}
		_, _ = io.WriteString(w, `{"object":"list","model":"private-gpt","data":[{"object":"ingest.document","doc_id":"n1","doc_metadata":{"file_name":"notes.txt"}}]}`)
	}))

	docs, err := c.IngestFile(context.Background(), "notes.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if len(docs) != 1 || docs[0].DocID != "n1" {
		t.Errorf("docs = %+v", docs)
	}

	if _, err := c.IngestFile(context.Background(), "", strings.NewReader("x")); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestDeleteIngested(t *testing.T) {
	var path string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		path = r.URL.EscapedPath()
	}))

	if err := c.DeleteIngested(context.Background(), "id with space"); err != nil {
		t.Fatalf("error: %v", err)
	}
	if path != "/v1/ingest/id%20with%20space" {
		t.Errorf("path = %q", path)
	}
	if err := c.DeleteIngested(context.Background(), ""); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestRateLimiter(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	}))
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL, RequestsPerSecond: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if _, err := c.Health(ctx); err != nil {
		t.Fatalf("first request should pass: %v", err)
	}
	// Second token arrives after 1s, beyond the deadline.
	if _, err := c.Health(ctx); err == nil {
		t.Error("second request should be throttled past the deadline")
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1", hits)
	}
}

func TestErrorTypeString(t *testing.T) {
	if ErrTypeTimeout.String() != "timeout" || ErrorType(99).String() != "unknown" {
		t.Error("unexpected ErrorType names")
	}
}
