// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package privategpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// DefaultBaseURL is where a local PrivateGPT instance listens.
const DefaultBaseURL = "http://localhost:8001"

// ClientConfig holds configuration options for the PrivateGPT client.
type ClientConfig struct {
	// BaseURL is the API base URL (default: http://localhost:8001)
	BaseURL string

	// Timeout for non-streaming requests (default: 30s)
	Timeout time.Duration

	// StreamTimeout bounds a whole streamed completion. Zero leaves it to
	// the caller's context.
	StreamTimeout time.Duration

	// UploadTimeout bounds a file upload (default: 10m). Ingestion embeds
	// the document before answering.
	UploadTimeout time.Duration

	// RequestsPerSecond throttles outbound requests. Zero disables it.
	RequestsPerSecond float64

	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       DefaultBaseURL,
		Timeout:       30 * time.Second,
		UploadTimeout: 10 * time.Minute,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the PrivateGPT API.
//
// The Client is safe for concurrent use.
//
// Example:
//
//	client := privategpt.NewClient(privategpt.DefaultBaseURL)
//	if ok, _ := client.Health(ctx); !ok {
//	    return privategpt.ErrNotHealthy
//	}
//	chunks, err := client.ChunksRetrieval(ctx, privategpt.ChunksBody{Text: "refund policy"})
type Client struct {
	config       ClientConfig
	httpClient   *http.Client
	streamClient *http.Client
	limiter      *rate.Limiter
}

// NewClient creates a client for baseURL with default settings.
func NewClient(baseURL string) *Client {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	return NewClientWithConfig(cfg)
}

// NewClientWithConfig creates a client with custom configuration. Zero
// values are filled with defaults.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UploadTimeout == 0 {
		cfg.UploadTimeout = 10 * time.Minute
	}

	c := &Client{config: cfg}
	if cfg.HTTPClient != nil {
		c.httpClient = cfg.HTTPClient
		c.streamClient = cfg.HTTPClient
	} else {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
		// Streams are bounded by context, not by a client timeout.
		c.streamClient = &http.Client{}
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Config returns a copy of the client configuration.
func (c *Client) Config() ClientConfig {
	return c.config
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return transportError("rate limit", err)
	}
	return nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeDecode, Message: "failed to marshal request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConfig, Message: "failed to create request", Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req and decodes a JSON response into out (if non-nil).
func (c *Client) do(client *http.Client, req *http.Request, op string, out interface{}) error {
	if err := c.wait(req.Context()); err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp.StatusCode, readDetail(resp.Body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeDecode, Message: op + ": failed to decode response", Cause: err}
	}
	return nil
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// Health probes GET /health. It returns true only for a 200 response whose
// status is "ok". Unreachable services return false with the cause.
func (c *Client) Health(ctx context.Context) (bool, error) {
	if c.config.BaseURL == "" {
		return false, ErrEmptyBaseURL
	}
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return false, err
	}

	var health HealthResponse
	if err := c.do(c.httpClient, req, "health check", &health); err != nil {
		return false, err
	}
	return strings.EqualFold(health.Status, "ok"), nil
}

// =============================================================================
// COMPLETIONS
// =============================================================================

// ChatCompletionStream sends a chat completion request with stream=true and
// calls callback for every decoded event. Returns when the stream is
// complete, ctx is cancelled or the connection fails.
func (c *Client) ChatCompletionStream(ctx context.Context, body ChatBody, callback StreamCallback) error {
	body.Stream = true
	return c.stream(ctx, "/v1/chat/completions", "chat completion", body, callback)
}

// CompletionStream sends a prompt completion request with stream=true.
func (c *Client) CompletionStream(ctx context.Context, body CompletionsBody, callback StreamCallback) error {
	body.Stream = true
	return c.stream(ctx, "/v1/completions", "completion", body, callback)
}

// ChatCompletion sends a non-streaming chat completion request.
func (c *Client) ChatCompletion(ctx context.Context, body ChatBody) (*OpenAICompletion, error) {
	body.Stream = false
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/v1/chat/completions", body)
	if err != nil {
		return nil, err
	}
	var out OpenAICompletion
	if err := c.do(c.httpClient, req, "chat completion", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) stream(ctx context.Context, path, op string, body interface{}, callback StreamCallback) error {
	if c.config.StreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.StreamTimeout)
		defer cancel()
	}

	req, err := c.newJSONRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	if err := c.wait(ctx); err != nil {
		return err
	}
	resp, err := c.streamClient.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(op, resp.StatusCode, readDetail(resp.Body))
	}

	return NewStreamReader(resp.Body).Process(ctx, callback)
}

// =============================================================================
// RETRIEVAL
// =============================================================================

// ChunksRetrieval returns the chunks most similar to body.Text, best first.
func (c *Client) ChunksRetrieval(ctx context.Context, body ChunksBody) ([]Chunk, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/v1/chunks", body)
	if err != nil {
		return nil, err
	}
	var out listResponse[Chunk]
	if err := c.do(c.httpClient, req, "chunks retrieval", &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// =============================================================================
// INGESTION
// =============================================================================

// ListIngested returns every ingested document.
func (c *Client) ListIngested(ctx context.Context) ([]IngestedDoc, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/v1/ingest/list", nil)
	if err != nil {
		return nil, err
	}
	var out listResponse[IngestedDoc]
	if err := c.do(c.httpClient, req, "list ingested", &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// IngestFile uploads content as a multipart "file" field named name.
func (c *Client) IngestFile(ctx context.Context, name string, content io.Reader) ([]IngestedDoc, error) {
	if name == "" {
		return nil, &ClientError{Type: ErrTypeConfig, Message: "file name is required"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.UploadTimeout)
	defer cancel()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeDecode, Message: "failed to build upload", Cause: err}
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, &ClientError{Type: ErrTypeDecode, Message: "failed to read upload", Cause: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &ClientError{Type: ErrTypeDecode, Message: "failed to build upload", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/ingest/file", &buf)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConfig, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var out listResponse[IngestedDoc]
	// Upload is bounded by ctx, not the short request timeout.
	if err := c.do(c.streamClient, req, "ingest file", &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// DeleteIngested deletes one ingested document by id.
func (c *Client) DeleteIngested(ctx context.Context, docID string) error {
	if docID == "" {
		return &ClientError{Type: ErrTypeConfig, Message: "document id is required"}
	}
	req, err := c.newJSONRequest(ctx, http.MethodDelete, "/v1/ingest/"+url.PathEscape(docID), nil)
	if err != nil {
		return err
	}
	return c.do(c.httpClient, req, "delete ingested", nil)
}

// =============================================================================
// HELPERS
// =============================================================================

// readDetail extracts FastAPI's {"detail": ...} message, or a short body.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body errorBody
	if json.Unmarshal(data, &body) == nil && body.Detail != nil {
		if s, ok := body.Detail.(string); ok {
			return s
		}
		return fmt.Sprint(body.Detail)
	}
	return strings.TrimSpace(string(data))
}

func drainAndClose(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, r)
	r.Close()
}
