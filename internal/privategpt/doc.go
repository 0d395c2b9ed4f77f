// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package privategpt provides the HTTP client for the PrivateGPT API.
//
// It covers the endpoints the front end needs: the health probe, streamed
// chat and prompt completions, similarity search over ingested chunks, and
// document ingestion (list, upload, delete).
//
// # Key Types
//
//   - Client: thread-safe API client
//   - ClientConfig: base URL, timeouts and outbound request rate
//   - ChatBody, CompletionsBody, ChunksBody: request payloads
//   - Chunk, IngestedDoc: retrieval and ingestion results
//   - StreamChunk: one decoded server-sent event of a completion
//   - ClientError: categorised failure (connection, timeout, HTTP, decode, cancelled)
//
// # Usage
//
//	client := privategpt.NewClientWithConfig(&privategpt.ClientConfig{
//	    BaseURL: "http://localhost:8001",
//	})
//
//	ok, err := client.Health(ctx)
//
//	err = client.ChatCompletionStream(ctx, privategpt.ChatBody{
//	    Messages:       []privategpt.OpenAIMessage{privategpt.NewUserMessage("hi")},
//	    UseContext:     true,
//	    IncludeSources: true,
//	    ContextFilter:  privategpt.NewContextFilter(docIDs),
//	}, func(chunk privategpt.StreamChunk) {
//	    fmt.Print(chunk.Delta)
//	})
//
// # Streaming
//
// Completions arrive as server-sent events ("data: {...}" lines) ending with
// "data: [DONE]". A stream that closes before either a finish reason or the
// DONE marker is reported as a connection error, so callers can tell a
// truncated answer from a complete one.
package privategpt
