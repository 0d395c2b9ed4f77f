// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package privategpt

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
)

// =============================================================================
// STREAM READER
// =============================================================================

const (
	ssePrefix  = "data:"
	sseDone    = "[DONE]"
	maxSSELine = 1 << 20
)

// StreamReader decodes a server-sent event completion stream.
type StreamReader struct {
	scanner  *bufio.Scanner
	finished bool
	events   int
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)
	return &StreamReader{scanner: scanner}
}

// Process reads the stream and calls callback for each decoded event.
// Blocks until the stream is complete or ctx is cancelled. The final
// callback always has Done set when Process returns nil.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return transportError("stream", err)
		}

		payload, ok := ssePayload(s.scanner.Bytes())
		if !ok {
			continue
		}
		if string(payload) == sseDone {
			callback(StreamChunk{Done: true})
			return nil
		}

		var event OpenAICompletion
		if err := json.Unmarshal(payload, &event); err != nil {
			// Skip malformed events
			continue
		}
		s.events++

		chunk, finished := decodeEvent(event)
		if finished {
			s.finished = true
		}
		if chunk.Delta != "" || len(chunk.Sources) > 0 {
			callback(chunk)
		}
	}

	if err := s.scanner.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return transportError("stream", ctxErr)
		}
		if errors.Is(err, bufio.ErrTooLong) {
			return &ClientError{Type: ErrTypeDecode, Message: "stream event too large", Cause: err}
		}
		return transportError("stream", err)
	}
	if err := ctx.Err(); err != nil {
		return transportError("stream", err)
	}

	// EOF without [DONE] is fine only after a finish reason was seen.
	if !s.finished {
		return ErrTruncated
	}
	callback(StreamChunk{Done: true})
	return nil
}

// Events returns how many well-formed events were decoded.
func (s *StreamReader) Events() int {
	return s.events
}

// ssePayload extracts the data field of an SSE line. Comments, blank lines
// and other fields report ok=false.
func ssePayload(line []byte) ([]byte, bool) {
	line = bytes.TrimRight(line, "\r")
	if !bytes.HasPrefix(line, []byte(ssePrefix)) {
		return nil, false
	}
	payload := bytes.TrimSpace(line[len(ssePrefix):])
	if len(payload) == 0 {
		return nil, false
	}
	return payload, true
}

func decodeEvent(event OpenAICompletion) (StreamChunk, bool) {
	var chunk StreamChunk
	finished := false
	for _, choice := range event.Choices {
		if choice.Delta != nil {
			chunk.Delta += choice.Delta.Content
		} else if choice.Message != nil {
			chunk.Delta += choice.Message.Content
		}
		if len(choice.Sources) > 0 {
			chunk.Sources = append(chunk.Sources, choice.Sources...)
		}
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			finished = true
		}
	}
	return chunk, finished
}

// =============================================================================
// STREAM ACCUMULATOR
// =============================================================================

// StreamAccumulator collects a stream into its final text and sources.
type StreamAccumulator struct {
	buf     bytes.Buffer
	sources []Chunk
	done    bool
}

// Add records one chunk.
func (a *StreamAccumulator) Add(chunk StreamChunk) {
	a.buf.WriteString(chunk.Delta)
	if len(chunk.Sources) > 0 {
		a.sources = chunk.Sources
	}
	if chunk.Done {
		a.done = true
	}
}

// Text returns everything accumulated so far.
func (a *StreamAccumulator) Text() string {
	return a.buf.String()
}

// Sources returns the last citation set received.
func (a *StreamAccumulator) Sources() []Chunk {
	return a.sources
}

// Done reports whether the terminal chunk was seen.
func (a *StreamAccumulator) Done() bool {
	return a.done
}
