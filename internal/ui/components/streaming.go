// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pgpt-tui/internal/session"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

const (
	defaultBatchSize = 15
	defaultMaxFPS    = 30
)

// StreamingBuffer collects streamed deltas and releases them to the view in
// batches, either every batchSize deltas or once per frame at 30 fps.
// Re-rendering markdown for every delta is what it avoids.
//
// Safe for concurrent use.
type StreamingBuffer struct {
	mu        sync.Mutex
	pending   strings.Builder
	shown     strings.Builder
	deltas    int
	lastFlush time.Time

	batchSize   int
	minInterval time.Duration
}

// NewStreamingBuffer creates a buffer with the default batch size and rate.
func NewStreamingBuffer() *StreamingBuffer {
	return newStreamingBuffer(defaultBatchSize, time.Second/defaultMaxFPS)
}

func newStreamingBuffer(batchSize int, minInterval time.Duration) *StreamingBuffer {
	return &StreamingBuffer{
		batchSize:   batchSize,
		minInterval: minInterval,
		lastFlush:   time.Now(),
	}
}

// Write queues a delta.
func (sb *StreamingBuffer) Write(delta string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.pending.WriteString(delta)
	sb.deltas++
}

// Flush moves queued text into the visible text when a batch is full or a
// frame has passed. It reports whether the visible text changed.
func (sb *StreamingBuffer) Flush() bool {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.pending.Len() == 0 {
		return false
	}
	if sb.deltas < sb.batchSize && time.Since(sb.lastFlush) < sb.minInterval {
		return false
	}
	sb.flushLocked()
	return true
}

// ForceFlush moves all queued text regardless of thresholds.
func (sb *StreamingBuffer) ForceFlush() bool {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.pending.Len() == 0 {
		return false
	}
	sb.flushLocked()
	return true
}

func (sb *StreamingBuffer) flushLocked() {
	sb.shown.WriteString(sb.pending.String())
	sb.pending.Reset()
	sb.deltas = 0
	sb.lastFlush = time.Now()
}

// Text returns the visible text.
func (sb *StreamingBuffer) Text() string {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.shown.String()
}

// Pending returns the number of deltas not yet visible.
func (sb *StreamingBuffer) Pending() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.deltas
}

// Reset drops everything, visible and queued.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.pending.Reset()
	sb.shown.Reset()
	sb.deltas = 0
	sb.lastFlush = time.Now()
}

// =============================================================================
// STREAMING TICK
// =============================================================================

// StreamTickMsg drives the 30 fps flush of a surface's buffer.
type StreamTickMsg struct {
	Surface session.Surface
	Time    time.Time
}

// StreamTickCmd schedules the next frame for surface.
func StreamTickCmd(surface session.Surface) tea.Cmd {
	return tea.Tick(time.Second/defaultMaxFPS, func(t time.Time) tea.Msg {
		return StreamTickMsg{Surface: surface, Time: t}
	})
}
