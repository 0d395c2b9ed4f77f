// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"

	"github.com/jeranaias/pgpt-tui/internal/files"
	"github.com/jeranaias/pgpt-tui/internal/gateway"
	"github.com/jeranaias/pgpt-tui/internal/session"
	"github.com/jeranaias/pgpt-tui/internal/ui/render"
	"github.com/jeranaias/pgpt-tui/internal/ui/styles"
)

func testTheme(compact bool) *styles.Theme {
	layout := styles.LayoutWide
	if compact {
		layout = styles.LayoutCompact
	}
	a := styles.NewAppearance(true, layout, termenv.Ascii)
	a = a.Apply(styles.ResizeEvent{Width: 120, Height: 40})
	return styles.NewTheme(a)
}

// =============================================================================
// STREAMING BUFFER TESTS
// =============================================================================

func TestStreamingBufferFlushBySize(t *testing.T) {
	sb := newStreamingBuffer(3, time.Hour)

	sb.Write("A")
	sb.Write("B")
	if sb.Flush() {
		t.Error("flushed before reaching batch size")
	}
	if sb.Text() != "" {
		t.Errorf("Text() = %q before flush", sb.Text())
	}

	sb.Write("C")
	if !sb.Flush() {
		t.Fatal("did not flush at batch size")
	}
	if sb.Text() != "ABC" {
		t.Errorf("Text() = %q, want ABC", sb.Text())
	}
	if sb.Pending() != 0 {
		t.Errorf("Pending() = %d after flush", sb.Pending())
	}
}

func TestStreamingBufferFlushByTime(t *testing.T) {
	sb := newStreamingBuffer(100, 0)
	sb.Write("slow")
	if !sb.Flush() {
		t.Error("did not flush once the interval passed")
	}
	if sb.Flush() {
		t.Error("flushed with nothing pending")
	}
}

func TestStreamingBufferForceFlushAndReset(t *testing.T) {
	sb := newStreamingBuffer(100, time.Hour)
	sb.Write("The ")
	sb.Write("refund")
	if !sb.ForceFlush() {
		t.Fatal("ForceFlush with pending text returned false")
	}
	if sb.Text() != "The refund" {
		t.Errorf("Text() = %q", sb.Text())
	}

	sb.Write(" policy")
	sb.Reset()
	if sb.Text() != "" || sb.Pending() != 0 {
		t.Errorf("Reset left text %q pending %d", sb.Text(), sb.Pending())
	}
	if sb.ForceFlush() {
		t.Error("ForceFlush after Reset returned true")
	}
}

// =============================================================================
// EVENT WAITING TESTS
// =============================================================================

func TestWaitForEventDrainsUntilClosed(t *testing.T) {
	ch := make(chan gateway.Event, 2)
	ch <- gateway.Event{Kind: gateway.EventDelta, TokenID: 7, Delta: "hi"}
	close(ch)

	msg := WaitForEvent(session.SurfaceChat, 7, ch)().(StreamEventMsg)
	if msg.Closed || msg.Event.Delta != "hi" || msg.Event.TokenID != 7 {
		t.Fatalf("first message = %+v", msg)
	}
	if msg.Surface != session.SurfaceChat {
		t.Errorf("Surface = %q", msg.Surface)
	}

	next := msg.Next()
	if next == nil {
		t.Fatal("Next() is nil before the channel closed")
	}
	last := next().(StreamEventMsg)
	if !last.Closed || last.TokenID != 7 {
		t.Fatalf("expected Closed for token 7, got %+v", last)
	}
	if last.Next() != nil {
		t.Error("Next() after Closed should be nil")
	}
}

// =============================================================================
// FILE PICKER TESTS
// =============================================================================

func TestFilePickerCursorAndSelection(t *testing.T) {
	p := NewFilePicker(testTheme(false))
	p.SetEntries([]files.FileEntry{
		{FileName: "a.pdf", DocIDs: []string{"1"}},
		{FileName: "b.pdf", DocIDs: []string{"2"}},
		{FileName: "c.pdf", DocIDs: []string{"3"}},
	})
	p.SetSelected([]string{"b.pdf", "gone.pdf"})

	if got := p.SelectedCount(); got != 1 {
		t.Errorf("SelectedCount() = %d, want 1", got)
	}

	p.MoveUp()
	if name, _ := p.Current(); name != "a.pdf" {
		t.Errorf("Current() = %q at top", name)
	}
	p.MoveDown()
	p.MoveDown()
	p.MoveDown()
	if name, _ := p.Current(); name != "c.pdf" {
		t.Errorf("Current() = %q at bottom", name)
	}

	p.SetEntries([]files.FileEntry{{FileName: "a.pdf"}})
	if name, ok := p.Current(); !ok || name != "a.pdf" {
		t.Errorf("cursor not clamped: %q %v", name, ok)
	}

	p.SetEntries(nil)
	if _, ok := p.Current(); ok {
		t.Error("Current() on empty list should report false")
	}
}

func TestFilePickerView(t *testing.T) {
	p := NewFilePicker(testTheme(false))
	p.SetEntries(nil)
	if out := p.View(60, 5, true); !strings.Contains(out, NoFilesText) {
		t.Errorf("empty view missing placeholder:\n%s", out)
	}

	p.SetEntries([]files.FileEntry{{FileName: "policy.pdf"}})
	p.SetSelected([]string{"policy.pdf"})
	p.SetUploading(true)
	out := p.View(60, 5, false)
	for _, want := range []string{"[x] policy.pdf", "Uploading...", "Files (1 selected)"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		cursor, n, rows int
		start, end      int
	}{
		{0, 3, 5, 0, 3},
		{0, 10, 4, 0, 4},
		{5, 10, 4, 3, 7},
		{9, 10, 4, 6, 10},
		{2, 10, 0, 0, 10},
	}
	for _, tt := range tests {
		start, end := window(tt.cursor, tt.n, tt.rows)
		if start != tt.start || end != tt.end {
			t.Errorf("window(%d, %d, %d) = %d, %d; want %d, %d",
				tt.cursor, tt.n, tt.rows, start, end, tt.start, tt.end)
		}
	}
}

// =============================================================================
// ALERT TESTS
// =============================================================================

func TestAlertNoticeExpires(t *testing.T) {
	a := NewAlert(testTheme(false))
	cmd := a.Notice("Copied")
	if cmd == nil || !a.Visible() || a.IsError() {
		t.Fatal("notice not shown")
	}

	a = a.Update(AlertExpiredMsg{ID: -1})
	if !a.Visible() {
		t.Error("expired by an unrelated id")
	}
	a = a.Update(AlertExpiredMsg{ID: a.id})
	if a.Visible() {
		t.Error("notice still visible after expiry")
	}
}

func TestAlertErrorStaysUntilDismissed(t *testing.T) {
	a := NewAlert(testTheme(false))
	a.Error("service unavailable")
	a = a.Update(AlertExpiredMsg{ID: a.id})
	if !a.IsError() {
		t.Error("error alert expired on its own")
	}
	if out := a.View(80); !strings.Contains(out, "service unavailable") {
		t.Errorf("View() = %q", out)
	}
	a.Dismiss()
	if a.Visible() || a.View(80) != "" {
		t.Error("Dismiss did not hide the alert")
	}
}

// =============================================================================
// RENDERING TESTS
// =============================================================================

func TestSourceLabelsDistinct(t *testing.T) {
	got := SourceLabels([]session.Citation{
		{FileName: "a.pdf", PageLabel: "1"},
		{FileName: "a.pdf", PageLabel: "1"},
		{FileName: "a.pdf", PageLabel: "2"},
		{FileName: "notes.txt"},
	})
	want := []string{"a.pdf (page 1)", "a.pdf (page 2)", "notes.txt"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("SourceLabels() = %v, want %v", got, want)
	}
}

func TestRenderMessage(t *testing.T) {
	th := testTheme(false)
	md := render.NewMarkdown(false, nil)

	msg := session.NewAssistantMessage("Refunds take 30 days.", []session.Citation{{FileName: "policy.pdf", PageLabel: "4"}})
	msg.Score = session.ScorePositive
	out := RenderMessage(th, md, msg, MessageOptions{Width: 100})
	for _, want := range []string{"Refunds take 30 days.", "Sources:", "policy.pdf (page 4)", "+ helpful"} {
		if !strings.Contains(out, want) {
			t.Errorf("assistant bubble missing %q:\n%s", want, out)
		}
	}

	user := RenderMessage(th, md, session.NewMessage(session.RoleUser, "what is the refund policy"), MessageOptions{Width: 100, Highlighted: true})
	if !strings.Contains(user, "refund policy") || !strings.Contains(user, "|") {
		t.Errorf("user bubble:\n%s", user)
	}
}

func TestRenderStatusBar(t *testing.T) {
	info := StatusInfo{
		Surface:  session.SurfaceChat,
		Mode:     session.ModeQuery,
		Selected: 2,
		BaseURL:  "http://localhost:8001",
	}
	wide := RenderStatusBar(testTheme(false), info, 100)
	for _, want := range []string{"Chat", "Query docs", "2 files", "Ready", "localhost:8001"} {
		if !strings.Contains(wide, want) {
			t.Errorf("wide status bar missing %q: %q", want, wide)
		}
	}

	compact := RenderStatusBar(testTheme(true), info, 100)
	if strings.Contains(compact, "localhost:8001") {
		t.Errorf("compact status bar shows the server: %q", compact)
	}

	info.Mode = session.ModeChat
	if out := RenderStatusBar(testTheme(false), info, 100); strings.Contains(out, "files") {
		t.Errorf("chat mode shows the file count: %q", out)
	}
}

func TestRenderModes(t *testing.T) {
	out := RenderModes(testTheme(false), session.SurfacePlayground, session.ModeSearch, 100)
	for _, want := range []string{"Query docs", "Search files", "Prompt", session.ModeSearch.Description()} {
		if !strings.Contains(out, want) {
			t.Errorf("modes missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "LLM Chat") {
		t.Error("playground lists the chat mode")
	}
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestCleanPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"  /tmp/a.pdf ", "/tmp/a.pdf"},
		{`"/tmp/my file.pdf"`, "/tmp/my file.pdf"},
		{"'/tmp/x.txt'", "/tmp/x.txt"},
		{"~/docs/a.pdf", filepath.Join(home, "docs/a.pdf")},
	}
	for _, tt := range tests {
		if got := CleanPath(tt.in); got != tt.want {
			t.Errorf("CleanPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{4400 * time.Millisecond, "4s"},
		{65 * time.Second, "1m05s"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestDepsLogNeverNil(t *testing.T) {
	if (Deps{}).Log() == nil {
		t.Error("Log() returned nil")
	}
}
