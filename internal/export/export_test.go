// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/pgpt-tui/internal/session"
)

func sampleState() session.State {
	st := session.DefaultState()
	st.ChatMode = session.ModeQuery
	st.SelectedFiles = []string{"policy.pdf"}
	user := session.NewMessage(session.RoleUser, "What is the refund policy?\nPlease be brief.")
	asst := session.NewAssistantMessage("Refunds are issued within 30 days.", []session.Citation{
		{DocumentID: "d1", FileName: "policy.pdf", PageLabel: "2", Excerpt: "within 30 days"},
		{DocumentID: "d2", FileName: "faq.md", Excerpt: "ask support"},
	})
	asst.Score = session.ScorePositive
	st.Messages = []session.Message{user, asst}
	return st
}

func TestFromSession(t *testing.T) {
	tr := FromSession(sampleState())

	if tr.Title != "What is the refund policy?" {
		t.Errorf("Title = %q", tr.Title)
	}
	if tr.Mode != "Query docs" {
		t.Errorf("Mode = %q", tr.Mode)
	}
	if len(tr.Messages) != 2 {
		t.Fatalf("got %d messages", len(tr.Messages))
	}
	if tr.Messages[1].Score != "positive" {
		t.Errorf("Score = %q", tr.Messages[1].Score)
	}
	if tr.Messages[0].Score != "" {
		t.Errorf("unset score should be empty, got %q", tr.Messages[0].Score)
	}
	if len(tr.Messages[1].Sources) != 2 || tr.Messages[1].Sources[0].Page != "2" {
		t.Errorf("Sources = %+v", tr.Messages[1].Sources)
	}
	if tr.CreatedAt.IsZero() {
		t.Error("CreatedAt should come from the first message")
	}
}

func TestFromSession_LongTitleTruncated(t *testing.T) {
	st := session.DefaultState()
	st.Messages = []session.Message{session.NewMessage(session.RoleUser, strings.Repeat("x", 200))}
	tr := FromSession(st)
	if got := len([]rune(tr.Title)); got > titleWidth {
		t.Errorf("title is %d runes, want <= %d", got, titleWidth)
	}
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(FromSession(sampleState()))
	if err != nil {
		t.Fatal(err)
	}
	md := string(out)
	for _, want := range []string{
		"---\ntitle: What is the refund policy?",
		"### [User]",
		"### [Assistant]",
		"**Sources:**",
		"- policy.pdf (page 2)",
		"- faq.md\n",
		"<sub>Rated positive</sub>",
		"- **Files**: policy.pdf",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownExport_FrontmatterInjection(t *testing.T) {
	tr := FromSession(sampleState())
	tr.Title = "Test\nInjection: malicious"

	out, err := NewMarkdownExporter(nil).Export(tr)
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.SplitN(string(out), "---\n", 3)
	if len(parts) < 3 {
		t.Fatalf("frontmatter not found")
	}
	var fm map[string]interface{}
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		t.Fatalf("frontmatter is not valid YAML: %v", err)
	}
	if _, ok := fm["Injection"]; ok {
		t.Error("title newline injected a frontmatter key")
	}
	if fm["title"] != "Test\nInjection: malicious" {
		t.Errorf("title = %q", fm["title"])
	}
}

func TestMarkdownExport_NoOptions(t *testing.T) {
	opts := &Options{}
	out, err := NewMarkdownExporter(opts).Export(FromSession(sampleState()))
	if err != nil {
		t.Fatal(err)
	}
	md := string(out)
	if strings.HasPrefix(md, "---\n") {
		t.Error("frontmatter written with IncludeMetadata=false")
	}
	if strings.Contains(md, "**Sources:**") {
		t.Error("sources written with IncludeSources=false")
	}
	if strings.Contains(md, "### [User] <sub>") {
		t.Error("timestamps written with IncludeTimestamps=false")
	}
}

func TestExporters_RejectEmpty(t *testing.T) {
	empty := FromSession(session.DefaultState())
	for _, format := range Formats {
		exp, err := ForFormat(format, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := exp.Export(empty); !errors.Is(err, ErrEmptyTranscript) {
			t.Errorf("%s: err = %v, want ErrEmptyTranscript", format, err)
		}
		if _, err := exp.Export(nil); err == nil {
			t.Errorf("%s: nil transcript should fail", format)
		}
	}
}

func TestJSONAndYAMLExport(t *testing.T) {
	tr := FromSession(sampleState())

	data, err := NewJSONExporter(nil).Export(tr)
	if err != nil {
		t.Fatal(err)
	}
	var back Transcript
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Title != tr.Title || len(back.Messages) != 2 || back.Messages[1].Sources[1].File != "faq.md" {
		t.Errorf("JSON export lost data: %+v", back)
	}

	data, err = NewYAMLExporter(nil).Export(tr)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "selected_files:") || !strings.Contains(string(data), "- policy.pdf") {
		t.Errorf("YAML export:\n%s", data)
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format string
		ext    string
		ok     bool
	}{
		{"md", ".md", true},
		{"markdown", ".md", true},
		{"JSON", ".json", true},
		{"yml", ".yaml", true},
		{"html", "", false},
	}
	for _, tt := range tests {
		exp, err := ForFormat(tt.format, nil)
		if (err == nil) != tt.ok {
			t.Errorf("ForFormat(%q) err = %v", tt.format, err)
			continue
		}
		if tt.ok && exp.FileExtension() != tt.ext {
			t.Errorf("ForFormat(%q).FileExtension() = %q, want %q", tt.format, exp.FileExtension(), tt.ext)
		}
	}
}

func TestExportToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	opts := DefaultOptions()
	opts.OutputDir = dir

	path, err := ExportToFile(FromSession(sampleState()), NewJSONExporter(opts), opts)
	if err != nil {
		t.Fatal(err)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "pgpt_What_is_the_refund_policy-_") || !strings.HasSuffix(base, ".json") {
		t.Errorf("file name = %q", base)
	}
	if _, err := time.Parse("20060102_150405", strings.TrimSuffix(strings.TrimPrefix(base, "pgpt_What_is_the_refund_policy-_"), ".json")); err != nil {
		t.Errorf("file name timestamp: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("exported file is empty")
	}
}

func TestFilenameSanitization(t *testing.T) {
	tests := []struct {
		input     string
		forbidden []string
		want      string
	}{
		{"file/with/slashes", []string{"/"}, "file-with-slashes"},
		{"file\\with\\backslashes", []string{"\\"}, "file-with-backslashes"},
		{"file:with:colons", []string{":"}, "file-with-colons"},
		{"file with spaces", []string{" "}, "file_with_spaces"},
		{"bell\x07char", []string{"\x07"}, "bell-char"},
		{"", nil, "chat"},
	}
	for _, tt := range tests {
		got := sanitizeFilename(tt.input)
		for _, c := range tt.forbidden {
			if strings.Contains(got, c) {
				t.Errorf("sanitizeFilename(%q) contains %q: %q", tt.input, c, got)
			}
		}
		if got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
	if got := sanitizeFilename(strings.Repeat("a", 80)); len(got) != 50 {
		t.Errorf("long name not capped: %d", len(got))
	}
}
