// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/pgpt-tui/internal/files"
	"github.com/jeranaias/pgpt-tui/internal/ui/styles"
	"github.com/jeranaias/pgpt-tui/internal/util"
)

// NoFilesText is shown when nothing has been ingested.
const NoFilesText = "No files ingested"

// =============================================================================
// FILE PICKER
// =============================================================================

// FilePicker lists ingested files and marks the selected ones. It holds a
// copy of the registry's list; the session owns the selection.
type FilePicker struct {
	theme *styles.Theme

	entries   []files.FileEntry
	selected  map[string]bool
	cursor    int
	open      bool
	loading   bool
	uploading bool
}

// NewFilePicker creates a closed, empty picker.
func NewFilePicker(theme *styles.Theme) FilePicker {
	return FilePicker{theme: theme, selected: map[string]bool{}, loading: true}
}

// SetTheme rebinds the picker to theme.
func (p *FilePicker) SetTheme(theme *styles.Theme) {
	p.theme = theme
}

// SetEntries replaces the listed files and clamps the cursor.
func (p *FilePicker) SetEntries(entries []files.FileEntry) {
	p.entries = entries
	p.loading = false
	if p.cursor >= len(entries) {
		p.cursor = len(entries) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// SetSelected marks names as selected.
func (p *FilePicker) SetSelected(names []string) {
	p.selected = make(map[string]bool, len(names))
	for _, n := range names {
		p.selected[util.NormalizeName(n)] = true
	}
}

// SetUploading shows or hides the upload indicator.
func (p *FilePicker) SetUploading(uploading bool) {
	p.uploading = uploading
}

// Toggle opens or closes the panel.
func (p *FilePicker) Toggle() {
	p.open = !p.open
}

// IsOpen reports whether the panel is shown.
func (p FilePicker) IsOpen() bool {
	return p.open
}

// MoveUp moves the cursor up one file.
func (p *FilePicker) MoveUp() {
	if p.cursor > 0 {
		p.cursor--
	}
}

// MoveDown moves the cursor down one file.
func (p *FilePicker) MoveDown() {
	if p.cursor < len(p.entries)-1 {
		p.cursor++
	}
}

// Current returns the file under the cursor.
func (p FilePicker) Current() (string, bool) {
	if p.cursor < 0 || p.cursor >= len(p.entries) {
		return "", false
	}
	return p.entries[p.cursor].FileName, true
}

// Len returns the number of listed files.
func (p FilePicker) Len() int {
	return len(p.entries)
}

// SelectedCount returns how many listed files are selected.
func (p FilePicker) SelectedCount() int {
	n := 0
	for _, e := range p.entries {
		if p.selected[util.NormalizeName(e.FileName)] {
			n++
		}
	}
	return n
}

// View renders at most rows file lines. filesActive is false when the
// current mode ignores the selection.
func (p FilePicker) View(width, rows int, filesActive bool) string {
	t := p.theme
	inner := width - 4
	if inner < 10 {
		inner = 10
	}

	var b strings.Builder
	b.WriteString(t.Title.Render(fmt.Sprintf("Files (%d selected)", p.SelectedCount())))
	b.WriteString("\n")

	switch {
	case p.loading && len(p.entries) == 0:
		b.WriteString(t.Muted.Render("Loading..."))
	case len(p.entries) == 0:
		b.WriteString(t.Muted.Render(NoFilesText))
	default:
		start, end := window(p.cursor, len(p.entries), rows)
		for i := start; i < end; i++ {
			b.WriteString(p.renderEntry(i, inner))
			if i < end-1 {
				b.WriteString("\n")
			}
		}
	}

	if p.uploading {
		b.WriteString("\n")
		b.WriteString(t.Uploading.Render("Uploading..."))
	}
	if !filesActive {
		b.WriteString("\n")
		b.WriteString(t.Muted.Render(util.TruncateWidth("Selection is used by Query docs and Search files", inner)))
	}
	return t.FilePanel.Width(width - 2).Render(b.String())
}

func (p FilePicker) renderEntry(i, width int) string {
	t := p.theme
	e := p.entries[i]

	cursor := "  "
	if i == p.cursor {
		cursor = t.FileCursor.Render("> ")
	}
	box, style := "[ ] ", t.FileItem
	if p.selected[util.NormalizeName(e.FileName)] {
		box, style = "[x] ", t.FileItemSelected
	}
	return cursor + style.Render(box+util.TruncateWidth(e.FileName, width-6))
}

// window returns the [start, end) slice of n items, at most rows long,
// that keeps cursor visible.
func window(cursor, n, rows int) (int, int) {
	if rows <= 0 || n <= rows {
		return 0, n
	}
	start := cursor - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > n {
		start = n - rows
	}
	return start, start + rows
}
