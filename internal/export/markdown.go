// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

type frontmatter struct {
	Title     string   `yaml:"title"`
	Mode      string   `yaml:"mode"`
	Date      string   `yaml:"date"`
	Messages  int      `yaml:"messages"`
	Files     []string `yaml:"files,omitempty"`
	Exported  string   `yaml:"exported"`
	Generator string   `yaml:"generator"`
}

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(tr *Transcript) ([]byte, error) {
	if err := validate(tr); err != nil {
		return nil, err
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		// yaml.v3 quotes anything that would break the header.
		fm, err := yaml.Marshal(frontmatter{
			Title:     tr.Title,
			Mode:      tr.Mode,
			Date:      tr.CreatedAt.Format(time.RFC3339),
			Messages:  len(tr.Messages),
			Files:     tr.Files,
			Exported:  time.Now().Format(time.RFC3339),
			Generator: "pgpt-tui",
		})
		if err != nil {
			return nil, fmt.Errorf("frontmatter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(fm)
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(tr.Title))

	if e.options.IncludeMetadata {
		sb.WriteString("## Session Information\n\n")
		fmt.Fprintf(&sb, "- **Mode**: %s\n", tr.Mode)
		fmt.Fprintf(&sb, "- **Started**: %s\n", formatTimestamp(tr.CreatedAt))
		fmt.Fprintf(&sb, "- **Messages**: %d\n", len(tr.Messages))
		if len(tr.Files) > 0 {
			fmt.Fprintf(&sb, "- **Files**: %s\n", strings.Join(tr.Files, ", "))
		}
		if tr.SystemPrompt != "" {
			fmt.Fprintf(&sb, "- **System prompt**: %s\n", tr.SystemPrompt)
		}
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Conversation\n\n")
	for i, msg := range tr.Messages {
		label := roleLabel(msg.Role)
		if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(msg.Timestamp))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", label)
		}

		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n\n")

		if e.options.IncludeSources && len(msg.Sources) > 0 {
			sb.WriteString("**Sources:**\n\n")
			for _, src := range msg.Sources {
				if src.Page != "" {
					fmt.Fprintf(&sb, "- %s (page %s)\n", src.File, src.Page)
				} else {
					fmt.Fprintf(&sb, "- %s\n", src.File)
				}
			}
			sb.WriteString("\n")
		}
		if msg.Score != "" {
			fmt.Fprintf(&sb, "<sub>Rated %s</sub>\n\n", msg.Score)
		}

		if i < len(tr.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	fmt.Fprintf(&sb, "*Exported from pgpt-tui on %s*\n", time.Now().Format("January 2, 2006 at 3:04 PM"))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string { return "text/markdown" }

func roleLabel(role string) string {
	switch role {
	case "user":
		return "[User]"
	case "assistant":
		return "[Assistant]"
	case "":
		return "Unknown"
	default:
		return "[" + strings.ToUpper(role[:1]) + role[1:] + "]"
	}
}

// escapeMarkdown escapes characters that would break a heading.
func escapeMarkdown(s string) string {
	return strings.NewReplacer(
		"#", "\\#",
		"*", "\\*",
		"_", "\\_",
		"[", "\\[",
		"]", "\\]",
	).Replace(s)
}
