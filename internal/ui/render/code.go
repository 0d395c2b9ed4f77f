// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// =============================================================================
// CODE HIGHLIGHTING
// =============================================================================

// chromaStyle picks a highlighting style that reads on the background.
func chromaStyle(dark bool) *chroma.Style {
	name := "github"
	if dark {
		name = "monokai"
	}
	if s := chromaStyles.Get(name); s != nil {
		return s
	}
	return chromaStyles.Fallback
}

// HighlightCode colours code for a 256-colour terminal. An unknown
// language is guessed from the code. On any failure code is returned
// unchanged.
func HighlightCode(code, language string, dark bool) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, chromaStyle(dark), iterator); err != nil {
		return code
	}
	return buf.String()
}

// HighlightFences highlights every ``` fenced block in text and leaves the
// rest untouched. An unterminated fence runs to the end of the text, which
// is what a still-streaming answer looks like.
func HighlightFences(text string, dark bool) string {
	lines := strings.Split(text, "\n")
	var (
		out    []string
		code   []string
		lang   string
		inside bool
	)
	flush := func() {
		if len(code) == 0 {
			return
		}
		hl := strings.TrimRight(HighlightCode(strings.Join(code, "\n"), lang, dark), "\n")
		out = append(out, hl)
		code = code[:0]
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inside {
				flush()
				out = append(out, line)
				inside = false
				continue
			}
			inside = true
			lang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			out = append(out, line)
			continue
		}
		if inside {
			code = append(code, line)
		} else {
			out = append(out, line)
		}
	}
	if inside {
		flush()
	}
	return strings.Join(out, "\n")
}
