// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/muesli/reflow/wordwrap"

	"github.com/jeranaias/pgpt-tui/internal/privategpt"
	"github.com/jeranaias/pgpt-tui/internal/util"
)

// =============================================================================
// SHARED HELPER FUNCTIONS
// =============================================================================

// formatElapsed formats d as "4s" or "1m05s".
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) - m*60
	return fmt.Sprintf("%dm%02ds", m, s)
}

func truncate(s string, width int) string {
	return util.TruncateWidth(s, width)
}

func wrap(s string, width int) string {
	if width < 10 {
		width = 10
	}
	return wordwrap.String(s, width)
}

// CleanPath turns a typed or pasted path into one the file system
// understands: quotes are stripped and a leading ~ is expanded.
func CleanPath(raw string) string {
	p := strings.TrimSpace(raw)
	if len(p) >= 2 {
		if (p[0] == '"' && p[len(p)-1] == '"') || (p[0] == '\'' && p[len(p)-1] == '\'') {
			p = p[1 : len(p)-1]
		}
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// DescribeError turns a request failure into alert text.
func DescribeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, privategpt.ErrTruncated):
		return "The answer was cut off before it finished. Try again."
	case privategpt.IsTimeout(err):
		return "PrivateGPT did not answer in time"
	case privategpt.IsConnection(err):
		return "Cannot reach PrivateGPT: " + err.Error()
	}
	return err.Error()
}
