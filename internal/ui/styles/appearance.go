// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/muesli/termenv"
)

// CompactMaxWidth is the widest terminal, in columns, that gets the compact
// layout.
const CompactMaxWidth = 96

// Layout forces or auto-detects the compact layout.
type Layout string

const (
	LayoutAuto    Layout = "auto"
	LayoutCompact Layout = "compact"
	LayoutWide    Layout = "wide"
)

// ParseLayout maps a config value to a Layout. Unknown values are auto.
func ParseLayout(s string) Layout {
	switch Layout(strings.ToLower(s)) {
	case LayoutCompact:
		return LayoutCompact
	case LayoutWide:
		return LayoutWide
	default:
		return LayoutAuto
	}
}

// =============================================================================
// APPEARANCE
// =============================================================================

// Appearance is the display state every view renders from. Treat it as a
// value; change it only through Apply.
type Appearance struct {
	Dark    bool
	Compact bool
	Width   int
	Height  int
	Layout  Layout
	Profile termenv.Profile
}

// Event is something that changes an Appearance.
type Event interface {
	apply(Appearance) Appearance
}

// ResizeEvent reports a new terminal size.
type ResizeEvent struct {
	Width  int
	Height int
}

func (e ResizeEvent) apply(a Appearance) Appearance {
	a.Width, a.Height = e.Width, e.Height
	a.Compact = compact(a.Width, a.Layout)
	return a
}

// DarkModeEvent sets the dark preference.
type DarkModeEvent struct {
	Dark bool
}

func (e DarkModeEvent) apply(a Appearance) Appearance {
	a.Dark = e.Dark
	return a
}

// ToggleDarkEvent flips the dark preference.
type ToggleDarkEvent struct{}

func (ToggleDarkEvent) apply(a Appearance) Appearance {
	a.Dark = !a.Dark
	return a
}

// Apply returns the appearance after ev.
func (a Appearance) Apply(ev Event) Appearance {
	if ev == nil {
		return a
	}
	return ev.apply(a)
}

func compact(width int, layout Layout) bool {
	switch layout {
	case LayoutCompact:
		return true
	case LayoutWide:
		return false
	}
	return width <= CompactMaxWidth
}

// NewAppearance creates an appearance before the first resize. Width is
// unknown, so only a forced compact layout is compact.
func NewAppearance(dark bool, layout Layout, profile termenv.Profile) Appearance {
	return Appearance{
		Dark:    dark,
		Layout:  layout,
		Profile: profile,
		Compact: layout == LayoutCompact,
	}
}

// InitialDark resolves the starting dark flag: the stored preference, else
// the configured theme, else the terminal background.
func InitialDark(stored *bool, configTheme string, detect func() bool) bool {
	if stored != nil {
		return *stored
	}
	switch strings.ToLower(configTheme) {
	case "dark":
		return true
	case "light":
		return false
	}
	if detect == nil {
		return true
	}
	return detect()
}

// DetectAppearance builds the initial appearance from the stored
// preference, config and terminal capabilities.
func DetectAppearance(stored *bool, configTheme, layout string) Appearance {
	dark := InitialDark(stored, configTheme, termenv.HasDarkBackground)
	return NewAppearance(dark, ParseLayout(layout), termenv.ColorProfile())
}

// ContentWidth is the usable width inside the app's horizontal padding.
func (a Appearance) ContentWidth() int {
	w := a.Width - 2
	if w < 20 {
		w = 20
	}
	return w
}

// BubbleWidth is the maximum width of a message bubble.
func (a Appearance) BubbleWidth() int {
	w := a.ContentWidth()
	if a.Compact {
		return w
	}
	w = w * 3 / 4
	if w > 100 {
		w = 100
	}
	return w
}
