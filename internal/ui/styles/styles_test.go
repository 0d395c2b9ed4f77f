// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"regexp"
	"testing"

	"github.com/muesli/termenv"
)

func TestResize_CompactThreshold(t *testing.T) {
	tests := []struct {
		width  int
		layout Layout
		want   bool
	}{
		{80, LayoutAuto, true},
		{96, LayoutAuto, true},
		{97, LayoutAuto, false},
		{200, LayoutAuto, false},
		{200, LayoutCompact, true},
		{40, LayoutWide, false},
	}
	for _, tt := range tests {
		a := NewAppearance(true, tt.layout, termenv.Ascii)
		a = a.Apply(ResizeEvent{Width: tt.width, Height: 30})
		if a.Compact != tt.want {
			t.Errorf("width %d layout %s: Compact = %v, want %v", tt.width, tt.layout, a.Compact, tt.want)
		}
		if a.Width != tt.width || a.Height != 30 {
			t.Errorf("size not recorded: %dx%d", a.Width, a.Height)
		}
	}
}

func TestResize_NoHysteresis(t *testing.T) {
	a := NewAppearance(false, LayoutAuto, termenv.Ascii)
	flips := 0
	prev := a.Compact
	for _, w := range []int{96, 97, 96, 97, 96} {
		a = a.Apply(ResizeEvent{Width: w})
		if a.Compact != prev {
			flips++
		}
		prev = a.Compact
	}
	if flips != 4 {
		t.Errorf("flips = %d, want 4 (one per crossing)", flips)
	}
}

func TestApply_IsPure(t *testing.T) {
	a := NewAppearance(false, LayoutAuto, termenv.Ascii)
	b := a.Apply(ToggleDarkEvent{})
	if a.Dark {
		t.Error("Apply mutated the receiver")
	}
	if !b.Dark {
		t.Error("ToggleDarkEvent did not flip Dark")
	}
	if c := b.Apply(DarkModeEvent{Dark: false}); c.Dark {
		t.Error("DarkModeEvent{false} left Dark set")
	}
	if d := b.Apply(nil); d != b {
		t.Error("nil event changed the appearance")
	}
}

func TestInitialDark(t *testing.T) {
	yes, no := true, false
	detectDark := func() bool { return true }
	detectLight := func() bool { return false }

	tests := []struct {
		name   string
		stored *bool
		theme  string
		detect func() bool
		want   bool
	}{
		{"stored dark wins over config", &yes, "light", detectLight, true},
		{"stored light wins over terminal", &no, "auto", detectDark, false},
		{"config dark", nil, "dark", detectLight, true},
		{"config light", nil, "LIGHT", detectDark, false},
		{"auto follows terminal", nil, "auto", detectLight, false},
		{"empty follows terminal", nil, "", detectDark, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InitialDark(tt.stored, tt.theme, tt.detect); got != tt.want {
				t.Errorf("InitialDark() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLayout(t *testing.T) {
	for in, want := range map[string]Layout{
		"compact": LayoutCompact,
		"Wide":    LayoutWide,
		"auto":    LayoutAuto,
		"mobile":  LayoutAuto,
	} {
		if got := ParseLayout(in); got != want {
			t.Errorf("ParseLayout(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBubbleWidth(t *testing.T) {
	wide := NewAppearance(true, LayoutAuto, termenv.Ascii).Apply(ResizeEvent{Width: 200})
	if got := wide.BubbleWidth(); got != 100 {
		t.Errorf("wide BubbleWidth = %d, want 100", got)
	}
	narrow := NewAppearance(true, LayoutAuto, termenv.Ascii).Apply(ResizeEvent{Width: 60})
	if got := narrow.BubbleWidth(); got != 58 {
		t.Errorf("compact BubbleWidth = %d, want 58", got)
	}
}

func TestNewTheme_FollowsAppearance(t *testing.T) {
	dark := NewTheme(NewAppearance(true, LayoutAuto, termenv.TrueColor))
	light := NewTheme(NewAppearance(false, LayoutAuto, termenv.TrueColor))

	if !dark.IsDark() || light.IsDark() {
		t.Fatal("IsDark does not follow the appearance")
	}
	if !dark.Renderer().HasDarkBackground() || light.Renderer().HasDarkBackground() {
		t.Error("renderer background flag does not follow the appearance")
	}

	d := dark.Title.Render("x")
	l := light.Title.Render("x")
	if d == l {
		t.Error("dark and light themes rendered identically")
	}
}

func TestNewTheme_CompactDropsBorders(t *testing.T) {
	wide := NewTheme(NewAppearance(true, LayoutWide, termenv.Ascii))
	comp := NewTheme(NewAppearance(true, LayoutCompact, termenv.Ascii))

	if comp.UserBubble.GetMarginLeft() != 0 {
		t.Errorf("compact MarginLeft = %d, want 0", comp.UserBubble.GetMarginLeft())
	}
	if wide.UserBubble.GetMarginLeft() != 4 {
		t.Errorf("wide MarginLeft = %d, want 4", wide.UserBubble.GetMarginLeft())
	}
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func TestAllColors_ValidHex(t *testing.T) {
	for name, c := range AllColors() {
		if !hexColor.MatchString(c.Light) || !hexColor.MatchString(c.Dark) {
			t.Errorf("%s has invalid hex: %q / %q", name, c.Light, c.Dark)
		}
	}
}
