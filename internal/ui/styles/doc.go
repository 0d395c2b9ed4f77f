// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles owns the terminal appearance: light/dark preference,
compact/wide layout, and the lipgloss styles derived from them.

# Appearance (appearance.go)

Appearance is an immutable value. Every change goes through Apply:

	a := styles.DetectAppearance(store.DarkMode(), cfg.UI.Theme, cfg.UI.Layout)
	a = a.Apply(styles.ResizeEvent{Width: 120, Height: 40})
	a = a.Apply(styles.ToggleDarkEvent{})

The layout is compact at 96 columns or fewer, which corresponds to a
768 pixel viewport at 8 pixels per cell. There is no hysteresis.

# Colors (colors.go)

All colors are lipgloss.AdaptiveColor values. The renderer each Theme owns
decides which side applies, so a stored dark preference overrides the
terminal's own background.

# Theme (theme.go)

	theme := styles.NewTheme(a)
	fmt.Println(theme.UserBubble.Render("hello"))

Rebuild the Theme whenever the Appearance changes.
*/
package styles
