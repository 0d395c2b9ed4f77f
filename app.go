// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/pgpt-tui/internal/session"
	"github.com/jeranaias/pgpt-tui/internal/ui/chat"
	"github.com/jeranaias/pgpt-tui/internal/ui/components"
	"github.com/jeranaias/pgpt-tui/internal/ui/playground"
	"github.com/jeranaias/pgpt-tui/internal/ui/styles"
)

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// storeChangedMsg reports that another process wrote the session.
type storeChangedMsg struct{}

// app is the root model. It owns the appearance and routes messages to the
// chat and playground surfaces. Only the visible surface receives keys.
type app struct {
	deps       components.Deps
	keys       components.KeyMap
	appearance styles.Appearance
	surface    session.Surface

	chat       chat.Model
	playground playground.Model

	changes <-chan struct{}
}

func newApp(deps components.Deps, a styles.Appearance, surface session.Surface, changes <-chan struct{}) app {
	if !surface.Valid() {
		surface = session.SurfaceChat
	}
	theme := styles.NewTheme(a)
	return app{
		deps:       deps,
		keys:       components.DefaultKeyMap(),
		appearance: a,
		surface:    surface,
		chat:       chat.New(deps, theme),
		playground: playground.New(deps, theme),
		changes:    changes,
	}
}

func (m app) Init() tea.Cmd {
	return tea.Batch(m.chat.Init(), m.playground.Init(), waitForChange(m.changes))
}

func (m app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.chat.Stop()
			m.playground.Stop()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Surface):
			m.switchSurface()
			return m, nil
		case key.Matches(msg, m.keys.ToggleDark):
			m.apply(styles.ToggleDarkEvent{})
			if err := m.deps.Session.SetDarkMode(m.appearance.Dark); err != nil {
				m.deps.Log().Warn("save dark mode", zap.Error(err))
			}
			return m, nil
		}
		return m.updateSurface(m.surface, msg)

	case tea.WindowSizeMsg:
		m.apply(styles.ResizeEvent{Width: msg.Width, Height: msg.Height})
		m.chat.SetSize(msg.Width, msg.Height)
		m.playground.SetSize(msg.Width, msg.Height)
		return m, nil

	case storeChangedMsg:
		m.reload()
		return m, waitForChange(m.changes)

	case components.StreamEventMsg:
		return m.updateSurface(msg.Surface, msg)
	case components.StreamTickMsg:
		return m.updateSurface(msg.Surface, msg)
	}

	// File lists, alerts, spinner and cursor ticks concern both surfaces.
	next, chatCmd := m.chat.Update(msg)
	m.chat = next.(chat.Model)
	nextPlay, playCmd := m.playground.Update(msg)
	m.playground = nextPlay.(playground.Model)
	return m, tea.Batch(chatCmd, playCmd)
}

func (m app) View() string {
	if m.surface == session.SurfacePlayground {
		return m.playground.View()
	}
	return m.chat.View()
}

func (m app) updateSurface(s session.Surface, msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if s == session.SurfacePlayground {
		var next tea.Model
		next, cmd = m.playground.Update(msg)
		m.playground = next.(playground.Model)
	} else {
		var next tea.Model
		next, cmd = m.chat.Update(msg)
		m.chat = next.(chat.Model)
	}
	return m, cmd
}

// switchSurface stops whatever the visible surface is generating and shows
// the other one.
func (m *app) switchSurface() {
	if m.surface == session.SurfacePlayground {
		m.playground.Stop()
		m.surface = session.SurfaceChat
	} else {
		m.chat.Stop()
		m.surface = session.SurfacePlayground
	}
	m.deps.Log().Debug("switched surface", zap.String("surface", string(m.surface)))
}

// apply moves the appearance through ev and restyles both surfaces.
func (m *app) apply(ev styles.Event) {
	m.appearance = m.appearance.Apply(ev)
	theme := styles.NewTheme(m.appearance)
	m.chat.SetTheme(theme)
	m.playground.SetTheme(theme)
}

// reload re-reads the session after an external write, including a dark
// mode preference set by another instance.
func (m *app) reload() {
	if err := m.deps.Session.Reload(); err != nil {
		m.deps.Log().Warn("reload session", zap.Error(err))
		return
	}
	if d := m.deps.Session.DarkMode(); d != nil && *d != m.appearance.Dark {
		m.apply(styles.DarkModeEvent{Dark: *d})
	}
	m.chat.Reload()
	m.playground.Reload()
}

// waitForChange delivers the next external write. It returns nil when
// there is nothing to watch.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}
