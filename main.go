// pgpt - a terminal client for PrivateGPT.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/pgpt-tui/internal/cli"
	"github.com/jeranaias/pgpt-tui/internal/session"
	"github.com/jeranaias/pgpt-tui/internal/storage"
	"github.com/jeranaias/pgpt-tui/internal/ui/components"
	"github.com/jeranaias/pgpt-tui/internal/ui/render"
	"github.com/jeranaias/pgpt-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// watchDebounce coalesces bursts of database writes from other processes.
const watchDebounce = 150 * time.Millisecond

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()
	if cmd == cli.CmdTUI {
		os.Exit(runTUI(args))
	}
	os.Exit(cli.Execute(cmd, args))
}

// runTUI checks the service, then runs the interactive program until the
// user quits. It returns the process exit code.
func runTUI(args cli.Args) int {
	if err := cli.RequiresTTY("run the interactive UI"); err != nil {
		cli.DisplayError(os.Stderr, err, false)
		return cli.GetExitCode(err)
	}
	env, err := cli.OpenEnv(args, os.Stdout, os.Stderr)
	if err != nil {
		cli.DisplayError(os.Stderr, err, false)
		return cli.GetExitCode(err)
	}
	defer env.Close()
	log := env.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = cli.EnsureReachable(ctx, env, cli.LinePrompter)
	stop()
	if err != nil {
		cli.DisplayError(os.Stderr, err, false)
		return cli.GetExitCode(err)
	}

	cfg := env.Config
	deps := components.Deps{
		Session:      env.Session,
		Gateway:      env.Gateway,
		Files:        env.Files,
		Markdown:     render.NewMarkdown(cfg.UI.Markdown, log),
		Logger:       log,
		ExportDir:    cfg.Export.Dir,
		ExportFormat: cfg.Export.Format,
	}

	var changes <-chan struct{}
	if env.Store != nil {
		w, err := storage.NewWatcher(env.Store, watchDebounce, log)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			log.Warn("cross-process updates disabled", zap.Error(err))
		} else {
			defer w.Close()
			changes = w.Changes()
		}
	}

	surface := session.Surface(args.Surface)
	if !surface.Valid() {
		surface = session.Surface(cfg.UI.Surface)
	}
	appearance := styles.DetectAppearance(env.Session.DarkMode(), cfg.UI.Theme, cfg.UI.Layout)
	m := newApp(deps, appearance, surface, changes)

	log.Info("starting",
		zap.String("version", Version),
		zap.String("url", env.BaseURL()),
		zap.String("surface", string(m.surface)),
		zap.Bool("dark", appearance.Dark),
	)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Error("program failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error running pgpt: %v\n", err)
		return cli.ExitGeneralError
	}
	return cli.ExitSuccess
}
