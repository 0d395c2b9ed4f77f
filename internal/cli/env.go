// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/pgpt-tui/internal/config"
	"github.com/jeranaias/pgpt-tui/internal/files"
	"github.com/jeranaias/pgpt-tui/internal/gateway"
	"github.com/jeranaias/pgpt-tui/internal/logging"
	"github.com/jeranaias/pgpt-tui/internal/privategpt"
	"github.com/jeranaias/pgpt-tui/internal/session"
	"github.com/jeranaias/pgpt-tui/internal/storage"
)

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Env is everything a command or the TUI runs against: configuration,
// logger, persisted session and the service clients built from them.
type Env struct {
	Config     *config.Config
	ConfigPath string
	Logger     *zap.Logger

	// Store is the SQLite database. Nil when the session lives in memory.
	Store   *storage.Store
	Session *session.Store

	Client  *privategpt.Client
	Files   *files.Registry
	Gateway *gateway.Gateway

	Out io.Writer
	Err io.Writer

	urlOverride string
}

// OpenEnv loads the configuration named by args (or the default file),
// opens the log and the state database and builds the clients.
func OpenEnv(args Args, out, errOut io.Writer) (*Env, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	config.SetGlobal(cfg)

	log := logging.Nop()
	if path, err := cfg.LogPath(); err == nil {
		if l, err := logging.New(path, cfg.Logging.Level); err == nil {
			log = l
		} else {
			fmt.Fprintf(errOut, "Warning: logging disabled: %v\n", err)
		}
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		return nil, NewCommandError("storage", "open", dbPath, err)
	}

	env, err := NewEnv(cfg, log, store, args.URL)
	if err != nil {
		store.Close()
		return nil, err
	}
	env.Store = store
	env.ConfigPath = args.ConfigPath
	env.Out, env.Err = out, errOut
	return env, nil
}

// NewEnv builds an Env over an already open key-value store. urlOverride
// wins over the stored and configured addresses when set.
func NewEnv(cfg *config.Config, log *zap.Logger, kv storage.KV, urlOverride string) (*Env, error) {
	log = logging.OrNop(log)
	sess, err := session.Open(kv, log)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	env := &Env{
		Config:      cfg,
		Logger:      log,
		Session:     sess,
		Out:         io.Discard,
		Err:         io.Discard,
		urlOverride: strings.TrimSpace(urlOverride),
	}
	env.connect(env.BaseURL())
	return env, nil
}

// BaseURL resolves the service address: the --url flag, then the address
// stored by the URL prompt, then the configuration.
func (e *Env) BaseURL() string {
	return ResolveURL(e.urlOverride, e.Session.BaseURL(), e.Config.Server.URL)
}

// ResolveURL returns the first non-empty address, or the default.
func ResolveURL(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return config.DefaultServerURL
}

// SetBaseURL stores url as the session address and reconnects. It clears
// any --url override so the stored address takes effect.
func (e *Env) SetBaseURL(url string) error {
	if err := e.Session.SetBaseURL(url); err != nil {
		return err
	}
	e.urlOverride = ""
	e.connect(url)
	return nil
}

func (e *Env) connect(url string) {
	srv := e.Config.Server
	e.Client = privategpt.NewClientWithConfig(&privategpt.ClientConfig{
		BaseURL:           url,
		Timeout:           srv.Timeout(),
		StreamTimeout:     srv.StreamTimeout(),
		RequestsPerSecond: srv.RequestsPerSecond,
	})
	e.Files = files.NewRegistry(e.Client, e.Session, e.Logger)
	e.Gateway = gateway.New(e.Client, gateway.Options{
		SearchLimit: e.Config.Search.Limit,
		Logger:      e.Logger,
	})
	e.Logger.Debug("connected", zap.String("url", url))
}

// Close releases the database and flushes the log.
func (e *Env) Close() error {
	if e.Gateway != nil {
		e.Gateway.Cancel()
	}
	_ = e.Logger.Sync()
	if e.Store != nil {
		return e.Store.Close()
	}
	return nil
}
