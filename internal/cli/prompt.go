// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/pgpt-tui/internal/config"
	"github.com/jeranaias/pgpt-tui/internal/privategpt"
)

// healthTimeout bounds one startup probe.
const healthTimeout = 10 * time.Second

// URLPrompter asks the user for a service address. suggestion prefills
// the answer. An empty answer means the user gave up.
type URLPrompter func(message, suggestion string) (string, error)

// LinePrompter reads the answer with liner line editing.
func LinePrompter(message, suggestion string) (string, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	answer, err := line.PromptWithSuggestion(message, suggestion, -1)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", nil
	}
	return strings.TrimSpace(answer), err
}

// EnsureReachable probes the service until it answers. On failure it asks
// for a new address, stores it and retries. Without a prompter (stdin is
// not a terminal) the first failure is returned. An empty answer returns
// ErrAborted.
func EnsureReachable(ctx context.Context, env *Env, ask URLPrompter) error {
	for {
		url := env.BaseURL()
		ok, err := probe(ctx, env)
		if ok {
			return nil
		}
		if err == nil {
			err = privategpt.ErrNotHealthy
		}
		env.Logger.Warn("service unreachable", zap.String("url", url), zap.Error(err))
		if ask == nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fmt.Fprintf(env.Err, "%s cannot reach PrivateGPT at %s: %v\n", ErrorStyle.Render("Error:"), url, err)
		answer, perr := ask("PrivateGPT URL: ", config.DefaultServerURL)
		if perr != nil {
			return perr
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return ErrAborted
		}
		if verr := config.ValidateURL(answer); verr != nil {
			fmt.Fprintf(env.Err, "%s %v\n", ErrorStyle.Render("Error:"), verr)
			continue
		}
		if serr := env.SetBaseURL(answer); serr != nil {
			return serr
		}
	}
}

func probe(ctx context.Context, env *Env) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	return env.Client.Health(ctx)
}
