// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/pgpt-tui/internal/privategpt"
)

// RunHealth probes the service once and reports whether it is healthy.
// An unhealthy service is a network error so scripts can test the exit
// code.
func RunHealth(ctx context.Context, env *Env, args Args) error {
	url := env.BaseURL()
	start := time.Now()
	ok, err := probe(ctx, env)
	latency := time.Since(start)

	if args.JSON {
		data := HealthData{URL: url, Healthy: ok, LatencyMs: latency.Milliseconds()}
		if err != nil {
			data.Error = err.Error()
		}
		if perr := NewJSONResponse("health", data).Print(env.Out); perr != nil {
			return perr
		}
	} else {
		fmt.Fprintln(env.Out, TitleStyle.Render("PrivateGPT"))
		fmt.Fprintln(env.Out, RenderField("URL", url))
		fmt.Fprintln(env.Out, RenderField("Status", RenderStatus(ok)))
		fmt.Fprintln(env.Out, RenderField("Latency", latency.Round(time.Millisecond).String()))
	}

	switch {
	case privategpt.IsConnection(err), privategpt.IsTimeout(err):
		return err
	case err != nil:
		return fmt.Errorf("%w: %v", privategpt.ErrNotHealthy, err)
	case !ok:
		return NewCommandError("health", "probe", url+" is not healthy", privategpt.ErrNotHealthy)
	}
	return nil
}
