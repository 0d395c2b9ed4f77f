// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/pgpt-tui/internal/gateway"
	"github.com/jeranaias/pgpt-tui/internal/session"
	"github.com/jeranaias/pgpt-tui/internal/ui/render"
)

// AskData is the payload of "ask --json".
type AskData struct {
	Mode    string   `json:"mode"`
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

// RunAsk answers one question with the chat surface's modes. The answer is
// not added to the session history. Query and search honor the selected
// files.
func RunAsk(ctx context.Context, env *Env, args Args) error {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return ErrMissingArgument("question", `pgpt ask "what is the refund policy?"`)
	}

	mode := env.Session.Mode(session.SurfaceChat)
	if args.Mode != "" {
		mode = session.Mode(strings.ToLower(args.Mode))
		if !session.SurfaceChat.Accepts(mode) {
			return ErrUnsupportedValue("mode", args.Mode, modeNames(session.SurfaceChat))
		}
	}

	req := gateway.Request{
		Surface: session.SurfaceChat,
		Mode:    mode,
		History: []session.Message{session.NewMessage(session.RoleUser, query)},
	}
	if mode.UsesFiles() {
		if _, err := env.Files.Refresh(ctx); err != nil {
			return err
		}
		req.DocIDs = env.Files.DocIDs(env.Session.SelectedFiles())
	}

	// Plain output streams as it arrives. Rendered and JSON output wait
	// for the whole answer.
	stream := !args.JSON && !renderAnswers(args)
	var onDelta func(string)
	if stream {
		onDelta = func(delta string) { fmt.Fprint(env.Out, delta) }
	}

	tok := env.Gateway.Begin()
	go func() {
		select {
		case <-ctx.Done():
			tok.Cancel()
		case <-tok.Context().Done():
		}
	}()

	res, err := env.Gateway.Submit(tok, req, onDelta)
	if err != nil {
		if ctx.Err() != nil {
			return ErrAborted
		}
		return err
	}
	env.Logger.Info("answered", zap.String("mode", string(mode)), zap.Int("sources", len(res.Sources)))

	labels := make([]string, 0, len(res.Sources))
	for _, c := range res.Sources {
		labels = append(labels, c.Label())
	}

	if args.JSON {
		return NewJSONResponse("ask", AskData{Mode: string(mode), Answer: res.Text, Sources: labels}).Print(env.Out)
	}

	switch {
	case stream:
		if mode == session.ModeSearch {
			fmt.Fprint(env.Out, res.Text)
		}
		fmt.Fprintln(env.Out)
	default:
		out, rerr := render.Terminal(res.Text, GetTerminalWidth())
		if rerr != nil {
			out = res.Text + "\n"
		}
		fmt.Fprint(env.Out, out)
	}

	if len(labels) > 0 && mode != session.ModeSearch {
		fmt.Fprintln(env.Out)
		fmt.Fprintln(env.Out, LabelStyle.Render("Sources:"))
		for _, l := range labels {
			fmt.Fprintf(env.Out, "  %s\n", DimStyle.Render(l))
		}
	}
	return nil
}

// renderAnswers reports whether answers go through the markdown renderer.
func renderAnswers(args Args) bool {
	return !args.Raw && IsStdoutTTY() && ColorsEnabled()
}

func modeNames(s session.Surface) []string {
	modes := s.Modes()
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = string(m)
	}
	return out
}
