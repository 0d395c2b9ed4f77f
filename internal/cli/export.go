// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/pgpt-tui/internal/export"
)

// RunExport writes the chat transcript to a file.
func RunExport(env *Env, args Args) error {
	format := args.Format
	if format == "" {
		format = env.Config.Export.Format
	}
	opts := export.DefaultOptions()
	opts.OutputDir = env.Config.Export.Dir
	if args.OutputDir != "" {
		opts.OutputDir = args.OutputDir
	}

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return ErrUnsupportedValue("format", format, export.Formats)
	}
	path, err := export.ExportToFile(export.FromSession(env.Session.Snapshot()), exporter, opts)
	if err != nil {
		return err
	}
	env.Logger.Info("exported transcript", zap.String("path", path), zap.String("format", strings.ToLower(format)))

	if args.JSON {
		return NewJSONResponse("export", map[string]string{"path": path}).Print(env.Out)
	}
	fmt.Fprintf(env.Out, "%s %s\n", SuccessStyle.Render("Exported to"), path)
	return nil
}
