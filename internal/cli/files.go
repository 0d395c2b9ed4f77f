// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jeranaias/pgpt-tui/internal/util"
)

// RunFiles handles "files list", "files add <path>" and "files rm <name>".
func RunFiles(ctx context.Context, env *Env, args Args) error {
	switch args.Subcommand {
	case "", "list", "ls":
		return filesList(ctx, env, args)
	case "add", "upload":
		return filesAdd(ctx, env, args)
	case "rm", "remove", "delete":
		return filesRemove(ctx, env, args)
	default:
		return ErrUnsupportedValue("files subcommand", args.Subcommand, []string{"list", "add", "rm"})
	}
}

func filesList(ctx context.Context, env *Env, args Args) error {
	entries, err := env.Files.Refresh(ctx)
	if err != nil {
		return err
	}
	selected := make(map[string]bool)
	for _, name := range env.Session.SelectedFiles() {
		selected[name] = true
	}

	if args.JSON {
		data := make([]FileData, 0, len(entries))
		for _, e := range entries {
			data = append(data, FileData{Name: e.FileName, DocIDs: e.DocIDs, Selected: selected[e.FileName]})
		}
		return NewJSONResponse("files", data).Print(env.Out)
	}

	if len(entries) == 0 {
		fmt.Fprintln(env.Out, DimStyle.Render("No files ingested"))
		return nil
	}
	fmt.Fprintln(env.Out, TitleStyle.Render(fmt.Sprintf("Ingested files (%d)", len(entries))))
	for _, e := range entries {
		mark := " "
		if selected[e.FileName] {
			mark = SuccessStyle.Render("*")
		}
		fmt.Fprintf(env.Out, " %s %s %s\n", mark, ValueStyle.Render(e.FileName),
			DimStyle.Render(fmt.Sprintf("(%s)", util.Pluralize(len(e.DocIDs), "chunk", "chunks"))))
	}
	return nil
}

func filesAdd(ctx context.Context, env *Env, args Args) error {
	if args.Path == "" {
		return ErrMissingArgument("path", "pgpt files add ./handbook.pdf")
	}
	info, err := os.Stat(args.Path)
	if err != nil {
		return NewCommandError("files", "add", args.Path, err)
	}
	if info.IsDir() {
		return NewCommandError("files", "add", args.Path+" is a directory", nil)
	}

	if !args.JSON {
		fmt.Fprintf(env.Err, "Uploading %s (%s)...\n", info.Name(), util.FormatBytes(info.Size()))
	}
	if err := env.Files.Add(ctx, args.Path); err != nil {
		return err
	}
	if _, err := env.Files.Refresh(ctx); err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("files", map[string]string{"added": info.Name()}).Print(env.Out)
	}
	fmt.Fprintf(env.Out, "%s %s\n", SuccessStyle.Render("Ingested"), info.Name())
	return nil
}

func filesRemove(ctx context.Context, env *Env, args Args) error {
	if args.Path == "" {
		return ErrMissingArgument("name", "pgpt files rm handbook.pdf")
	}
	if _, err := env.Files.Refresh(ctx); err != nil {
		return err
	}
	if err := env.Files.Remove(ctx, args.Path); err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("files", map[string]string{"removed": args.Path}).Print(env.Out)
	}
	fmt.Fprintf(env.Out, "%s %s\n", SuccessStyle.Render("Deleted"), args.Path)
	return nil
}
