// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdFiles
	CmdHealth
	CmdConfig
	CmdExport
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	URL        string // --url overrides the stored and configured address
	ConfigPath string // --config selects a TOML file
	JSON       bool

	// Command-specific
	Surface    string // tui --surface
	Mode       string // ask --mode
	Format     string // export --format
	OutputDir  string // export --dir
	Raw        bool   // ask --raw skips markdown rendering
	Subcommand string
	Query      string
	Path       string
	ConfigKey  string
	ConfigVal  string

	// Unknown is set when the command word was not recognised.
	Unknown string
}

const usageText = `pgpt - terminal client for PrivateGPT

Usage:
  pgpt [tui] [--surface chat|playground]   Start the interactive UI (default)
  pgpt ask "question" [--mode MODE]        Ask a single question
  pgpt files [list]                        List ingested files
  pgpt files add <path>                    Upload and ingest a file
  pgpt files rm <name>                     Delete every document of a file
  pgpt health                              Check that the service answers
  pgpt config [show]                       Show the configuration
  pgpt config get <key>                    Print one value
  pgpt config set <key> <value>            Change one value
  pgpt export [--format md|json|yaml]      Write the chat transcript to a file
  pgpt version                             Show version information

Ask modes:
  chat      plain conversation, no document context (default)
  query     answer from the ingested documents
  search    list the most related chunks without calling the model

Global flags:
  --url URL        PrivateGPT address (default: stored address, then config)
  --config FILE    Configuration file (default: ~/.pgpt/config.toml)
  --json           Machine-readable output for files, health and version

Environment:
  PGPT_URL, PGPT_LOG_LEVEL and the other PGPT_* variables override the
  configuration file. A .env file in the working directory is read first.
`

// PrintUsage writes the usage text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes version information to w.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "pgpt %s\n", Version)
	fmt.Fprintf(w, "  commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  built:  %s\n", BuildDate)
	fmt.Fprintf(w, "  go:     %s\n", runtime.Version())
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses args without the program name.
func ParseArgs(args []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(args)
	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd, rest := remaining[0], remaining[1:]
	p := NewArgParser(rest)
	if p.BoolFlag("json") {
		parsed.JSON = true
	}

	switch cmd {
	case "tui", "ui":
		parsed.Surface = p.Flag("surface")
		return CmdTUI, parsed

	case "ask", "a":
		parsed.Mode = p.FlagOrDefault("mode", p.Flag("m"))
		parsed.Raw = p.BoolFlag("raw")
		parsed.Query = strings.Join(p.PositionalFrom(0), " ")
		return CmdAsk, parsed

	case "files", "file", "f":
		parsed.Subcommand = p.Subcommand()
		if parsed.Subcommand == "" {
			parsed.Subcommand = "list"
		}
		parsed.Path = strings.Join(p.PositionalFrom(1), " ")
		return CmdFiles, parsed

	case "health", "status", "s":
		return CmdHealth, parsed

	case "config", "c":
		parsed.Subcommand = p.Subcommand()
		if parsed.Subcommand == "" {
			parsed.Subcommand = "show"
		}
		parsed.ConfigKey = p.Positional(1)
		parsed.ConfigVal = strings.Join(p.PositionalFrom(2), " ")
		return CmdConfig, parsed

	case "export", "e":
		parsed.Format = p.Flag("format")
		parsed.OutputDir = p.Flag("dir")
		return CmdExport, parsed

	case "version", "-v", "--version":
		return CmdVersion, parsed

	case "help", "-h", "--help":
		return CmdHelp, parsed

	default:
		parsed.Unknown = cmd
		return CmdHelp, parsed
	}
}

// parseGlobalFlags extracts global flags from args and returns the rest.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--url" && i+1 < len(args):
			i++
			parsed.URL = args[i]
		case strings.HasPrefix(arg, "--url="):
			parsed.URL = strings.TrimPrefix(arg, "--url=")
		case arg == "--config" && i+1 < len(args):
			i++
			parsed.ConfigPath = args[i]
		case strings.HasPrefix(arg, "--config="):
			parsed.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--json":
			parsed.JSON = true
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, parsed
}

// =============================================================================
// EXECUTION
// =============================================================================

// Execute runs a non-interactive command and returns the process exit code.
// Interrupts cancel the command's context.
func Execute(cmd Command, args Args) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, cmd, args, os.Stdout, os.Stderr, OpenEnv)
}

type envOpener func(args Args, out, errOut io.Writer) (*Env, error)

func run(ctx context.Context, cmd Command, args Args, out, errOut io.Writer, open envOpener) int {
	switch cmd {
	case CmdHelp:
		if args.Unknown != "" {
			DisplayError(errOut, ErrUnknownCommand(args.Unknown), false)
			PrintUsage(errOut)
			return ExitUsageError
		}
		PrintUsage(out)
		return ExitSuccess
	case CmdVersion:
		if args.JSON {
			_ = NewJSONResponse("version", VersionData{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
			}).Print(out)
			return ExitSuccess
		}
		PrintVersion(out)
		return ExitSuccess
	}

	env, err := open(args, out, errOut)
	if err != nil {
		DisplayError(errOut, err, args.JSON)
		return GetExitCode(err)
	}
	defer env.Close()

	switch cmd {
	case CmdAsk:
		err = RunAsk(ctx, env, args)
	case CmdFiles:
		err = RunFiles(ctx, env, args)
	case CmdHealth:
		err = RunHealth(ctx, env, args)
	case CmdConfig:
		err = RunConfig(env, args)
	case CmdExport:
		err = RunExport(env, args)
	default:
		err = ErrUnknownCommand(fmt.Sprint(cmd))
	}
	if err != nil {
		env.Logger.Warn("command failed", zap.Error(err))
		DisplayError(errOut, err, args.JSON)
		return GetExitCode(err)
	}
	return ExitSuccess
}
