// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for pgpt.
//
// Command: config [subcommand]
//
// Subcommands:
//   show (default)      Display current configuration
//   get <key>           Print one value
//   set <key> <value>   Set a value and save the file
//   reset               Write the defaults
//   path                Show configuration file path
//   keys                List settable keys
//
// Examples:
//   pgpt config set server.url http://gpu-box:8001
//   pgpt config set ui.theme light
//   pgpt config get search.limit --json

package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/pgpt-tui/internal/config"
	"github.com/jeranaias/pgpt-tui/internal/util"
)

// RunConfig shows or edits the configuration file.
func RunConfig(env *Env, args Args) error {
	switch args.Subcommand {
	case "", "show":
		return configShow(env, args)
	case "get":
		return configGet(env, args)
	case "set":
		return configSet(env, args)
	case "reset":
		return configSave(env, args, config.Default(), "reset")
	case "path":
		path, err := configPath(env)
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("config", map[string]string{"path": path}).Print(env.Out)
		}
		fmt.Fprintln(env.Out, path)
		return nil
	case "keys":
		if args.JSON {
			return NewJSONResponse("config", config.Keys()).Print(env.Out)
		}
		fmt.Fprintln(env.Out, strings.Join(config.Keys(), "\n"))
		return nil
	default:
		return ErrUnsupportedValue("config subcommand", args.Subcommand,
			[]string{"show", "get", "set", "reset", "path", "keys"})
	}
}

func configShow(env *Env, args Args) error {
	if args.JSON {
		return NewJSONResponse("config", env.Config).Print(env.Out)
	}
	keys := config.Keys()
	width := 0
	for _, key := range keys {
		if w := util.StringWidth(key); w > width {
			width = w
		}
	}

	fmt.Fprintln(env.Out, TitleStyle.Render("Configuration"))
	for _, key := range keys {
		v, err := env.Config.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "  %s  %s\n", DimStyle.Render(util.PadRight(key, width)), ValueStyle.Render(fmt.Sprint(v)))
	}
	fmt.Fprintln(env.Out)
	fmt.Fprintln(env.Out, RenderField("Effective URL", env.BaseURL()))
	return nil
}

func configGet(env *Env, args Args) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "pgpt config get server.url")
	}
	v, err := env.Config.Get(args.ConfigKey)
	if err != nil {
		return &ValidationError{Field: "key", Value: args.ConfigKey, Reason: err.Error(), Example: "pgpt config keys"}
	}
	if args.JSON {
		return NewJSONResponse("config", map[string]interface{}{args.ConfigKey: v}).Print(env.Out)
	}
	fmt.Fprintln(env.Out, v)
	return nil
}

func configSet(env *Env, args Args) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return ErrMissingArgument("key and value", "pgpt config set ui.theme dark")
	}
	next := env.Config.Clone()
	if err := next.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return &ValidationError{Field: "key", Value: args.ConfigKey, Reason: err.Error(), Example: "pgpt config keys"}
	}
	if err := next.Validate(); err != nil {
		return err
	}
	return configSave(env, args, next, "set "+args.ConfigKey)
}

func configSave(env *Env, args Args, cfg *config.Config, action string) error {
	path, err := configPath(env)
	if err != nil {
		return err
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return NewCommandError("config", action, path, err)
	}
	*env.Config = *cfg
	config.SetGlobal(env.Config)

	if args.JSON {
		return NewJSONResponse("config", map[string]string{"saved": path}).Print(env.Out)
	}
	fmt.Fprintf(env.Out, "%s %s (%s)\n", SuccessStyle.Render("Saved"), path, action)
	return nil
}

func configPath(env *Env) (string, error) {
	if env.ConfigPath != "" {
		return env.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}
