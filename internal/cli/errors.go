// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - error types and exit codes shared by every command.
//
// Commands always return errors; Execute decides how to display them.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/pgpt-tui/internal/config"
	"github.com/jeranaias/pgpt-tui/internal/export"
	"github.com/jeranaias/pgpt-tui/internal/files"
	"github.com/jeranaias/pgpt-tui/internal/privategpt"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitNetworkError  = 5
	ExitNotFoundError = 7
	ExitTimeoutError  = 8
)

// ErrAborted is returned when the user declines to enter a new URL.
var ErrAborted = errors.New("aborted")

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a failed command with context.
type CommandError struct {
	Command string // e.g. "files"
	Action  string // e.g. "add"
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents invalid user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// ErrMissingArgument reports a required argument that was not given.
func ErrMissingArgument(name, usage string) error {
	return &ValidationError{Field: name, Reason: "is required", Example: usage}
}

// ErrUnknownCommand reports an unrecognised command word.
func ErrUnknownCommand(cmd string) error {
	return &ValidationError{Field: "command", Value: cmd, Reason: "unknown command", Example: "pgpt help"}
}

// ErrUnsupportedValue reports a value outside a fixed set.
func ErrUnsupportedValue(field, value string, allowed []string) error {
	return &ValidationError{
		Field:  field,
		Value:  value,
		Reason: "must be one of " + strings.Join(allowed, ", "),
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to w, as JSON in JSON mode.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		displayErrorJSON(w, err)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), err.Error())
}

func displayErrorJSON(w io.Writer, err error) {
	output := map[string]interface{}{
		"error":   err.Error(),
		"success": false,
	}

	var cmdErr *CommandError
	var valErr *ValidationError
	switch {
	case errors.As(err, &valErr):
		output["error_type"] = "validation_error"
		output["field"] = valErr.Field
		output["value"] = valErr.Value
	case errors.As(err, &cmdErr):
		output["error_type"] = "command_error"
		output["command"] = cmdErr.Command
		output["action"] = cmdErr.Action
	case privategpt.IsConnection(err):
		output["error_type"] = "connection_error"
	default:
		output["error_type"] = "generic_error"
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(output)
}

// GetExitCode maps an error to the process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var valErr *ValidationError
	var ttyErr *TTYRequiredError
	var cfgErrs config.ValidateErrors
	var cfgErr config.ValidationError
	switch {
	case errors.As(err, &valErr), errors.As(err, &ttyErr):
		return ExitUsageError
	case errors.As(err, &cfgErrs), errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.Is(err, files.ErrUnknownFile), errors.Is(err, export.ErrEmptyTranscript):
		return ExitNotFoundError
	case privategpt.IsTimeout(err):
		return ExitTimeoutError
	case privategpt.IsConnection(err), errors.Is(err, ErrAborted):
		return ExitNetworkError
	}
	return ExitGeneralError
}
