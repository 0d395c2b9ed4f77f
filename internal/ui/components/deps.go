// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"go.uber.org/zap"

	"github.com/jeranaias/pgpt-tui/internal/files"
	"github.com/jeranaias/pgpt-tui/internal/gateway"
	"github.com/jeranaias/pgpt-tui/internal/session"
	"github.com/jeranaias/pgpt-tui/internal/ui/render"
)

// Deps holds the services both surfaces share.
type Deps struct {
	Session  *session.Store
	Gateway  *gateway.Gateway
	Files    *files.Registry
	Markdown *render.Markdown
	Logger   *zap.Logger

	// ExportDir and ExportFormat configure ctrl+e.
	ExportDir    string
	ExportFormat string
}

// Log returns the logger, never nil.
func (d Deps) Log() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
