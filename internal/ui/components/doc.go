// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the widgets and commands shared by the chat and
playground surfaces.

# Key Types

  - Deps: the services a surface talks to (session, gateway, files, markdown)
  - KeyMap: key bindings for both surfaces
  - StreamingBuffer: batches streamed deltas for 30 fps rendering
  - FilePicker: the ingested file list with selection
  - Alert: a one-line dismissible error or notice
  - Spinner: the in-progress indicator

# Usage

A surface starts a request with the gateway and waits on the event channel:

	tok := deps.Gateway.Begin()
	ch := deps.Gateway.Stream(tok, req)
	return components.WaitForEvent(session.SurfaceChat, tok.ID(), ch)

Each StreamEventMsg must be followed by another WaitForEvent until the
channel reports Closed, even when its token is stale.
*/
package components
