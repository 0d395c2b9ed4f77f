// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway issues completion, query and search requests against
// PrivateGPT with at most one request in flight.
//
// Every request runs under a Token. Beginning a new Token cancels the
// previous one, and a cancelled Token never applies another delta, so a
// stale stream cannot leak text into a cleared or restarted conversation.
//
// # Key Types
//
//   - Gateway: single-flight request issuer
//   - Token: cancellation token with a monotonically increasing id
//   - Request, Result: what to ask and what came back
//   - Event: streamed delta, completion or error tagged with its token id
//
// # Usage
//
//	gw := gateway.New(client, gateway.Options{SearchLimit: 4, Logger: log})
//	tok := gw.Begin()
//	res, err := gw.Submit(tok, req, func(delta string) { buf.WriteString(delta) })
//	if errors.Is(err, gateway.ErrCancelled) {
//	    // superseded or stopped by the user
//	}
package gateway
