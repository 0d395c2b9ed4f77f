// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the persisted chat and playground state.
//
// Every field lives under its own storage key as an independent JSON value.
// Loading tolerates missing or malformed keys by falling back to that key's
// default, so one corrupt entry never loses the rest of the session.
//
// # Key Types
//
//   - Store: single-writer session state backed by a storage.KV
//   - State: the explicit struct of every persisted field
//   - Message: one chat turn with optional citations and score
//   - Citation: canonical reference to a source chunk
//   - Mode, Surface: request mode per UI surface
//
// # Usage
//
//	st, err := session.Open(kv, logger)
//	if err != nil {
//	    return err
//	}
//	_ = st.AppendMessage(session.NewMessage(session.RoleUser, "What is the refund policy?"))
//	_ = st.SetMode(session.SurfaceChat, session.ModeQuery)
//
// # Persistence
//
// Writes are synchronous and last-write-wins. Another process writing the
// same store is picked up with Reload.
package session
