// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local key-value persistence for pgpt.
//
// Each logical setting (server URL, modes, system prompt, history, selected
// files, theme preference) lives under its own key as an independent JSON
// value. Writes are last-write-wins. Two pgpt processes sharing one database
// are not coordinated; the Watcher lets each notice the other's commits.
//
// # Key Types
//
//   - KV: the Get/Set/Delete contract the session layer depends on
//   - Store: SQLite-backed KV (modernc.org/sqlite, WAL mode)
//   - Memory: in-process KV for tests and throwaway sessions
//   - Watcher: fsnotify-based notification of commits by other processes
//
// # Usage
//
//	store, err := storage.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	_ = store.Set("pgpt-chat-mode", `"query"`)
//	v, ok, err := store.Get("pgpt-chat-mode")
//
//	w, _ := storage.NewWatcher(store, 150*time.Millisecond, logger)
//	_ = w.Start()
//	for range w.Changes() {
//	    // reload state
//	}
package storage
