// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package files tracks the documents ingested into PrivateGPT.
//
// The service stores each upload as many document chunks, each with its own
// doc id. Registry groups them back into one FileEntry per file name and
// keeps the session's file selection consistent with what the service
// reports.
//
// # Usage
//
//	reg := files.NewRegistry(client, store, logger)
//	entries, err := reg.Refresh(ctx)
//	ids := reg.DocIDs(store.SelectedFiles())
package files
