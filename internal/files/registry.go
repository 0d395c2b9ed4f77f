// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/pgpt-tui/internal/privategpt"
	"github.com/jeranaias/pgpt-tui/internal/util"
)

// ErrUnknownFile is returned by Remove for a name the registry has not seen.
var ErrUnknownFile = errors.New("file not ingested")

// API is the part of the PrivateGPT client the registry uses.
type API interface {
	ListIngested(ctx context.Context) ([]privategpt.IngestedDoc, error)
	IngestFile(ctx context.Context, name string, content io.Reader) ([]privategpt.IngestedDoc, error)
	DeleteIngested(ctx context.Context, docID string) error
}

// Selection is the session's selected-file set.
type Selection interface {
	Reconcile(known []string) ([]string, error)
	Deselect(name string) error
}

// FileEntry is one ingested file and the ids of its chunks.
type FileEntry struct {
	FileName string
	DocIDs   []string
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry caches the ingested file list. It is safe for concurrent use.
type Registry struct {
	api API
	sel Selection
	log *zap.Logger

	mu        sync.Mutex
	entries   []FileEntry
	uploading bool
}

// NewRegistry creates a registry. sel may be nil.
func NewRegistry(api API, sel Selection, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{api: api, sel: sel, log: log.Named("files")}
}

// Group collapses ingested docs into one entry per file name, in the order
// names first appear. Names are compared after NFC normalisation.
func Group(docs []privategpt.IngestedDoc) []FileEntry {
	var out []FileEntry
	index := make(map[string]int)
	for _, d := range docs {
		name := d.DocMetadata.FileName()
		if name == "" {
			continue
		}
		key := util.NormalizeName(name)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, FileEntry{FileName: name})
		}
		out[i].DocIDs = append(out[i].DocIDs, d.DocID)
	}
	return out
}

// Refresh re-lists the ingested documents and replaces the cache. On
// success it clears the uploading flag and reconciles the selection.
func (r *Registry) Refresh(ctx context.Context) ([]FileEntry, error) {
	docs, err := r.api.ListIngested(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ingested files: %w", err)
	}
	entries := Group(docs)

	r.mu.Lock()
	r.entries = entries
	r.uploading = false
	names := r.namesLocked()
	out := cloneEntries(entries)
	r.mu.Unlock()

	if r.sel != nil {
		if dropped, err := r.sel.Reconcile(names); err != nil {
			r.log.Warn("reconcile selection", zap.Error(err))
		} else if len(dropped) > 0 {
			r.log.Info("deselected removed files", zap.Strings("files", dropped))
		}
	}
	r.log.Debug("refreshed files", zap.Int("files", len(entries)), zap.Int("docs", len(docs)))
	return out, nil
}

// Add uploads the file at path. Uploading reports true from the start of
// the upload until the next successful Refresh.
func (r *Registry) Add(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	return r.AddReader(ctx, name, f)
}

// AddReader uploads content under name.
func (r *Registry) AddReader(ctx context.Context, name string, content io.Reader) error {
	r.mu.Lock()
	r.uploading = true
	r.mu.Unlock()

	docs, err := r.api.IngestFile(ctx, name, content)
	if err != nil {
		r.log.Warn("upload failed", zap.String("file", name), zap.Error(err))
		return fmt.Errorf("upload %s: %w", name, err)
	}
	r.log.Info("uploaded file", zap.String("file", name), zap.Int("docs", len(docs)))
	return nil
}

// Remove deselects fileName immediately, then deletes every chunk of the
// file from the service. The deselection stands even if a delete fails.
func (r *Registry) Remove(ctx context.Context, fileName string) error {
	if r.sel != nil {
		if err := r.sel.Deselect(fileName); err != nil {
			r.log.Warn("deselect before delete", zap.String("file", fileName), zap.Error(err))
		}
	}

	r.mu.Lock()
	ids := r.idsLocked(fileName)
	r.mu.Unlock()
	if ids == nil {
		return fmt.Errorf("%w: %s", ErrUnknownFile, fileName)
	}

	for _, id := range ids {
		if err := r.api.DeleteIngested(ctx, id); err != nil {
			return fmt.Errorf("delete %s: %w", fileName, err)
		}
	}
	r.log.Info("deleted file", zap.String("file", fileName), zap.Int("docs", len(ids)))

	r.mu.Lock()
	r.dropLocked(fileName)
	r.mu.Unlock()
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// DocIDs returns the union of doc ids of the selected file names, in
// selection order with no duplicates. Unknown names contribute nothing.
func (r *Registry) DocIDs(selected []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	seen := make(map[string]bool)
	for _, name := range selected {
		for _, id := range r.idsLocked(name) {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// Names returns the cached file names in order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.namesLocked()
}

// Entries returns a copy of the cached list.
func (r *Registry) Entries() []FileEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneEntries(r.entries)
}

// Uploading reports whether an upload is awaiting the next refresh.
func (r *Registry) Uploading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uploading
}

func (r *Registry) namesLocked() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.FileName
	}
	return names
}

func (r *Registry) idsLocked(name string) []string {
	key := util.NormalizeName(name)
	for _, e := range r.entries {
		if util.NormalizeName(e.FileName) == key {
			return e.DocIDs
		}
	}
	return nil
}

func (r *Registry) dropLocked(name string) {
	key := util.NormalizeName(name)
	out := r.entries[:0:0]
	for _, e := range r.entries {
		if util.NormalizeName(e.FileName) != key {
			out = append(out, e)
		}
	}
	r.entries = out
}

func cloneEntries(in []FileEntry) []FileEntry {
	out := make([]FileEntry, len(in))
	for i, e := range in {
		out[i] = FileEntry{FileName: e.FileName, DocIDs: append([]string{}, e.DocIDs...)}
	}
	return out
}
