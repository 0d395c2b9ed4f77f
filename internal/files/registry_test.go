// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package files

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/pgpt-tui/internal/privategpt"
	"github.com/jeranaias/pgpt-tui/internal/session"
	"github.com/jeranaias/pgpt-tui/internal/storage"
)

// fakeService is an in-memory PrivateGPT ingestion API.
type fakeService struct {
	mu       sync.Mutex
	docs     []privategpt.IngestedDoc
	deleted  []string
	uploaded []string
	nextID   int
	failList bool
}

func (f *fakeService) add(name string, chunks int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addLocked(name, chunks)
}

func (f *fakeService) addLocked(name string, chunks int) {
	for i := 0; i < chunks; i++ {
		f.nextID++
		f.docs = append(f.docs, privategpt.IngestedDoc{
			Object:      "ingest.document",
			DocID:       fmt.Sprintf("%s-%d", name, f.nextID),
			DocMetadata: privategpt.DocMetadata{"file_name": name},
		})
	}
}

func (f *fakeService) setFailList(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failList = v
}

func (f *fakeService) snapshot() (uploaded, deleted []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.uploaded...), append([]string{}, f.deleted...)
}

func (f *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ingest/list", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failList {
			http.Error(w, `{"detail":"boom"}`, http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"object": "list", "model": "private-gpt", "data": f.docs})
	})
	mux.HandleFunc("/v1/ingest/file", func(w http.ResponseWriter, r *http.Request) {
		file, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		io.Copy(io.Discard, file)
		f.mu.Lock()
		f.uploaded = append(f.uploaded, hdr.Filename)
		f.addLocked(hdr.Filename, 1)
		added := f.docs[len(f.docs)-1:]
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{"object": "list", "data": added})
	})
	mux.HandleFunc("/v1/ingest/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.NotFound(w, r)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/v1/ingest/")
		f.mu.Lock()
		defer f.mu.Unlock()
		f.deleted = append(f.deleted, id)
		kept := f.docs[:0]
		for _, d := range f.docs {
			if d.DocID != id {
				kept = append(kept, d)
			}
		}
		f.docs = kept
	})
	return mux
}

func setup(t *testing.T) (*Registry, *fakeService, *session.Store) {
	t.Helper()
	svc := &fakeService{}
	srv := httptest.NewServer(svc.handler())
	t.Cleanup(srv.Close)

	st, err := session.Open(storage.NewMemory(), nil)
	require.NoError(t, err)
	return NewRegistry(privategpt.NewClient(srv.URL), st, nil), svc, st
}

func TestGroup_FirstSeenOrder(t *testing.T) {
	docs := []privategpt.IngestedDoc{
		{DocID: "1", DocMetadata: privategpt.DocMetadata{"file_name": "b.pdf"}},
		{DocID: "2", DocMetadata: privategpt.DocMetadata{"file_name": "a.pdf"}},
		{DocID: "3", DocMetadata: privategpt.DocMetadata{"file_name": "b.pdf"}},
		{DocID: "4", DocMetadata: privategpt.DocMetadata{}},
	}
	got := Group(docs)
	require.Len(t, got, 2)
	assert.Equal(t, FileEntry{FileName: "b.pdf", DocIDs: []string{"1", "3"}}, got[0])
	assert.Equal(t, FileEntry{FileName: "a.pdf", DocIDs: []string{"2"}}, got[1])
}

func TestRefresh_ReconcilesSelection(t *testing.T) {
	reg, svc, st := setup(t)
	svc.add("policy.pdf", 2)
	svc.add("faq.md", 1)
	require.NoError(t, st.SetSelectedFiles([]string{"policy.pdf", "deleted-elsewhere.txt"}))

	entries, err := reg.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, []string{"policy.pdf", "faq.md"}, reg.Names())
	assert.Equal(t, []string{"policy.pdf"}, st.SelectedFiles())
}

func TestRefresh_ErrorKeepsCache(t *testing.T) {
	reg, svc, _ := setup(t)
	svc.add("a.pdf", 1)
	_, err := reg.Refresh(context.Background())
	require.NoError(t, err)

	svc.setFailList(true)
	_, err = reg.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, privategpt.IsHTTPStatus(err, http.StatusInternalServerError))
	assert.Equal(t, []string{"a.pdf"}, reg.Names())
}

func TestDocIDs_UnionOfSelected(t *testing.T) {
	reg, svc, _ := setup(t)
	svc.add("a.pdf", 2)
	svc.add("b.pdf", 1)
	svc.add("c.pdf", 1)
	_, err := reg.Refresh(context.Background())
	require.NoError(t, err)

	entries := reg.Entries()
	want := append(append([]string{}, entries[2].DocIDs...), entries[0].DocIDs...)
	got := reg.DocIDs([]string{"c.pdf", "a.pdf", "a.pdf", "missing.pdf"})
	assert.Equal(t, want, got)
	assert.Empty(t, reg.DocIDs(nil))
}

func TestAdd_UploadingUntilRefresh(t *testing.T) {
	reg, svc, _ := setup(t)
	path := filepath.Join(t.TempDir(), "handbook.txt")
	require.NoError(t, os.WriteFile(path, []byte("rules"), 0o600))

	require.NoError(t, reg.Add(context.Background(), path))
	assert.True(t, reg.Uploading(), "flag stays set after the upload returns")
	uploaded, _ := svc.snapshot()
	assert.Equal(t, []string{"handbook.txt"}, uploaded)

	_, err := reg.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, reg.Uploading())
	assert.Contains(t, reg.Names(), "handbook.txt")
}

func TestAdd_MissingFile(t *testing.T) {
	reg, _, _ := setup(t)
	err := reg.Add(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
	assert.False(t, reg.Uploading())
}

func TestRemove_OptimisticDeselect(t *testing.T) {
	reg, svc, st := setup(t)
	svc.add("a.pdf", 2)
	svc.add("b.pdf", 1)
	_, err := reg.Refresh(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.SetSelectedFiles([]string{"a.pdf", "b.pdf"}))

	ids := reg.DocIDs([]string{"a.pdf"})
	require.NoError(t, reg.Remove(context.Background(), "a.pdf"))

	assert.Equal(t, []string{"b.pdf"}, st.SelectedFiles())
	_, deleted := svc.snapshot()
	assert.Equal(t, ids, deleted)
	assert.Equal(t, []string{"b.pdf"}, reg.Names())
}

func TestRemove_UnknownStillDeselects(t *testing.T) {
	reg, _, st := setup(t)
	require.NoError(t, st.SetSelectedFiles([]string{"ghost.pdf"}))

	err := reg.Remove(context.Background(), "ghost.pdf")
	require.ErrorIs(t, err, ErrUnknownFile)
	assert.Empty(t, st.SelectedFiles())
}
