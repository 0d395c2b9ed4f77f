// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

// =============================================================================
// KV CONTRACT
// =============================================================================

func testKVContract(t *testing.T, kv KV) {
	_, ok, err := kv.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set("pgpt-chat-mode", `"query"`))
	v, ok, err := kv.Get("pgpt-chat-mode")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"query"`, v)

	// Last write wins.
	require.NoError(t, kv.Set("pgpt-chat-mode", `"search"`))
	v, _, _ = kv.Get("pgpt-chat-mode")
	assert.Equal(t, `"search"`, v)

	require.NoError(t, kv.Delete("pgpt-chat-mode"))
	require.NoError(t, kv.Delete("pgpt-chat-mode"))
	_, ok, _ = kv.Get("pgpt-chat-mode")
	assert.False(t, ok)

	require.NoError(t, kv.Set("a", "1"))
	require.NoError(t, kv.SetMany(map[string]*string{
		"a": nil,
		"b": strPtr("2"),
	}))
	_, ok, _ = kv.Get("a")
	assert.False(t, ok, "nil value should delete")
	v, ok, _ = kv.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestMemory_KVContract(t *testing.T) {
	testKVContract(t, NewMemory())
}

func TestStore_KVContract(t *testing.T) {
	testKVContract(t, openTemp(t))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("system-prompt", `"You are terse."`))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get("system-prompt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"You are terse."`, v)
}

func TestStore_Keys(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Set("b", "1"))
	require.NoError(t, s.Set("a", "1"))

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestMemory_Keys(t *testing.T) {
	m := NewMemory()
	_ = m.Set("z", "1")
	_ = m.Set("m", "1")
	assert.Equal(t, []string{"m", "z"}, m.Keys())
}

// =============================================================================
// DATA VERSION AND WATCHER
// =============================================================================

func TestStore_DataVersionIgnoresOwnWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(path)
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	v0, err := a.DataVersion(ctx)
	require.NoError(t, err)

	require.NoError(t, a.Set("k", "own"))
	v1, _ := a.DataVersion(ctx)
	assert.Equal(t, v0, v1, "own commit must not bump data_version")

	require.NoError(t, b.Set("k", "other"))
	v2, _ := a.DataVersion(ctx)
	assert.NotEqual(t, v1, v2, "other connection's commit must bump data_version")
}

func TestWatcher_NotifiesOnExternalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(path)
	require.NoError(t, err)
	defer b.Close()

	w, err := NewWatcher(a, 20*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Close()

	require.NoError(t, b.Set("messages", "[]"))

	select {
	case <-w.Changes():
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification for external write")
	}
}

func TestWatcher_CloseIsClean(t *testing.T) {
	s := openTemp(t)
	w, err := NewWatcher(s, 10*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	assert.NoError(t, w.Close())
}
