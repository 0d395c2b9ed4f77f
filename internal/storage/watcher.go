// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// =============================================================================
// CHANGE WATCHER
// =============================================================================

// Watcher reports commits made to the database by other processes.
//
// fsnotify events on the database, its WAL or its SHM file are debounced,
// then PRAGMA data_version decides whether the change came from elsewhere.
// Our own writes never produce a notification.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *zap.Logger

	changes chan struct{}

	mu          sync.Mutex
	timer       *time.Timer
	lastVersion int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for store. It does nothing until Start.
func NewWatcher(store *Store, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		store:    store,
		watcher:  fw,
		debounce: debounce,
		log:      log.Named("storage.watcher"),
		changes:  make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start begins watching the database directory.
func (w *Watcher) Start() error {
	v, err := w.store.DataVersion(w.ctx)
	if err != nil {
		return err
	}
	w.lastVersion = v

	// Watch the directory: SQLite creates and removes -wal/-shm files.
	if err := w.watcher.Add(filepath.Dir(w.store.Path())); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.store.Path()), err)
	}

	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Changes delivers one value per batch of external commits. Bursts are
// coalesced; the receiver should re-read whatever it cares about.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("fsnotify error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(name string) bool {
	base := filepath.Base(w.store.Path())
	return strings.HasPrefix(filepath.Base(name), base)
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.check)
}

// check compares data_version and notifies on change.
func (w *Watcher) check() {
	if w.ctx.Err() != nil {
		return
	}
	v, err := w.store.DataVersion(w.ctx)
	if err != nil {
		w.log.Debug("data_version check failed", zap.Error(err))
		return
	}

	w.mu.Lock()
	changed := v != w.lastVersion
	w.lastVersion = v
	w.mu.Unlock()

	if !changed {
		return
	}
	w.log.Debug("external storage change", zap.Int64("data_version", v))
	select {
	case w.changes <- struct{}{}:
	default:
	}
}
