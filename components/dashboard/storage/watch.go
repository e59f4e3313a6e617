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

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

// DefaultWatchDebounce coalesces bursts of filesystem events for one key.
const DefaultWatchDebounce = 100 * time.Millisecond

// Watcher delivers external changes to a FileStore's keys.
type Watcher struct {
	store    *FileStore
	watcher  *fsnotify.Watcher
	onChange func(key string)
	debounce time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// Watch starts watching the store directory. onChange runs on the watcher goroutine once
// per debounced change made by another writer; the store's own writes are skipped.
func (s *FileStore) Watch(ctx context.Context, debounce time.Duration, onChange func(key string)) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("storage: start watcher: %w", err)
	}
	if err := fw.Add(s.dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("storage: watch %s: %w", s.dir, err)
	}
	w := &Watcher{
		store:    s,
		watcher:  fw,
		onChange: onChange,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go w.run(ctx)
	return w, nil
}

// Close stops the watcher and waits for its goroutine.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()
	pending := map[string]time.Time{}
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			key, ok := keyFromFile(filepath.Base(event.Name))
			if !ok {
				continue
			}
			pending[key] = time.Now()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.store.logger.Warn("storage: watcher error", zap.Error(err))
		case now := <-ticker.C:
			for key, seen := range pending {
				if now.Sub(seen) < w.debounce {
					continue
				}
				delete(pending, key)
				if w.store.isOwnWrite(key) {
					continue
				}
				w.store.logger.Debug("storage: external change", zap.String("key", key))
				if w.onChange != nil {
					w.onChange(key)
				}
			}
		}
	}
}

// StoreLookup resolves the live store of a user.
type StoreLookup func(userID string) (*dashboard.PresetStore, bool)

// ReloadOnChange returns a watch callback reloading the store that owns a rewritten presets
// or cycle settings key. Scoped keys route through lookup by their user prefix, unscoped keys
// resolve the "" user. reloaded, when set, runs after a reload that changed the store.
func ReloadOnChange(lookup StoreLookup, reloaded func(userID string)) func(key string) {
	return func(key string) {
		userID, base, ok := strings.Cut(key, "::")
		if !ok {
			userID, base = "", key
		}
		if base != dashboard.PresetsStorageKey && base != dashboard.CycleSettingsStorageKey {
			return
		}
		store, ok := lookup(userID)
		if !ok || store == nil {
			return
		}
		if store.Reload(context.Background()) && reloaded != nil {
			reloaded(userID)
		}
	}
}
