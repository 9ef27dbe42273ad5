package config

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Store holds the current config snapshot. Readers get an immutable Config
// pointer; the reloader replaces the pointer atomically, so in-flight
// pipeline calls keep the snapshot they started with.
type Store struct {
	current atomic.Pointer[Config]
}

// NewStore creates a store seeded with the given snapshot.
func NewStore(cfg Config) *Store {
	s := &Store{}
	s.current.Store(&cfg)
	return s
}

// Snapshot returns the current immutable config.
func (s *Store) Snapshot() *Config {
	return s.current.Load()
}

// swap installs a new snapshot.
func (s *Store) swap(cfg Config) {
	s.current.Store(&cfg)
}

// Watcher reloads the config file on change and swaps the store snapshot.
// A failed reload logs and keeps the previous snapshot.
type Watcher struct {
	watcher *fsnotify.Watcher
	store   *Store
	path    string
	logger  *slog.Logger
}

// NewWatcher creates a file watcher for the config path.
func NewWatcher(store *Store, path string, logger *slog.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %q: %w", path, err)
	}

	return &Watcher{
		watcher: watcher,
		store:   store,
		path:    path,
		logger:  logger.With("area", "config"),
	}, nil
}

// Run watches for changes and hot-reloads. Blocks until ctx is cancelled.
// Writes are debounced: the reload fires 500ms after the last event, so
// editors that write in several steps trigger a single reload.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", "err", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error("hot-reload failed, keeping previous config", "err", err)
		return
	}
	w.store.swap(cfg)
	w.logger.Info("config reloaded", "path", w.path)
}
