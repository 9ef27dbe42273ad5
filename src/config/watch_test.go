package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store := NewStore(cfg)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	watcher, err := NewWatcher(store, path, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = watcher.Run(ctx)
	}()

	updated := `{"channels": {"discord": {"trustedSenders": ["5678"]}}}`
	if err := os.WriteFile(path, []byte(updated), 0600); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		trusted := store.Snapshot().Trusted("discord")
		if len(trusted) == 1 && trusted[0] == "5678" {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("snapshot not swapped, trusted = %v", trusted)
		case <-time.After(50 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestWatcher_KeepsSnapshotOnBadReload(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store := NewStore(cfg)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	watcher, err := NewWatcher(store, path, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = watcher.Run(ctx)
	}()

	if err := os.WriteFile(path, []byte("{broken"), 0600); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}

	// Give the debounce and reload a chance to fire, then confirm the
	// previous snapshot survived.
	time.Sleep(1 * time.Second)
	if trusted := store.Snapshot().Trusted("discord"); len(trusted) != 1 || trusted[0] != "1234" {
		t.Errorf("snapshot lost on failed reload, trusted = %v", trusted)
	}

	cancel()
	<-done
}

func TestNewWatcher_MissingPath(t *testing.T) {
	store := NewStore(Config{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewWatcher(store, "/nonexistent/config.json", logger); err == nil {
		t.Fatal("expected error for missing path")
	}
}
