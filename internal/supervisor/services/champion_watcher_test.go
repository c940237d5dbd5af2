// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeReloader struct {
	loadErr error
	loads   chan string
	clears  chan struct{}
}

func newFakeReloader() *fakeReloader {
	return &fakeReloader{loads: make(chan string, 64), clears: make(chan struct{}, 64)}
}

func (f *fakeReloader) LoadFile(path string) error {
	f.loads <- path
	return f.loadErr
}

func (f *fakeReloader) Clear() { f.clears <- struct{}{} }

func TestChampionWatcherService_ReloadsAndClears(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ranker.gob.gz")
	reloader := newFakeReloader()
	svc := NewChampionWatcherService(reloader, path, 20*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	// The watch is registered asynchronously; keep writing until it is seen.
	deadline := time.After(5 * time.Second)
	var loaded string
	for loaded == "" {
		if err := os.WriteFile(path, []byte("model"), 0o600); err != nil {
			t.Fatal(err)
		}
		select {
		case loaded = <-reloader.loads:
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatal("champion change never reloaded")
		}
	}
	if loaded != path {
		t.Errorf("LoadFile(%q), want %q", loaded, path)
	}

	// Other files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "ranker_backup.gob.gz"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	select {
	case <-reloader.clears:
	case <-time.After(5 * time.Second):
		t.Fatal("champion removal never cleared the model")
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}

func TestChampionWatcherService_MissingDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "absent", "ranker.gob.gz")
	svc := NewChampionWatcherService(newFakeReloader(), path, 0, zerolog.Nop())
	if svc.debounce != 500*time.Millisecond {
		t.Errorf("debounce = %v, want 500ms", svc.debounce)
	}
	if err := svc.Serve(context.Background()); err == nil {
		t.Error("Serve() on a missing directory should fail")
	}
}
