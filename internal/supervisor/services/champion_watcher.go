// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ModelReloader swaps the serving model.
type ModelReloader interface {
	LoadFile(path string) error
	Clear()
}

// championOps are the events that can change the champion file. Atomic
// replacement shows up as Create on the target name.
const championOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// ChampionWatcherService reloads the serving model when the champion file
// changes on disk, for example when an operator copies a model in by hand.
// Bursts of events are coalesced by the debounce delay.
type ChampionWatcherService struct {
	reloader ModelReloader
	path     string
	debounce time.Duration
	logger   zerolog.Logger
}

// NewChampionWatcherService watches path. A non-positive debounce means 500ms.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewChampionWatcherService(reloader ModelReloader, path string, debounce time.Duration, logger zerolog.Logger) *ChampionWatcherService {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &ChampionWatcherService{
		reloader: reloader,
		path:     filepath.Clean(path),
		debounce: debounce,
		logger:   logger.With().Str("service", "champion-watcher").Str("path", path).Logger(),
	}
}

// Serve implements suture.Service. The directory is watched rather than the
// file so that replacement by rename is seen.
func (s *ChampionWatcherService) Serve(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create champion watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	timer := time.NewTimer(s.debounce)
	timer.Stop()
	defer timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("champion watcher event channel closed")
			}
			if filepath.Clean(event.Name) != s.path || event.Op&championOps == 0 {
				continue
			}
			timer.Reset(s.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			s.reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("champion watcher error channel closed")
			}
			s.logger.Warn().Err(err).Msg("champion watcher error")
		}
	}
}

// reload loads the champion file, or unloads the model when it is gone.
// A failed load keeps the current model.
func (s *ChampionWatcherService) reload() {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn().Msg("champion removed from disk, unloading scoring model")
		s.reloader.Clear()
		return
	}
	if err := s.reloader.LoadFile(s.path); err != nil {
		s.logger.Error().Err(err).Msg("champion changed on disk but could not be loaded")
		return
	}
	s.logger.Info().Msg("champion reloaded from disk")
}

// String returns the service name for logging.
func (s *ChampionWatcherService) String() string {
	return "champion-watcher"
}
