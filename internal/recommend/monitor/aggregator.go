// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

// Package monitor aggregates serving telemetry into the metrics snapshot
// that drives retraining decisions.
//
// The Aggregator accumulates request counters for one serving window and
// persists a Snapshot every FlushEvery requests. When the window is older
// than Window it is flushed once more and the counters start over. Counter
// updates and the capture of a flush happen under one mutex, so a flush and
// the reset that follows it are indivisible with respect to Record. File
// writes happen outside that mutex and are ordered by a sequence number.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rktim/movie-recommender-mlops/internal/metrics"
)

// Flush triggers, used as metric labels.
const (
	TriggerCount    = "count"
	TriggerWindow   = "window"
	TriggerManual   = "manual"
	TriggerShutdown = "shutdown"
)

// Config configures the Aggregator.
type Config struct {
	// FlushEvery persists a snapshot after every N-th request of a window.
	// Default: 10.
	FlushEvery int

	// Window is the serving window length. An older window is flushed and
	// reset.
	// Default: 24h.
	Window time.Duration
}

// DefaultConfig returns the default aggregator configuration.
func DefaultConfig() Config {
	return Config{
		FlushEvery: 10,
		Window:     24 * time.Hour,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.FlushEvery <= 0 {
		return errors.New("flush_every must be positive")
	}
	if c.Window <= 0 {
		return errors.New("window must be positive")
	}
	return nil
}

// WindowStats is a live view of the current window's counters.
type WindowStats struct {
	WindowStart     time.Time `json:"window_start"`
	Requests        int       `json:"requests"`
	ColdStarts      int       `json:"cold_starts"`
	SimilaritySum   float64   `json:"similarity_sum"`
	SimilarityCount int       `json:"similarity_count"`
}

// capture is a copy of the counters taken for one flush.
type capture struct {
	seq   uint64
	stats WindowStats
}

func (c capture) snapshot(lastRetrainDays int) Snapshot {
	snap := DefaultSnapshot()
	snap.QueryCount24h = c.stats.Requests
	snap.LastRetrainDays = lastRetrainDays
	if c.stats.Requests > 0 {
		snap.ColdStartRate = float64(c.stats.ColdStarts) / float64(c.stats.Requests)
	}
	if c.stats.SimilarityCount > 0 {
		snap.MeanSimilarity = c.stats.SimilaritySum / float64(c.stats.SimilarityCount)
	}
	return snap
}

// Aggregator accumulates serving telemetry. It implements recommend.Recorder
// and is safe for concurrent use.
type Aggregator struct {
	cfg    Config
	store  *SnapshotStore
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	stats WindowStats
	seq   uint64
}

// NewAggregator creates an aggregator persisting to store. The first window
// starts now.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewAggregator(cfg Config, store *SnapshotStore, logger zerolog.Logger) (*Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("snapshot store is required")
	}
	a := &Aggregator{
		cfg:    cfg,
		store:  store,
		logger: logger.With().Str("component", "metrics_aggregator").Logger(),
		now:    time.Now,
	}
	a.stats.WindowStart = a.now()
	return a, nil
}

// Store returns the snapshot store.
func (a *Aggregator) Store() *SnapshotStore { return a.store }

// Record adds one request to the current window. Persistence failures are
// logged and never reach the caller.
func (a *Aggregator) Record(coldStart bool, similarities []float64) {
	a.mu.Lock()
	a.stats.Requests++
	if coldStart {
		a.stats.ColdStarts++
	}
	for _, s := range similarities {
		a.stats.SimilaritySum += s
		a.stats.SimilarityCount++
	}

	var pending []capture
	var triggers []string
	if a.stats.Requests%a.cfg.FlushEvery == 0 {
		pending = append(pending, a.captureLocked())
		triggers = append(triggers, TriggerCount)
	}
	if c, ok := a.expireLocked(a.now()); ok {
		pending = append(pending, c)
		triggers = append(triggers, TriggerWindow)
	}
	a.mu.Unlock()

	for i, c := range pending {
		_, _ = a.persist(triggers[i], c) //nolint:errcheck // logged in persist
	}
}

// Flush persists a snapshot of the current window without resetting it.
func (a *Aggregator) Flush(ctx context.Context) (Snapshot, error) {
	return a.flush(ctx, TriggerManual)
}

// FlushOnShutdown persists the current window a final time.
func (a *Aggregator) FlushOnShutdown(ctx context.Context) (Snapshot, error) {
	return a.flush(ctx, TriggerShutdown)
}

func (a *Aggregator) flush(ctx context.Context, trigger string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	a.mu.Lock()
	c := a.captureLocked()
	a.mu.Unlock()
	return a.persist(trigger, c)
}

// Tick flushes and resets the window when it is older than the configured
// window length at now. It reports whether a flush happened.
func (a *Aggregator) Tick(now time.Time) (bool, error) {
	a.mu.Lock()
	c, ok := a.expireLocked(now)
	a.mu.Unlock()
	if !ok {
		return false, nil
	}
	_, err := a.persist(TriggerWindow, c)
	return true, err
}

// Current returns the live counters of the current window.
func (a *Aggregator) Current() WindowStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

func (a *Aggregator) captureLocked() capture {
	a.seq++
	return capture{seq: a.seq, stats: a.stats}
}

// expireLocked captures and resets the window if it has expired at now.
func (a *Aggregator) expireLocked(now time.Time) (capture, bool) {
	if now.Sub(a.stats.WindowStart) <= a.cfg.Window {
		return capture{}, false
	}
	c := a.captureLocked()
	a.stats = WindowStats{WindowStart: now}
	return c, true
}

func (a *Aggregator) persist(trigger string, c capture) (Snapshot, error) {
	snap, written, err := a.store.commit(c.seq, c.snapshot)
	metrics.RecordFlush(trigger, err)
	if err != nil {
		a.logger.Error().Err(err).Str("trigger", trigger).Msg("failed to persist metrics snapshot")
		return snap, err
	}
	if !written {
		a.logger.Debug().Uint64("seq", c.seq).Str("trigger", trigger).Msg("skipped stale snapshot")
		return snap, nil
	}

	metrics.RecordSnapshot(snap.ColdStartRate, snap.MeanSimilarity, snap.QueryCount24h, snap.LastRetrainDays)
	a.logger.Debug().
		Str("trigger", trigger).
		Float64("cold_start_rate", snap.ColdStartRate).
		Float64("mean_similarity", snap.MeanSimilarity).
		Int("query_count", snap.QueryCount24h).
		Msg("metrics snapshot persisted")
	return snap, nil
}
