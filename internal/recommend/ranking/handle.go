// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

// Package ranking holds the champion scoring model used to re-order
// retrieval candidates.
//
// A Handle owns the currently loaded model. Reads are lock-free through an
// atomic pointer; Swap and LoadFile replace the model while in-flight Rank
// calls finish on the snapshot they loaded. Each loaded model gets its own
// circuit breaker so a model that keeps failing stops being consulted until
// the breaker half-opens. Rank never returns an error: every failure becomes
// a degraded outcome and the engine serves retrieval order.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/Rktim/movie-recommender-mlops/internal/metrics"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/storage"
)

// Config configures the per-model circuit breaker.
type Config struct {
	// FailureThreshold is the number of consecutive prediction failures
	// that opens the breaker.
	// Default: 5.
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open before a trial request.
	// Default: 30s.
	OpenTimeout time.Duration
}

// DefaultConfig returns the default breaker configuration.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// reasonCircuitOpen is the degraded reason while the breaker rejects calls.
const reasonCircuitOpen = "circuit open"

// Info describes the loaded model.
type Info struct {
	Version   string    `json:"version"`
	Family    string    `json:"family"`
	Features  []string  `json:"features"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
	LoadedAt  time.Time `json:"loaded_at"`
	Breaker   string    `json:"breaker_state"`
}

type loaded struct {
	model   Model
	info    Info
	breaker *gobreaker.CircuitBreaker[[]float64]
}

// Handle is the swappable reference to the champion model. The zero value
// is not usable; create one with NewHandle.
type Handle struct {
	cfg    Config
	logger zerolog.Logger

	swapMu  sync.Mutex
	current atomic.Pointer[loaded]
}

// NewHandle creates an empty handle. Rank reports skipped until a model is
// loaded.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandle(cfg Config, logger zerolog.Logger) *Handle {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultConfig().OpenTimeout
	}
	return &Handle{
		cfg:    cfg,
		logger: logger.With().Str("component", "ranking").Logger(),
	}
}

// Available reports whether a model is loaded.
func (h *Handle) Available() bool {
	return h.current.Load() != nil
}

// Info returns the loaded model's description.
func (h *Handle) Info() (Info, bool) {
	l := h.current.Load()
	if l == nil {
		return Info{}, false
	}
	info := l.info
	info.Breaker = l.breaker.State().String()
	return info, true
}

// Swap installs model under version with a fresh circuit breaker. A nil
// model clears the handle.
func (h *Handle) Swap(model Model, version string) {
	if model == nil {
		h.Clear()
		return
	}
	h.install(model, Info{Version: version})
}

// Clear unloads the current model.
func (h *Handle) Clear() {
	h.swapMu.Lock()
	prev := h.current.Swap(nil)
	h.swapMu.Unlock()

	metrics.SetRankerLoaded(false)
	if prev != nil {
		h.logger.Info().Str("version", prev.info.Version).Msg("scoring model unloaded")
	}
}

// LoadFile reads a ranker artifact from path and swaps it in. The previous
// model stays loaded when reading or decoding fails.
func (h *Handle) LoadFile(path string) error {
	var state storage.RankerState
	meta, err := storage.ReadArtifact(path, &state)
	if err != nil {
		metrics.RankerReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("load ranker %s: %w", path, err)
	}
	if meta.Kind != "" && meta.Kind != storage.KindRanker {
		metrics.RankerReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("load ranker %s: artifact kind %q", path, meta.Kind)
	}

	model, err := FromState(&state)
	if err != nil {
		metrics.RankerReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("load ranker %s: %w", path, err)
	}

	h.install(model, Info{
		Version:   versionOf(path, meta),
		TrainedAt: meta.TrainedAt,
	})
	metrics.RankerReloads.WithLabelValues("success").Inc()
	return nil
}

func (h *Handle) install(model Model, info Info) {
	info.Family = model.Family()
	info.Features = model.Features()
	info.LoadedAt = time.Now()

	// Build outside the lock; only the pointer store is serialized.
	next := &loaded{
		model:   model,
		info:    info,
		breaker: h.newBreaker(info.Version),
	}

	h.swapMu.Lock()
	prev := h.current.Swap(next)
	h.swapMu.Unlock()

	metrics.SetRankerLoaded(true)
	ev := h.logger.Info().
		Str("version", info.Version).
		Str("family", info.Family).
		Strs("features", info.Features)
	if prev != nil {
		ev = ev.Str("previous_version", prev.info.Version)
	}
	ev.Msg("scoring model loaded")
}

func (h *Handle) newBreaker(version string) *gobreaker.CircuitBreaker[[]float64] {
	threshold := h.cfg.FailureThreshold
	settings := gobreaker.Settings{
		Name:        "ranker:" + version,
		MaxRequests: 1,
		Timeout:     h.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(name, from.String(), to.String())
			h.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("ranking circuit breaker state change")
		},
	}
	return gobreaker.NewCircuitBreaker[[]float64](settings)
}

// Rank scores every row of table with the loaded model and returns candidate
// positions ordered by descending probability. Equal probabilities keep
// retrieval order.
func (h *Handle) Rank(ctx context.Context, table recommend.FeatureTable) recommend.RankOutcome {
	l := h.current.Load()
	if l == nil {
		return recommend.Skipped()
	}
	version := l.info.Version

	if err := ctx.Err(); err != nil {
		return recommend.Degraded(err.Error(), version)
	}

	rows, err := project(table, l.model.Features())
	if err != nil {
		return recommend.Degraded(err.Error(), version)
	}

	scores, err := l.breaker.Execute(func() ([]float64, error) {
		return predict(l.model, rows)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return recommend.Degraded(reasonCircuitOpen, version)
		}
		return recommend.Degraded(err.Error(), version)
	}

	return recommend.Applied(order(scores), version)
}

// project selects the model's feature columns from table by name.
func project(table recommend.FeatureTable, features []string) ([][]float64, error) {
	cols := make([]int, len(features))
	for i, name := range features {
		c := table.Column(name)
		if c < 0 {
			return nil, fmt.Errorf("missing feature column %q", name)
		}
		cols[i] = c
	}

	rows := make([][]float64, len(table.Rows))
	for r, src := range table.Rows {
		row := make([]float64, len(cols))
		for i, c := range cols {
			if c >= len(src) {
				return nil, fmt.Errorf("row %d is missing column %q", r, features[i])
			}
			row[i] = src[c]
		}
		rows[r] = row
	}
	return rows, nil
}

// predict runs the model, turning panics and malformed output into errors.
func predict(model Model, rows [][]float64) (scores []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			scores = nil
			err = fmt.Errorf("model panicked: %v", r)
		}
	}()

	scores, err = model.PredictProba(rows)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(rows) {
		return nil, fmt.Errorf("model returned %d scores for %d rows", len(scores), len(rows))
	}
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("non-finite score at row %d", i)
		}
	}
	return scores, nil
}

func order(scores []float64) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	return idx
}

func versionOf(path string, meta *storage.ArtifactMetadata) string {
	name := meta.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), storage.ArtifactExt)
	}
	if len(meta.Checksum) >= 8 {
		return name + "@" + meta.Checksum[:8]
	}
	return name
}
