// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Note: this package depends on no other internal package. Title resolution,
// retrieval, ranking and telemetry are reached through the interfaces in
// types.go and wired in cmd/server.

// Components are the collaborators an Engine serves from. Catalog, Resolver
// and Index are built once from the catalog artifact and never change.
type Components struct {
	Catalog  Catalog
	Resolver Resolver
	Index    NeighborIndex

	// Ranker is optional. A nil Ranker serves retrieval order.
	Ranker Ranker

	// Recorder is optional. A nil Recorder drops telemetry.
	Recorder Recorder
}

// Engine resolves a title, retrieves similar movies and re-ranks them with
// the current scoring model. It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger
	comp   Components

	requestCount   atomic.Int64
	coldStartCount atomic.Int64
	degradedCount  atomic.Int64
	errorCount     atomic.Int64
}

// Stats is a point-in-time view of the engine's request counters.
type Stats struct {
	Requests   int64 `json:"requests"`
	ColdStarts int64 `json:"cold_starts"`
	Degraded   int64 `json:"ranking_degraded"`
	Errors     int64 `json:"errors"`
}

// NewEngine creates a recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, comp Components, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if comp.Catalog == nil || comp.Resolver == nil || comp.Index == nil {
		return nil, ErrNotReady
	}

	return &Engine{
		config: cfg,
		logger: logger.With().Str("component", "recommend").Logger(),
		comp:   comp,
	}, nil
}

// Recommend returns up to k movies similar to the movie named by query.
// k == 0 selects the configured default; k above the maximum is clamped.
//
// Every call is reported to the Recorder: a cold start with no similarities
// when the title is unknown, the retrieval similarities otherwise.
func (e *Engine) Recommend(ctx context.Context, query string, k int) (*Result, error) {
	start := time.Now()
	e.requestCount.Add(1)

	k, err := e.resolveK(k)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}

	id, err := e.comp.Resolver.Resolve(query)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.coldStartCount.Add(1)
			e.record(true, nil)
			e.logger.Debug().Str("query", query).Msg("cold start: title not resolved")
			return nil, fmt.Errorf("resolve %q: %w", query, ErrNotFound)
		}
		e.errorCount.Add(1)
		e.record(false, nil)
		return nil, fmt.Errorf("resolve %q: %w", query, err)
	}

	candidates, err := e.comp.Index.Neighbors(id, e.config.Retrieval.PoolSize)
	if err != nil {
		e.errorCount.Add(1)
		e.record(false, nil)
		return nil, fmt.Errorf("retrieve neighbours of item %d: %w", id, err)
	}

	outcome := e.rank(ctx, candidates)
	ordered := applyOrder(candidates, outcome)

	n := k
	if n > len(ordered) {
		n = len(ordered)
	}

	// Similarities come from retrieval positions, not the re-ranked order.
	sims := make([]float64, 0, n)
	for _, c := range candidates[:n] {
		sims = append(sims, c.Similarity)
	}

	resp := &Result{
		Query:        query,
		Titles:       make([]string, 0, n),
		Items:        make([]ScoredItem, 0, n),
		Similarities: sims,
		Ranking:      outcome.Status,
		RankReason:   outcome.Reason,
		ModelVersion: outcome.ModelVersion,
	}
	if item, ok := e.comp.Catalog.Item(id); ok {
		resp.ResolvedTitle = item.Title
	}
	for _, c := range ordered[:n] {
		item, ok := e.comp.Catalog.Item(c.ID)
		if !ok {
			continue
		}
		resp.Titles = append(resp.Titles, item.Title)
		resp.Items = append(resp.Items, ScoredItem{ID: c.ID, Title: item.Title, Similarity: c.Similarity})
	}
	resp.LatencyMS = time.Since(start).Milliseconds()

	e.record(false, sims)

	e.logger.Debug().
		Str("query", query).
		Int("item_id", id).
		Int("candidates", len(candidates)).
		Int("returned", len(resp.Titles)).
		Str("ranking", string(outcome.Status)).
		Int64("latency_ms", resp.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

// Stats returns the engine's request counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Requests:   e.requestCount.Load(),
		ColdStarts: e.coldStartCount.Load(),
		Degraded:   e.degradedCount.Load(),
		Errors:     e.errorCount.Load(),
	}
}

// GetConfig returns a copy of the engine configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

func (e *Engine) resolveK(k int) (int, error) {
	switch {
	case k < 0:
		return 0, ErrInvalidK
	case k == 0:
		return e.config.Limits.DefaultK, nil
	case k > e.config.Limits.MaxK:
		return e.config.Limits.MaxK, nil
	default:
		return k, nil
	}
}

func (e *Engine) rank(ctx context.Context, candidates []Candidate) RankOutcome {
	if !e.config.RankingEnabled || e.comp.Ranker == nil || len(candidates) == 0 {
		return Skipped()
	}
	if !e.comp.Ranker.Available() {
		return Skipped()
	}

	outcome := e.comp.Ranker.Rank(ctx, e.buildFeatureTable(candidates))
	if outcome.Status == RankApplied && !validOrder(outcome.Order, len(candidates)) {
		outcome = Degraded("ranker returned an invalid order", outcome.ModelVersion)
	}
	if outcome.Status == RankDegraded {
		e.degradedCount.Add(1)
		e.logger.Warn().
			Str("reason", outcome.Reason).
			Str("model_version", outcome.ModelVersion).
			Msg("ranking failed, serving retrieval order")
	}
	return outcome
}

// buildFeatureTable builds one row per candidate from catalog attributes.
// Missing attributes read as 0.
func (e *Engine) buildFeatureTable(candidates []Candidate) FeatureTable {
	rows := make([][]float64, len(candidates))
	for i, c := range candidates {
		item, _ := e.comp.Catalog.Item(c.ID)
		row := make([]float64, len(RankFeatures))
		for j, name := range RankFeatures {
			row[j] = item.Attribute(name)
		}
		rows[i] = row
	}
	return FeatureTable{Columns: RankFeatures, Rows: rows}
}

func (e *Engine) record(coldStart bool, sims []float64) {
	if e.comp.Recorder != nil {
		e.comp.Recorder.Record(coldStart, sims)
	}
}

// applyOrder returns candidates in ranked order, or retrieval order when the
// outcome was not applied.
func applyOrder(candidates []Candidate, outcome RankOutcome) []Candidate {
	if outcome.Status != RankApplied {
		return candidates
	}
	ordered := make([]Candidate, len(outcome.Order))
	for i, pos := range outcome.Order {
		ordered[i] = candidates[pos]
	}
	return ordered
}

// validOrder reports whether order is a permutation of [0, n).
func validOrder(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, pos := range order {
		if pos < 0 || pos >= n || seen[pos] {
			return false
		}
		seen[pos] = true
	}
	return true
}
