// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Rktim/movie-recommender-mlops/internal/config"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/catalog"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/monitor"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/ranking"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/similarity"
)

// servingComponents are the request-path components.
type servingComponents struct {
	Engine     *recommend.Engine
	Catalog    *catalog.Catalog
	Handle     *ranking.Handle
	Store      *monitor.SnapshotStore
	Aggregator *monitor.Aggregator
}

// engineConfig maps the recommend section onto the engine configuration.
func engineConfig(cfg *config.Config) *recommend.Config {
	ec := recommend.DefaultConfig()
	ec.Retrieval.PoolSize = cfg.Recommend.PoolSize
	ec.Retrieval.FuzzyCutoff = cfg.Recommend.FuzzyCutoff
	ec.Limits.DefaultK = cfg.Recommend.DefaultK
	ec.Limits.MaxK = cfg.Recommend.MaxK
	ec.RankingEnabled = cfg.Recommend.RankingEnabled
	return ec
}

// initServing loads the catalog, builds the index, opens the metrics store and
// wires the engine. championPath is loaded into the ranking handle when it
// exists; a missing or unreadable champion only disables re-ranking.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initServing(cfg *config.Config, championPath string, logger zerolog.Logger) (*servingComponents, error) {
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	index, err := similarity.NewIndex(cat.Vectors())
	if err != nil {
		return nil, fmt.Errorf("build similarity index: %w", err)
	}
	resolver := catalog.NewResolver(cat, cfg.Recommend.FuzzyCutoff, cfg.Catalog.MemoSize)
	logger.Info().
		Str("path", cfg.Catalog.Path).
		Int("items", cat.Len()).
		Int("dim", index.Dim()).
		Msg("catalog loaded")

	handle := ranking.NewHandle(ranking.Config{
		FailureThreshold: cfg.Recommend.BreakerFailures,
		OpenTimeout:      cfg.Recommend.BreakerTimeout,
	}, logger)
	if err := reloadChampion(handle, championPath); err != nil {
		logger.Warn().Err(err).Str("path", championPath).Msg("champion model not loaded, serving retrieval order")
	}

	store, err := monitor.NewSnapshotStore(cfg.Metrics.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("open metrics snapshot: %w", err)
	}
	agg, err := monitor.NewAggregator(monitor.Config{
		FlushEvery: cfg.Metrics.FlushEvery,
		Window:     cfg.Metrics.Window,
	}, store, logger)
	if err != nil {
		return nil, fmt.Errorf("create metrics aggregator: %w", err)
	}

	engine, err := recommend.NewEngine(engineConfig(cfg), recommend.Components{
		Catalog:  cat,
		Resolver: resolver,
		Index:    index,
		Ranker:   handle,
		Recorder: agg,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	return &servingComponents{
		Engine:     engine,
		Catalog:    cat,
		Handle:     handle,
		Store:      store,
		Aggregator: agg,
	}, nil
}

// reloadChampion loads path into handle, or clears it when path is empty or
// the file does not exist.
func reloadChampion(handle *ranking.Handle, path string) error {
	if path == "" || !fileExists(path) {
		handle.Clear()
		return nil
	}
	return handle.LoadFile(path)
}
