// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

// Package recommend implements the hybrid movie recommendation engine.
//
// # Pipeline
//
// A request flows through four stages:
//
//  1. Title resolution: the query is normalized and looked up exactly, then
//     fuzzily (see package catalog). An unresolved title is a cold start.
//  2. Retrieval: the PoolSize nearest items by cosine similarity, excluding
//     the query item (see package similarity).
//  3. Ranking: if a scoring model is loaded, candidates are re-ordered by
//     predicted relevance from their popularity and vote features (see
//     package ranking). Any failure falls back to retrieval order.
//  4. Truncation to k and mapping to titles.
//
// Each request is reported to a Recorder (see package monitor), whose rolling
// statistics drive the retraining and promotion lifecycle in packages
// retrain and promotion.
//
// # Usage
//
//	engine, err := recommend.NewEngine(cfg, recommend.Components{
//	    Catalog:  cat,
//	    Resolver: catalog.NewResolver(cat, cfg.Retrieval.FuzzyCutoff),
//	    Index:    index,
//	    Ranker:   handle,
//	    Recorder: aggregator,
//	}, logger)
//
//	res, err := engine.Recommend(ctx, "the dark knight", 5)
//	if errors.Is(err, recommend.ErrNotFound) {
//	    // cold start
//	}
//
// # Thread Safety
//
// The engine holds no mutable state besides atomic counters. The catalog and
// vector index are immutable after load, and the ranker swaps models through
// an atomic pointer, so requests never block on a model promotion.
package recommend
