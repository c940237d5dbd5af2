// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package api

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rktim/movie-recommender-mlops/internal/recommend"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/lifecycle"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/monitor"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/promotion"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/ranking"
)

// Recommender serves recommendations. Implemented by *recommend.Engine.
type Recommender interface {
	Recommend(ctx context.Context, query string, k int) (*recommend.Result, error)
	Stats() recommend.Stats
}

// MetricsWindow exposes the serving window. Implemented by
// *monitor.Aggregator.
type MetricsWindow interface {
	Flush(ctx context.Context) (monitor.Snapshot, error)
	Current() monitor.WindowStats
}

// SnapshotReader reads the persisted snapshot. Implemented by
// *monitor.SnapshotStore.
type SnapshotReader interface {
	Load() (monitor.Snapshot, error)
}

// ModelManager runs promotions. Implemented by *promotion.Manager.
type ModelManager interface {
	Promote(ctx context.Context, modelPath, reportPath string) (bool, error)
	PromoteLatest(ctx context.Context) (bool, error)
	Rollback(ctx context.Context) error
	History(ctx context.Context, limit int) ([]promotion.Record, error)
	Status(ctx context.Context) (*promotion.Status, error)
}

// CycleRunner runs lifecycle cycles. Implemented by *lifecycle.Orchestrator.
type CycleRunner interface {
	RunCycle(ctx context.Context, force bool) (*lifecycle.CycleResult, error)
	Last() (*lifecycle.CycleResult, bool)
}

// RankerInfo reports the loaded scoring model. Implemented by
// *ranking.Handle.
type RankerInfo interface {
	Info() (ranking.Info, bool)
}

// Dependencies are the components the handlers serve from. Engine is
// required; a nil optional component makes its endpoints answer 503.
type Dependencies struct {
	Engine    Recommender
	Window    MetricsWindow
	Snapshots SnapshotReader
	Models    ModelManager
	Lifecycle CycleRunner
	Ranker    RankerInfo
}

// Handler holds the HTTP handlers.
type Handler struct {
	deps         Dependencies
	logger       zerolog.Logger
	timeout      time.Duration
	cycleTimeout time.Duration
	startTime    time.Time
}

// HandlerConfig configures request handling.
type HandlerConfig struct {
	// RequestTimeout bounds recommendation and model requests.
	// Default: 10s.
	RequestTimeout time.Duration

	// CycleTimeout bounds POST /api/v1/lifecycle/run, which trains a model.
	// Default: 2h.
	CycleTimeout time.Duration
}

// errNoEngine is returned by NewHandler without an engine.
var errNoEngine = errors.New("api: recommendation engine is required")

// NewHandler creates the handlers.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(deps Dependencies, cfg HandlerConfig, logger zerolog.Logger) (*Handler, error) {
	if deps.Engine == nil {
		return nil, errNoEngine
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = 2 * time.Hour
	}
	return &Handler{
		deps:         deps,
		logger:       logger.With().Str("component", "api").Logger(),
		timeout:      cfg.RequestTimeout,
		cycleTimeout: cfg.CycleTimeout,
		startTime:    time.Now(),
	}, nil
}
