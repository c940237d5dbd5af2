// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rktim/movie-recommender-mlops/internal/recommend/monitor"
)

// WindowAggregator is the part of monitor.Aggregator the window service drives.
type WindowAggregator interface {
	Tick(now time.Time) (bool, error)
	FlushOnShutdown(ctx context.Context) (monitor.Snapshot, error)
}

// MetricsWindowService closes expired metrics windows on an idle server and
// persists the live window on shutdown.
type MetricsWindowService struct {
	agg          WindowAggregator
	interval     time.Duration
	flushTimeout time.Duration
	logger       zerolog.Logger
}

// NewMetricsWindowService creates the service. A non-positive interval means
// one minute.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMetricsWindowService(agg WindowAggregator, interval time.Duration, logger zerolog.Logger) *MetricsWindowService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &MetricsWindowService{
		agg:          agg,
		interval:     interval,
		flushTimeout: 5 * time.Second,
		logger:       logger.With().Str("service", "metrics-window").Logger(),
	}
}

// Serve implements suture.Service.
func (s *MetricsWindowService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), s.flushTimeout)
			snap, err := s.agg.FlushOnShutdown(flushCtx)
			cancel()
			if err != nil {
				s.logger.Error().Err(err).Msg("final metrics flush failed")
			} else {
				s.logger.Info().Int("query_count_24h", snap.QueryCount24h).Msg("final metrics snapshot written")
			}
			return ctx.Err()

		case now := <-ticker.C:
			flushed, err := s.agg.Tick(now)
			if err != nil {
				s.logger.Warn().Err(err).Msg("metrics window flush failed")
			} else if flushed {
				s.logger.Debug().Msg("metrics window closed")
			}
		}
	}
}

// String returns the service name for logging.
func (s *MetricsWindowService) String() string {
	return "metrics-window-service"
}
