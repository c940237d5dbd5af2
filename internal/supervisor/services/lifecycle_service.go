// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Rktim/movie-recommender-mlops/internal/recommend/lifecycle"
)

// CycleRunner runs one evaluate/retrain/promote cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context, force bool) (*lifecycle.CycleResult, error)
}

// LifecycleServiceConfig holds configuration for the lifecycle service.
type LifecycleServiceConfig struct {
	// Schedule is a standard cron expression or descriptor.
	Schedule string

	// RunOnStartup runs one cycle as soon as the service starts.
	RunOnStartup bool
}

// LifecycleService runs lifecycle cycles on a cron schedule.
type LifecycleService struct {
	runner   CycleRunner
	config   LifecycleServiceConfig
	schedule cron.Schedule
	logger   zerolog.Logger
	now      func() time.Time
}

// NewLifecycleService parses the schedule and creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLifecycleService(runner CycleRunner, cfg LifecycleServiceConfig, logger zerolog.Logger) (*LifecycleService, error) {
	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse lifecycle schedule %q: %w", cfg.Schedule, err)
	}
	return &LifecycleService{
		runner:   runner,
		config:   cfg,
		schedule: schedule,
		logger:   logger.With().Str("service", "lifecycle").Logger(),
		now:      time.Now,
	}, nil
}

// Serve implements suture.Service.
func (s *LifecycleService) Serve(ctx context.Context) error {
	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Bool("run_on_startup", s.config.RunOnStartup).
		Msg("lifecycle service starting")

	if s.config.RunOnStartup {
		s.run(ctx, "startup")
	}

	for {
		next := s.schedule.Next(s.now())
		timer := time.NewTimer(next.Sub(s.now()))
		s.logger.Debug().Time("next_run", next).Msg("next lifecycle cycle scheduled")

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("lifecycle service shutting down")
			return ctx.Err()
		case <-timer.C:
			s.run(ctx, "schedule")
		}
	}
}

// run executes one cycle. Failures are logged and never stop the service;
// the next scheduled cycle retries.
func (s *LifecycleService) run(ctx context.Context, trigger string) {
	res, err := s.runner.RunCycle(ctx, false)
	switch {
	case errors.Is(err, lifecycle.ErrCycleInProgress):
		s.logger.Info().Str("trigger", trigger).Msg("lifecycle cycle skipped, another cycle is running")
	case err != nil:
		s.logger.Error().Err(err).Str("trigger", trigger).Msg("lifecycle cycle failed")
	default:
		s.logger.Info().
			Str("trigger", trigger).
			Str("cycle_id", res.CycleID).
			Str("outcome", string(res.Outcome)).
			Dur("duration", res.Duration).
			Msg("lifecycle cycle finished")
	}
}

// String returns the service name for logging.
func (s *LifecycleService) String() string {
	return "lifecycle-service"
}
