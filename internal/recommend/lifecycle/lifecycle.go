// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

// Package lifecycle runs the evaluate, retrain and promote cycle.
//
// One cycle refreshes last_retrain_days from the newest training artifact,
// asks the trigger whether the persisted snapshot warrants retraining, runs
// the training job, offers the challenger to the promotion manager and
// prunes old challengers. Cycles never overlap.
package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rktim/movie-recommender-mlops/internal/logging"
	"github.com/Rktim/movie-recommender-mlops/internal/metrics"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/monitor"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/promotion"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/retrain"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/storage"
)

// ErrCycleInProgress is returned when a cycle is requested while another runs.
var ErrCycleInProgress = errors.New("lifecycle cycle already in progress")

// Trainer produces a challenger.
type Trainer interface {
	Train(ctx context.Context) (retrain.Artifacts, error)
}

// Config configures the orchestrator.
type Config struct {
	// KeepChallengers is how many challengers survive pruning. 0 disables
	// pruning.
	// Default: 5.
	KeepChallengers int
}

// Outcome summarizes what a cycle did.
type Outcome string

const (
	OutcomeHealthy  Outcome = "healthy"
	OutcomeFailed   Outcome = "training_failed"
	OutcomePromoted Outcome = "promoted"
	OutcomeRejected Outcome = "rejected"
	OutcomeError    Outcome = "promotion_failed"
)

// CycleResult is the report of one cycle.
type CycleResult struct {
	CycleID   string             `json:"cycle_id"`
	StartedAt time.Time          `json:"started_at"`
	Duration  time.Duration      `json:"duration"`
	Snapshot  monitor.Snapshot   `json:"snapshot"`
	Forced    bool               `json:"forced"`
	Retrain   bool               `json:"retrain"`
	Reasons   []string           `json:"reasons,omitempty"`
	Artifacts *retrain.Artifacts `json:"artifacts,omitempty"`
	Outcome   Outcome            `json:"outcome"`
	Pruned    int                `json:"pruned"`
	Error     string             `json:"error,omitempty"`
}

// Orchestrator runs lifecycle cycles.
type Orchestrator struct {
	cfg      Config
	store    *monitor.SnapshotStore
	trigger  *retrain.Trigger
	trainer  Trainer
	manager  *promotion.Manager
	registry *storage.Registry
	logger   zerolog.Logger
	now      func() time.Time

	running sync.Mutex

	lastMu sync.RWMutex
	last   *CycleResult
}

// New creates an orchestrator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, store *monitor.SnapshotStore, trigger *retrain.Trigger, trainer Trainer,
	manager *promotion.Manager, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		store:    store,
		trigger:  trigger,
		trainer:  trainer,
		manager:  manager,
		registry: manager.Registry(),
		logger:   logger.With().Str("component", "lifecycle").Logger(),
		now:      time.Now,
	}
}

// Last returns the result of the most recent cycle, if any.
func (o *Orchestrator) Last() (*CycleResult, bool) {
	o.lastMu.RLock()
	defer o.lastMu.RUnlock()
	if o.last == nil {
		return nil, false
	}
	r := *o.last
	return &r, true
}

// RunCycle runs one cycle. force retrains even when no threshold is crossed.
// Training and promotion failures are reported in the result; the returned
// error is reserved for cycles that could not be evaluated at all.
func (o *Orchestrator) RunCycle(ctx context.Context, force bool) (*CycleResult, error) {
	if !o.running.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer o.running.Unlock()

	cycleID := logging.GenerateCycleID()
	ctx = logging.ContextWithCycleID(ctx, cycleID)
	log := logging.Ctx(ctx, o.logger)

	res := &CycleResult{CycleID: cycleID, StartedAt: o.now().UTC(), Forced: force}
	defer func() {
		res.Duration = o.now().Sub(res.StartedAt)
		o.lastMu.Lock()
		o.last = res
		o.lastMu.Unlock()
	}()

	snap, err := o.store.SetRetrainDays(o.retrainDays(ctx))
	if err != nil {
		res.Error = err.Error()
		return res, err
	}
	res.Snapshot = snap

	retrainNeeded, reasons := o.trigger.ShouldRetrain(snap)
	res.Reasons = reasons
	metrics.RecordRetrainReasons(reasons)
	if !retrainNeeded && !force {
		res.Outcome = OutcomeHealthy
		log.Info().
			Float64("cold_start_rate", snap.ColdStartRate).
			Float64("mean_similarity", snap.MeanSimilarity).
			Int("last_retrain_days", snap.LastRetrainDays).
			Msg("no retraining needed")
		return res, nil
	}
	res.Retrain = true
	log.Info().Strs("reasons", reasons).Bool("forced", force).Msg("retraining triggered")

	art, err := o.trainer.Train(ctx)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
		log.Error().Err(err).Msg("retraining failed")
		return res, nil
	}
	res.Artifacts = &art

	if _, err := o.store.SetRetrainDays(0); err != nil {
		log.Warn().Err(err).Msg("failed to reset last_retrain_days")
	}

	promoted, err := o.manager.Promote(ctx, art.ModelPath, art.ReportPath)
	switch {
	case err != nil:
		res.Outcome = OutcomeError
		res.Error = err.Error()
	case promoted:
		res.Outcome = OutcomePromoted
	default:
		res.Outcome = OutcomeRejected
	}

	if o.cfg.KeepChallengers > 0 {
		n, err := o.registry.PruneChallengers(ctx, o.cfg.KeepChallengers)
		if err != nil {
			log.Warn().Err(err).Msg("failed to prune challengers")
		}
		res.Pruned = n
	}

	log.Info().Str("outcome", string(res.Outcome)).Int("pruned", res.Pruned).Msg("lifecycle cycle complete")
	return res, nil
}

// retrainDays returns whole days since the newest training artifact, or 0
// when nothing was ever trained.
func (o *Orchestrator) retrainDays(ctx context.Context) int {
	ts, ok := o.registry.LatestTrainingTime(ctx)
	if !ok {
		return 0
	}
	days := int(o.now().Sub(ts) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}
