// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/Rktim/movie-recommender-mlops/internal/config"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/lifecycle"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/monitor"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/promotion"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/ranking"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/retrain"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/storage"
)

// lifecycleComponents are the model lifecycle components.
type lifecycleComponents struct {
	Registry     *storage.Registry
	Ledger       *promotion.BadgerLedger
	Manager      *promotion.Manager
	Orchestrator *lifecycle.Orchestrator
}

// Close releases the ledger.
func (c *lifecycleComponents) Close() error {
	if c.Ledger == nil {
		return nil
	}
	return c.Ledger.Close()
}

// initRegistry opens the model directories. It runs before initServing so
// the champion path is known when the ranking handle is created.
func initRegistry(cfg *config.Config) (*storage.Registry, error) {
	reg, err := storage.NewRegistry(storage.Layout{
		ChampionDir:   cfg.Models.ChampionDir,
		ChallengerDir: cfg.Models.ChallengerDir,
		ReportsDir:    cfg.Models.ReportsDir,
	})
	if err != nil {
		return nil, fmt.Errorf("open model registry: %w", err)
	}
	return reg, nil
}

// initLifecycle wires promotion and retraining. Every champion change reloads
// the ranking handle. The orchestrator is nil when retraining is disabled;
// promotion and rollback stay available through the API.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initLifecycle(cfg *config.Config, reg *storage.Registry, store *monitor.SnapshotStore,
	handle *ranking.Handle, logger zerolog.Logger) (*lifecycleComponents, error) {
	ledger, err := promotion.OpenBadgerLedger(cfg.Models.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("open promotion ledger: %w", err)
	}
	comps := &lifecycleComponents{Registry: reg, Ledger: ledger}

	comps.Manager = promotion.NewManager(reg, ledger, logger)
	comps.Manager.OnChange(func(context.Context) error {
		return reloadChampion(handle, reg.ChampionModel())
	})

	if !cfg.Retrain.Enabled {
		logger.Info().Msg("scheduled retraining disabled")
		return comps, nil
	}

	trainer, err := retrain.NewTrainer(cfg.Retrain.Trainer, reg, retrain.ExecRunner{}, logger)
	if err != nil {
		_ = ledger.Close()
		return nil, fmt.Errorf("create trainer: %w", err)
	}
	comps.Orchestrator = lifecycle.New(
		lifecycle.Config{KeepChallengers: cfg.Models.KeepChallengers},
		store,
		retrain.NewTrigger(cfg.Retrain.Thresholds),
		trainer,
		comps.Manager,
		logger,
	)
	return comps, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
