// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/Rktim/movie-recommender-mlops/docs" // Swagger document for /swagger/*
	"github.com/Rktim/movie-recommender-mlops/internal/api"
	"github.com/Rktim/movie-recommender-mlops/internal/config"
	"github.com/Rktim/movie-recommender-mlops/internal/logging"
	"github.com/Rktim/movie-recommender-mlops/internal/supervisor"
	"github.com/Rktim/movie-recommender-mlops/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Caller:      cfg.Logging.Caller,
		Environment: cfg.Server.Environment,
	})
	logger := logging.Logger()

	logging.Info().
		Str("catalog", cfg.Catalog.Path).
		Str("champion_dir", cfg.Models.ChampionDir).
		Bool("retrain_enabled", cfg.Retrain.Enabled).
		Msg("Starting movie recommender with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry, err := initRegistry(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open model registry")
	}

	serving, err := initServing(cfg, registry.ChampionModel(), logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}

	lc, err := initLifecycle(cfg, registry, serving.Store, serving.Handle, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize model lifecycle")
	}
	defer func() {
		if err := lc.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close promotion ledger")
		}
	}()

	// === HTTP LAYER ===

	deps := api.Dependencies{
		Engine:    serving.Engine,
		Window:    serving.Aggregator,
		Snapshots: serving.Store,
		Models:    lc.Manager,
		Ranker:    serving.Handle,
	}
	if lc.Orchestrator != nil {
		deps.Lifecycle = lc.Orchestrator
	}
	handler, err := api.NewHandler(deps, api.HandlerConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		CycleTimeout:   cfg.Retrain.Trainer.Timeout + time.Minute,
	}, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create API handlers")
	}

	mwCfg := api.DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwCfg.RateLimitRequests = cfg.Security.RateLimitReqs
	mwCfg.RateLimitWindow = cfg.Security.RateLimitWindow
	mwCfg.RateLimitDisabled = cfg.Security.RateLimitDisabled
	adminAuth, err := initAdminAuth(cfg, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize admin authentication")
	}
	router := api.NewRouter(handler, api.NewChiMiddleware(mwCfg), adminAuth, logger)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddServingService(services.NewHTTPServerService(server, 10*time.Second, logger))
	tree.AddServingService(services.NewMetricsWindowService(serving.Aggregator, cfg.Metrics.TickInterval, logger))
	if cfg.Models.WatchChampion {
		tree.AddServingService(services.NewChampionWatcherService(serving.Handle, registry.ChampionModel(), 0, logger))
		logging.Info().Str("path", registry.ChampionModel()).Msg("Champion watcher added to supervisor tree")
	}

	if lc.Orchestrator != nil {
		lifecycleSvc, err := services.NewLifecycleService(lc.Orchestrator, services.LifecycleServiceConfig{
			Schedule:     cfg.Retrain.Schedule,
			RunOnStartup: cfg.Retrain.RunOnStartup,
		}, logger)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create lifecycle service")
		}
		tree.AddLifecycleService(lifecycleSvc)
		logging.Info().Str("schedule", cfg.Retrain.Schedule).Msg("Lifecycle service added to supervisor tree")
	}

	// === START ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		treeErr = <-errCh
	case treeErr = <-errCh:
		cancel()
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
