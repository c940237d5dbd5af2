// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateCatalog(); err != nil {
		return err
	}

	if err := c.validateRecommend(); err != nil {
		return err
	}

	if err := c.validateModels(); err != nil {
		return err
	}

	if err := c.validateMetrics(); err != nil {
		return err
	}

	if err := c.validateRetrain(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", c.Server.RequestTimeout)
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
		return nil
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got %q", c.Server.Environment)
	}
}

func (c *Config) validateCatalog() error {
	if strings.TrimSpace(c.Catalog.Path) == "" {
		return fmt.Errorf("CATALOG_PATH is required")
	}
	if c.Catalog.MemoSize < 0 {
		return fmt.Errorf("TITLE_MEMO_SIZE must be non-negative, got %d", c.Catalog.MemoSize)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.PoolSize < 1 {
		return fmt.Errorf("RECOMMEND_POOL_SIZE must be positive, got %d", r.PoolSize)
	}
	if r.DefaultK < 1 {
		return fmt.Errorf("RECOMMEND_DEFAULT_K must be positive, got %d", r.DefaultK)
	}
	if r.MaxK < r.DefaultK {
		return fmt.Errorf("RECOMMEND_MAX_K (%d) must be >= RECOMMEND_DEFAULT_K (%d)", r.MaxK, r.DefaultK)
	}
	if r.MaxK > r.PoolSize {
		return fmt.Errorf("RECOMMEND_MAX_K (%d) must be <= RECOMMEND_POOL_SIZE (%d)", r.MaxK, r.PoolSize)
	}
	if r.FuzzyCutoff <= 0 || r.FuzzyCutoff > 1 {
		return fmt.Errorf("FUZZY_CUTOFF must be in (0, 1], got %v", r.FuzzyCutoff)
	}
	if r.BreakerFailures < 1 {
		return fmt.Errorf("RANKER_BREAKER_FAILURES must be positive")
	}
	if r.BreakerTimeout <= 0 {
		return fmt.Errorf("RANKER_BREAKER_TIMEOUT must be positive, got %v", r.BreakerTimeout)
	}
	return nil
}

func (c *Config) validateModels() error {
	m := c.Models
	if m.ChampionDir == "" || m.ChallengerDir == "" || m.ReportsDir == "" {
		return fmt.Errorf("CHAMPION_DIR, CHALLENGER_DIR and REPORTS_DIR are required")
	}
	if m.KeepChallengers < 0 {
		return fmt.Errorf("KEEP_CHALLENGERS must be non-negative, got %d", m.KeepChallengers)
	}
	return nil
}

func (c *Config) validateMetrics() error {
	m := c.Metrics
	if m.SnapshotPath == "" {
		return fmt.Errorf("METRICS_SNAPSHOT_PATH is required")
	}
	if m.FlushEvery < 1 {
		return fmt.Errorf("METRICS_FLUSH_EVERY must be positive, got %d", m.FlushEvery)
	}
	if m.Window <= 0 {
		return fmt.Errorf("METRICS_WINDOW must be positive, got %v", m.Window)
	}
	if m.TickInterval <= 0 {
		return fmt.Errorf("METRICS_TICK_INTERVAL must be positive, got %v", m.TickInterval)
	}
	return nil
}

func (c *Config) validateRetrain() error {
	if err := c.Retrain.Thresholds.Validate(); err != nil {
		return fmt.Errorf("retrain thresholds: %w", err)
	}
	if !c.Retrain.Enabled {
		return nil
	}
	if _, err := cron.ParseStandard(c.Retrain.Schedule); err != nil {
		return fmt.Errorf("RETRAIN_SCHEDULE %q is invalid: %w", c.Retrain.Schedule, err)
	}
	if err := c.Retrain.Trainer.Validate(); err != nil {
		return fmt.Errorf("retrain trainer: %w", err)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	sec := c.Security
	switch sec.AuthMode {
	case AuthModeJWT:
		if sec.JWTSecret != "" && len(sec.JWTSecret) < MinJWTSecretLength {
			return fmt.Errorf("JWT_SECRET must be at least %d characters, got %d", MinJWTSecretLength, len(sec.JWTSecret))
		}
		if sec.TokenTTL <= 0 {
			return fmt.Errorf("TOKEN_TTL must be positive, got %v", sec.TokenTTL)
		}
	case AuthModeNone:
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeJWT, AuthModeNone, sec.AuthMode)
	}

	if sec.RateLimitDisabled {
		return nil
	}
	if sec.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", sec.RateLimitReqs)
	}
	if sec.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", sec.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
