// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/Rktim/movie-recommender-mlops/internal/recommend/retrain"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. .env: Optional dotenv file, exported into the process environment
//  3. Config File: Optional YAML config file (config.yaml)
//  4. Environment Variables: Override any setting via the mapping in koanf.go
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Recommend RecommendConfig `koanf:"recommend"`
	Models    ModelsConfig    `koanf:"models"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Retrain   RetrainConfig   `koanf:"retrain"`
	Security  SecurityConfig  `koanf:"security"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`

	// RequestTimeout bounds a single API request.
	// Default: 10s
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// Environment is "development", "staging" or "production".
	// Default: development
	Environment string `koanf:"environment"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// CatalogConfig locates the catalog and vector artifact.
type CatalogConfig struct {
	// Path is the catalog artifact: .gob.gz or .json.
	// Default: models/catalog.gob.gz
	Path string `koanf:"path"`

	// MemoSize is the number of fuzzy title resolutions kept in memory.
	// 0 disables the memo.
	// Default: 1024
	MemoSize int `koanf:"memo_size"`
}

// RecommendConfig configures the serving engine.
type RecommendConfig struct {
	// PoolSize is the number of neighbours retrieved before ranking.
	// Default: 25
	PoolSize int `koanf:"pool_size"`

	// DefaultK is the result count when a request asks for 0.
	// Default: 5
	DefaultK int `koanf:"default_k"`

	// MaxK caps the result count of one request.
	// Default: 20
	MaxK int `koanf:"max_k"`

	// FuzzyCutoff is the minimum title similarity ratio for a fuzzy match.
	// Default: 0.75
	FuzzyCutoff float64 `koanf:"fuzzy_cutoff"`

	// RankingEnabled turns the learned ranking stage on.
	// Default: true
	RankingEnabled bool `koanf:"ranking_enabled"`

	// BreakerFailures is the number of consecutive ranking failures that
	// open the ranker's circuit breaker.
	// Default: 5
	BreakerFailures uint32 `koanf:"breaker_failures"`

	// BreakerTimeout is how long an open breaker waits before probing.
	// Default: 30s
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}

// ModelsConfig locates the model registry.
type ModelsConfig struct {
	// ChampionDir holds the serving model and its rollback copy.
	// Default: models/champion
	ChampionDir string `koanf:"champion_dir"`

	// ChallengerDir receives models written by the training job.
	// Default: models/challengers
	ChallengerDir string `koanf:"challenger_dir"`

	// ReportsDir holds evaluation reports.
	// Default: reports
	ReportsDir string `koanf:"reports_dir"`

	// LedgerPath is the BadgerDB directory of the promotion ledger. Empty
	// keeps the ledger in memory.
	// Default: data/promotions
	LedgerPath string `koanf:"ledger_path"`

	// KeepChallengers is how many challengers survive pruning. 0 keeps all.
	// Default: 5
	KeepChallengers int `koanf:"keep_challengers"`

	// WatchChampion reloads the serving model when the champion file
	// changes on disk.
	// Default: true
	WatchChampion bool `koanf:"watch_champion"`
}

// MetricsConfig configures the serving metrics window.
type MetricsConfig struct {
	// SnapshotPath is the JSON file the aggregator persists to.
	// Default: metrics/metrics.json
	SnapshotPath string `koanf:"snapshot_path"`

	// FlushEvery persists a snapshot every N requests.
	// Default: 10
	FlushEvery int `koanf:"flush_every"`

	// Window is the rolling window after which counters reset.
	// Default: 24h
	Window time.Duration `koanf:"window"`

	// TickInterval is how often an idle server checks for window expiry.
	// Default: 1m
	TickInterval time.Duration `koanf:"tick_interval"`
}

// RetrainConfig configures the lifecycle cycle.
type RetrainConfig struct {
	// Enabled runs the lifecycle service.
	// Default: true
	Enabled bool `koanf:"enabled"`

	// Schedule is a standard five-field cron expression or descriptor
	// (@daily, @every 6h).
	// Default: 0 3 * * *
	Schedule string `koanf:"schedule"`

	// RunOnStartup runs one evaluation cycle when the service starts.
	// Default: false
	RunOnStartup bool `koanf:"run_on_startup"`

	Thresholds retrain.Thresholds    `koanf:"thresholds"`
	Trainer    retrain.TrainerConfig `koanf:"trainer"`
}

// Authentication modes for the admin endpoints.
const (
	AuthModeJWT  = "jwt"
	AuthModeNone = "none"
)

// MinJWTSecretLength is the shortest accepted HS256 secret.
const MinJWTSecretLength = 32

// SecurityConfig configures the HTTP edge.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`

	// AuthMode guards the endpoints that change the champion, flush metrics
	// or start a lifecycle cycle: "jwt" requires a bearer token with the
	// admin role, "none" leaves them open.
	// In jwt mode without a JWTSecret those endpoints answer 401.
	// Default: jwt
	AuthMode string `koanf:"auth_mode"`

	// JWTSecret signs and verifies admin tokens (HS256, at least 32 bytes).
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTL is the lifetime of tokens issued by cmd/admintoken.
	// Default: 24h
	TokenTTL time.Duration `koanf:"token_ttl"`
}

// Load reads the configuration. See LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Addr returns the listen address of the HTTP server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
