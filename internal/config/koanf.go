// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/Rktim/movie-recommender-mlops/internal/recommend/retrain"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/movie-recommender/config.yaml",
	"/etc/movie-recommender/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPathEnvVar overrides the dotenv file loaded before the environment layer.
const DotEnvPathEnvVar = "DOTENV_PATH"

// defaultDotEnvPath is the dotenv file read when DOTENV_PATH is unset.
const defaultDotEnvPath = ".env"

// defaultConfig returns a Config struct with all defaults.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8000,
			Host:           "0.0.0.0",
			Timeout:        30 * time.Second,
			RequestTimeout: 10 * time.Second,
			Environment:    "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Catalog: CatalogConfig{
			Path:     "models/catalog.gob.gz",
			MemoSize: 1024,
		},
		Recommend: RecommendConfig{
			PoolSize:        25,
			DefaultK:        5,
			MaxK:            20,
			FuzzyCutoff:     0.75,
			RankingEnabled:  true,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Models: ModelsConfig{
			ChampionDir:     "models/champion",
			ChallengerDir:   "models/challengers",
			ReportsDir:      "reports",
			LedgerPath:      "data/promotions",
			KeepChallengers: 5,
			WatchChampion:   true,
		},
		Metrics: MetricsConfig{
			SnapshotPath: "metrics/metrics.json",
			FlushEvery:   10,
			Window:       24 * time.Hour,
			TickInterval: time.Minute,
		},
		Retrain: RetrainConfig{
			Enabled:      true,
			Schedule:     "0 3 * * *",
			RunOnStartup: false,
			Thresholds:   retrain.DefaultThresholds(),
			Trainer:      retrain.DefaultTrainerConfig(),
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			AuthMode:          AuthModeJWT,
			TokenTTL:          24 * time.Hour,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
//
// A .env file, when present, is exported into the process environment
// before the environment layer is read. Variables already set in the
// environment win over the file.
func LoadWithKoanf() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv exports the dotenv file into the environment. A missing file
// is not an error.
func loadDotEnv() error {
	path := os.Getenv(DotEnvPathEnvVar)
	if path == "" {
		path = defaultDotEnvPath
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat dotenv file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load dotenv file %s: %w", path, err)
	}
	return nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"retrain.trainer.args",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":       "server.host",
	"http_port":       "server.port",
	"server_timeout":  "server.timeout",
	"request_timeout": "server.request_timeout",
	"environment":     "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Catalog
	"catalog_path":    "catalog.path",
	"title_memo_size": "catalog.memo_size",

	// Recommendation engine
	"recommend_pool_size":      "recommend.pool_size",
	"recommend_default_k":      "recommend.default_k",
	"recommend_max_k":          "recommend.max_k",
	"fuzzy_cutoff":             "recommend.fuzzy_cutoff",
	"ranking_enabled":          "recommend.ranking_enabled",
	"ranker_breaker_failures":  "recommend.breaker_failures",
	"ranker_breaker_timeout":   "recommend.breaker_timeout",

	// Model registry
	"champion_dir":          "models.champion_dir",
	"challenger_dir":        "models.challenger_dir",
	"reports_dir":           "models.reports_dir",
	"promotion_ledger_path": "models.ledger_path",
	"keep_challengers":      "models.keep_challengers",
	"watch_champion":        "models.watch_champion",

	// Serving metrics
	"metrics_snapshot_path": "metrics.snapshot_path",
	"metrics_flush_every":   "metrics.flush_every",
	"metrics_window":        "metrics.window",
	"metrics_tick_interval": "metrics.tick_interval",

	// Retraining
	"retrain_enabled":          "retrain.enabled",
	"retrain_schedule":         "retrain.schedule",
	"retrain_on_startup":       "retrain.run_on_startup",
	"max_cold_start_rate":      "retrain.thresholds.max_cold_start_rate",
	"min_mean_similarity":      "retrain.thresholds.min_mean_similarity",
	"max_days_without_retrain": "retrain.thresholds.max_days_without_retrain",
	"trainer_command":          "retrain.trainer.command",
	"trainer_args":             "retrain.trainer.args",
	"trainer_workdir":          "retrain.trainer.work_dir",
	"trainer_timeout":          "retrain.trainer.timeout",

	// Security
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",
	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"token_ttl":           "security.token_ttl",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - CHAMPION_DIR -> models.champion_dir
//   - MAX_COLD_START_RATE -> retrain.thresholds.max_cold_start_rate
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// Unmapped keys are skipped so unrelated variables never reach the config.
	return ""
}
