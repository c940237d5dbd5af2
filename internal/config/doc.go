// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

/*
Package config provides centralized configuration management for the
recommender service.

Configuration is layered with Koanf v2: built-in defaults, an optional YAML
file, then environment variables. A .env file is exported into the
environment first when it exists (DOTENV_PATH overrides its location).

# Configuration File

The YAML file is looked up in order:

  - $CONFIG_PATH
  - config.yaml, config.yml
  - /etc/movie-recommender/config.yaml, /etc/movie-recommender/config.yml

Example:

	server:
	  port: 8000
	catalog:
	  path: models/catalog.gob.gz
	models:
	  champion_dir: models/champion
	  challenger_dir: models/challengers
	  reports_dir: reports
	retrain:
	  schedule: "@every 6h"
	  thresholds:
	    max_cold_start_rate: 0.2
	    min_mean_similarity: 0.5
	    max_days_without_retrain: 14

# Environment Variables

Only mapped variables are read; see envMappings in koanf.go. The most common:

Server:
  - HTTP_HOST, HTTP_PORT: Listen address (default: 0.0.0.0:8000)
  - REQUEST_TIMEOUT: Per-request timeout (default: 10s)
  - ENVIRONMENT: development, staging or production

Serving:
  - CATALOG_PATH: Catalog artifact (.gob.gz or .json)
  - RECOMMEND_POOL_SIZE, RECOMMEND_DEFAULT_K, RECOMMEND_MAX_K
  - FUZZY_CUTOFF: Minimum fuzzy title ratio (default: 0.75)
  - RANKING_ENABLED: Learned ranking stage on/off

Model lifecycle:
  - CHAMPION_DIR, CHALLENGER_DIR, REPORTS_DIR, PROMOTION_LEDGER_PATH
  - METRICS_SNAPSHOT_PATH, METRICS_FLUSH_EVERY, METRICS_WINDOW
  - RETRAIN_SCHEDULE, RETRAIN_ON_STARTUP
  - MAX_COLD_START_RATE, MIN_MEAN_SIMILARITY, MAX_DAYS_WITHOUT_RETRAIN
  - TRAINER_COMMAND, TRAINER_ARGS (comma-separated), TRAINER_TIMEOUT.
    The command must write {model} as a gob+gzip ranker artifact
    (storage.WriteArtifact of a storage.RankerState, extension .gob.gz)
    and {report} as a JSON report. A pickled sklearn model is rejected at
    promotion. See retrain.TrainerConfig.

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Security:
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT, CORS_ORIGINS
  - AUTH_MODE: jwt (default) or none, for the admin endpoints
  - JWT_SECRET: HS256 secret, at least 32 characters. Without it the admin
    endpoints reject every request in jwt mode.
  - TOKEN_TTL: Lifetime of tokens printed by cmd/admintoken (default: 24h)

Slice settings (CORS_ORIGINS, TRAINER_ARGS) accept comma-separated values.
*/
package config
