// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

// Package main is the entry point of the movie recommender server.
//
// The server answers "movies like X" queries with a two-stage pipeline:
// content-based retrieval over precomputed movie vectors followed by an
// optional learned re-ranking model. Alongside serving it runs the model
// lifecycle: serving metrics are aggregated and persisted, a scheduled cycle
// decides whether to retrain, trains a challenger with an external command
// and promotes it over the champion when it scores better.
//
// # Startup Order
//
//  1. Configuration: koanf layers (defaults, config.yaml, environment)
//  2. Catalog: titles, attributes and vectors from the catalog artifact
//  3. Scoring model: champion loaded into the ranking handle if present
//  4. Metrics: snapshot store and serving window aggregator
//  5. Model registry: promotion manager with its badger ledger
//  6. Lifecycle: retrain trigger, trainer and orchestrator
//  7. Supervisor tree: HTTP server, window ticker, champion watcher and
//     lifecycle scheduler
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The HTTP server drains
// in-flight requests, the aggregator writes a final snapshot and the ledger
// is closed.
//
// # Example Usage
//
//	export CATALOG_PATH=models/catalog.gob.gz
//	export TRAINER_COMMAND=python
//	export TRAINER_ARGS="train.py,--model-out,{model},--report-out,{report}"
//	./movie-recommender
//
//	curl 'localhost:8000/recommend?movie=Heat&k=5'
//
// Admin endpoints take a bearer token from cmd/admintoken:
//
//	export JWT_SECRET=$(openssl rand -hex 32)
//	TOKEN=$(./admintoken -subject ops@example.com)
//	curl -X POST -H "Authorization: Bearer $TOKEN" localhost:8000/api/v1/models/rollback
//
// @title Movie Recommender API
// @version 1.0
// @description Hybrid movie recommendations with a champion/challenger model lifecycle.
// @description
// @description ## Authentication
// @description
// @description Read endpoints are public. Promote, rollback, lifecycle run and metrics flush
// @description require an admin JWT in the `Authorization: Bearer` header.
//
// @contact.name GitHub Repository
// @contact.url https://github.com/Rktim/movie-recommender-mlops/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8000
// @BasePath /
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Admin JWT issued by cmd/admintoken. Send as: Bearer <token>
package main
