// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

/*
Package api serves the recommender over HTTP using the chi router.

Endpoints:

	GET  /recommend?movie=&k=              plain {"movie","recommendations"} contract
	GET  /api/v1/recommendations?q=&k=     enveloped result with similarities and ranking status
	GET  /api/v1/metrics/snapshot          persisted serving snapshot and live window
	POST /api/v1/metrics/flush             persist the current window now
	GET  /api/v1/models/status             champion, rollback and challenger slots
	GET  /api/v1/models/history?limit=     promotion ledger, newest first
	POST /api/v1/models/promote            promote a challenger ({"model","report"} or newest)
	POST /api/v1/models/rollback           swap champion and rollback slots
	GET  /api/v1/lifecycle/last            report of the last lifecycle cycle
	POST /api/v1/lifecycle/run             run one evaluate/retrain/promote cycle
	GET  /health                           liveness and model readiness
	GET  /metrics                          Prometheus exposition
	GET  /swagger/*                        Swagger UI and /swagger/doc.json

/api/v1 responses use models.APIResponse. Every request gets an
X-Request-ID, is rate limited per client IP and is instrumented with
Prometheus metrics.

# Admin Endpoints

The four POST endpoints change model or metrics state and run behind the
adminAuth guard passed to NewRouter, normally auth.Middleware.Require with
the admin role. Without a guard they answer 401. Explicit promote paths
must also resolve inside the model registry, otherwise 400.
*/
package api
