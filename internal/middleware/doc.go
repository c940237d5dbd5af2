// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

/*
Package middleware provides chi-compatible HTTP middleware.

  - RequestID: accepts or generates X-Request-ID and stores it in the
    logging context so handler logs carry request_id
  - PrometheusMetrics: request count, latency and in-flight gauge, labeled by
    chi route pattern to keep label cardinality bounded
  - AccessLog: one zerolog line per request

Typical stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
