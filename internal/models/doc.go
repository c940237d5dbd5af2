// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

// Package models defines the HTTP request and response types of the API.
//
// Request types carry `validate` tags checked by the validation package.
// Domain types (recommend.Result, promotion.Record, monitor.Snapshot) are
// returned as the Data of an APIResponse without copying.
package models
