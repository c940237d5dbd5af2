// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package recommend

import "errors"

var (
	// ErrNotFound is returned when a query resolves to no catalog item.
	// This is the cold-start condition.
	ErrNotFound = errors.New("movie not found")

	// ErrInvalidK is returned for a negative result count.
	ErrInvalidK = errors.New("k must not be negative")

	// ErrNotReady is returned when the engine has no catalog wired.
	ErrNotReady = errors.New("recommendation engine not ready")
)
