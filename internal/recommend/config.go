// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package recommend

import (
	"fmt"
)

// Config contains the serving parameters of the recommendation engine.
type Config struct {
	// Retrieval controls candidate retrieval and title resolution.
	Retrieval RetrievalConfig `json:"retrieval"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// RankingEnabled turns the learned re-ranking stage on or off.
	// Default: true.
	RankingEnabled bool `json:"ranking_enabled"`
}

// RetrievalConfig controls the similarity retrieval stage.
type RetrievalConfig struct {
	// PoolSize is the number of nearest neighbours fetched before ranking.
	// Constant across requests. Must be at least Limits.MaxK.
	// Default: 25.
	PoolSize int `json:"pool_size"`

	// FuzzyCutoff is the minimum similarity ratio for a fuzzy title match.
	// Default: 0.75.
	FuzzyCutoff float64 `json:"fuzzy_cutoff"`
}

// LimitsConfig contains result-size limits.
type LimitsConfig struct {
	// DefaultK is used when a request asks for 0 results.
	// Default: 5.
	DefaultK int `json:"default_k"`

	// MaxK caps the number of results per request.
	// Default: 20.
	MaxK int `json:"max_k"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Retrieval: RetrievalConfig{
			PoolSize:    25,
			FuzzyCutoff: 0.75,
		},
		Limits: LimitsConfig{
			DefaultK: 5,
			MaxK:     20,
		},
		RankingEnabled: true,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Retrieval.PoolSize < 1 {
		return fmt.Errorf("retrieval.pool_size must be positive, got %d", c.Retrieval.PoolSize)
	}
	if c.Retrieval.FuzzyCutoff <= 0 || c.Retrieval.FuzzyCutoff > 1 {
		return fmt.Errorf("retrieval.fuzzy_cutoff must be in (0, 1], got %f", c.Retrieval.FuzzyCutoff)
	}
	if c.Limits.DefaultK < 1 {
		return fmt.Errorf("limits.default_k must be positive, got %d", c.Limits.DefaultK)
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("limits.max_k (%d) must be >= limits.default_k (%d)", c.Limits.MaxK, c.Limits.DefaultK)
	}
	if c.Limits.MaxK > c.Retrieval.PoolSize {
		return fmt.Errorf("limits.max_k (%d) must be <= retrieval.pool_size (%d)", c.Limits.MaxK, c.Retrieval.PoolSize)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
