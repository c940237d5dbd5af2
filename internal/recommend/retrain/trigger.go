// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

// Package retrain decides when the scoring model should be retrained and
// runs the external training job that produces a challenger.
package retrain

import (
	"errors"

	"github.com/Rktim/movie-recommender-mlops/internal/recommend/monitor"
)

// Retrain reasons, reported in this order.
const (
	ReasonColdStart     = "High cold-start rate"
	ReasonLowSimilarity = "Low mean similarity"
	ReasonModelTooOld   = "Model too old"
)

// Thresholds bound the serving snapshot. Each comparison is strict.
type Thresholds struct {
	// MaxColdStartRate fires when the cold-start rate is above it.
	// Default: 0.20.
	MaxColdStartRate float64 `koanf:"max_cold_start_rate"`

	// MinMeanSimilarity fires when mean similarity is below it.
	// Default: 0.50.
	MinMeanSimilarity float64 `koanf:"min_mean_similarity"`

	// MaxDaysWithoutRetrain fires when the model is older than this.
	// Default: 14.
	MaxDaysWithoutRetrain int `koanf:"max_days_without_retrain"`
}

// DefaultThresholds returns the default retrain thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxColdStartRate:      0.20,
		MinMeanSimilarity:     0.50,
		MaxDaysWithoutRetrain: 14,
	}
}

// Validate checks the thresholds.
func (t Thresholds) Validate() error {
	if t.MaxColdStartRate < 0 || t.MaxColdStartRate > 1 {
		return errors.New("max_cold_start_rate must be within [0, 1]")
	}
	if t.MinMeanSimilarity < -1 || t.MinMeanSimilarity > 1 {
		return errors.New("min_mean_similarity must be within [-1, 1]")
	}
	if t.MaxDaysWithoutRetrain < 0 {
		return errors.New("max_days_without_retrain must not be negative")
	}
	return nil
}

// Trigger evaluates snapshots against thresholds.
type Trigger struct {
	thresholds Thresholds
}

// NewTrigger creates a trigger.
func NewTrigger(th Thresholds) *Trigger {
	return &Trigger{thresholds: th}
}

// Thresholds returns the configured thresholds.
func (t *Trigger) Thresholds() Thresholds { return t.thresholds }

// ShouldRetrain reports whether any threshold is crossed, with every firing
// reason.
//
//nolint:gocritic // hugeParam: snapshot passed by value like the store returns it
func (t *Trigger) ShouldRetrain(s monitor.Snapshot) (bool, []string) {
	var reasons []string
	if s.ColdStartRate > t.thresholds.MaxColdStartRate {
		reasons = append(reasons, ReasonColdStart)
	}
	if s.MeanSimilarity < t.thresholds.MinMeanSimilarity {
		reasons = append(reasons, ReasonLowSimilarity)
	}
	if s.LastRetrainDays > t.thresholds.MaxDaysWithoutRetrain {
		reasons = append(reasons, ReasonModelTooOld)
	}
	return len(reasons) > 0, reasons
}
