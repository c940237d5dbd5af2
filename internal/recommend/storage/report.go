// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/google/renameio"
)

// Report metric keys.
const (
	PrimaryMetric  = "f1_score"
	FallbackMetric = "accuracy"
)

// ErrNoUsableMetric is returned when a report has neither the primary nor
// the fallback metric.
var ErrNoUsableMetric = errors.New("report has no usable metric")

// MetricKind says which metric a report's score was taken from.
type MetricKind int

const (
	// MetricAbsent means neither metric is present.
	MetricAbsent MetricKind = iota
	// MetricPrimary means the score is the f1 score.
	MetricPrimary
	// MetricFallback means the score is the accuracy.
	MetricFallback
)

// String returns the metric key for the kind.
func (k MetricKind) String() string {
	switch k {
	case MetricPrimary:
		return PrimaryMetric
	case MetricFallback:
		return FallbackMetric
	default:
		return "absent"
	}
}

// Score is a report's comparable score.
type Score struct {
	Kind  MetricKind `json:"-"`
	Value float64    `json:"value"`
}

// Metric returns the metric key the score was read from.
func (s Score) Metric() string { return s.Kind.String() }

// Report is a training evaluation report. Metrics may be nested under
// "metrics" or sit at the top level; any other fields are kept verbatim.
type Report struct {
	raw map[string]json.RawMessage
}

// ParseReport parses a JSON evaluation report.
func ParseReport(data []byte) (*Report, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	if raw == nil {
		return nil, errors.New("parse report: not a JSON object")
	}
	return &Report{raw: raw}, nil
}

// ReadReport reads and parses the report at path.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configured report directories
	if err != nil {
		return nil, err
	}
	r, err := ParseReport(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// metrics returns the object holding the metric keys.
func (r *Report) metrics() map[string]json.RawMessage {
	if nested, ok := r.raw["metrics"]; ok {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(nested, &m); err == nil && m != nil {
			return m
		}
	}
	return r.raw
}

// Score resolves the report's score: the primary metric when present and
// numeric, else the fallback metric, else MetricAbsent.
func (r *Report) Score() Score {
	m := r.metrics()
	if v, ok := numeric(m[PrimaryMetric]); ok {
		return Score{Kind: MetricPrimary, Value: v}
	}
	if v, ok := numeric(m[FallbackMetric]); ok {
		return Score{Kind: MetricFallback, Value: v}
	}
	return Score{Kind: MetricAbsent}
}

// RequireScore is Score with MetricAbsent turned into ErrNoUsableMetric.
func (r *Report) RequireScore() (Score, error) {
	s := r.Score()
	if s.Kind == MetricAbsent {
		return s, ErrNoUsableMetric
	}
	return s, nil
}

// Fields returns the report's top-level fields decoded as generic values.
func (r *Report) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(r.raw))
	for k, v := range r.raw {
		var decoded interface{}
		if err := json.Unmarshal(v, &decoded); err == nil {
			out[k] = decoded
		}
	}
	return out
}

// Bytes returns the report re-encoded as indented JSON.
func (r *Report) Bytes() ([]byte, error) {
	return json.MarshalIndent(r.raw, "", "  ")
}

// WriteReport atomically writes r to path.
func WriteReport(path string, r *Report) error {
	data, err := r.Bytes()
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return renameio.WriteFile(path, data, 0o640)
}

func numeric(raw json.RawMessage) (float64, bool) {
	if raw == nil || string(bytes.TrimSpace(raw)) == "null" {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}
