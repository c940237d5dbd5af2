// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package recommend

import (
	"context"
)

// Ranking feature names. A trained scoring model declares which of these it
// consumes; the engine always supplies all of them.
const (
	FeaturePopularity  = "popularity"
	FeatureVoteAverage = "vote_average"
	FeatureVoteCount   = "vote_count"
)

// RankFeatures is the column order of every FeatureTable built by the engine.
var RankFeatures = []string{FeaturePopularity, FeatureVoteAverage, FeatureVoteCount}

// CatalogItem is one recommendable movie. ID is its row in the catalog and in
// the vector space.
type CatalogItem struct {
	ID         int                `json:"id"`
	Title      string             `json:"title"`
	Attributes map[string]float64 `json:"attributes,omitempty"`
}

// Attribute returns the named attribute, or 0 when it is absent.
//
//nolint:gocritic // hugeParam: value receiver keeps CatalogItem immutable
func (c CatalogItem) Attribute(name string) float64 {
	return c.Attributes[name]
}

// Candidate is one retrieval result: a catalog item and its cosine similarity
// to the query item.
type Candidate struct {
	ID         int     `json:"id"`
	Similarity float64 `json:"similarity"`
}

// FeatureTable holds one feature row per candidate, in candidate order.
type FeatureTable struct {
	Columns []string
	Rows    [][]float64
}

// Column returns the index of name in Columns, or -1.
func (t FeatureTable) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// RankStatus describes what the ranking stage did for one request.
type RankStatus string

const (
	// RankApplied means the scoring model re-ordered the candidates.
	RankApplied RankStatus = "applied"

	// RankSkipped means no scoring model is loaded.
	RankSkipped RankStatus = "skipped"

	// RankDegraded means the model was loaded but scoring failed.
	RankDegraded RankStatus = "degraded"
)

// RankOutcome is the result of one ranking attempt. Order is only set when
// Status is RankApplied; it holds candidate positions, best first.
type RankOutcome struct {
	Status       RankStatus
	Order        []int
	Reason       string
	ModelVersion string
}

// Applied returns a successful outcome.
func Applied(order []int, version string) RankOutcome {
	return RankOutcome{Status: RankApplied, Order: order, ModelVersion: version}
}

// Skipped returns the outcome for an absent model.
func Skipped() RankOutcome {
	return RankOutcome{Status: RankSkipped, Reason: "no scoring model loaded"}
}

// Degraded returns a failed outcome carrying reason.
func Degraded(reason, version string) RankOutcome {
	return RankOutcome{Status: RankDegraded, Reason: reason, ModelVersion: version}
}

// ScoredItem is one recommended movie as returned to callers.
type ScoredItem struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}

// Result is the response to one recommendation request.
type Result struct {
	Query string `json:"query"`

	// ResolvedTitle is the catalog title the query resolved to.
	ResolvedTitle string `json:"resolved_title"`

	Titles []string     `json:"recommendations"`
	Items  []ScoredItem `json:"items"`

	// Similarities are the retrieval-stage similarities of the first k
	// retrieval positions. They are a recall-quality signal and do not
	// follow the re-ranked order.
	Similarities []float64 `json:"similarities"`

	Ranking      RankStatus `json:"ranking"`
	RankReason   string     `json:"rank_reason,omitempty"`
	ModelVersion string     `json:"model_version,omitempty"`
	LatencyMS    int64      `json:"latency_ms"`
	RequestID    string     `json:"request_id,omitempty"`
}

// Resolver maps free-text queries to catalog item IDs.
type Resolver interface {
	Resolve(query string) (int, error)
}

// Catalog exposes catalog items by ID.
type Catalog interface {
	Item(id int) (CatalogItem, bool)
	Len() int
}

// NeighborIndex retrieves the nearest catalog items to a given item.
type NeighborIndex interface {
	Neighbors(id, poolSize int) ([]Candidate, error)
}

// Ranker re-orders candidates with the current scoring model.
type Ranker interface {
	Available() bool
	Rank(ctx context.Context, table FeatureTable) RankOutcome
}

// Recorder receives telemetry for every recommendation request.
type Recorder interface {
	Record(coldStart bool, similarities []float64)
}
