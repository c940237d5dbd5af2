// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package models

// RecommendQuery is the query string of GET /api/v1/recommendations.
// K == 0 selects the server default.
type RecommendQuery struct {
	Query string `query:"q" validate:"required,notblank,max=200"`
	K     int    `query:"k" validate:"gte=0,lte=100"`
}

// LegacyRecommendQuery is the query string of GET /recommend.
type LegacyRecommendQuery struct {
	Movie string `query:"movie" validate:"required,notblank,max=200"`
	K     int    `query:"k" validate:"gte=0,lte=100"`
}

// LegacyRecommendResponse is the body of a successful GET /recommend.
type LegacyRecommendResponse struct {
	Movie           string   `json:"movie"`
	Recommendations []string `json:"recommendations"`
}

// DetailResponse is the body of a failed GET /recommend.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// PromoteRequest is the body of POST /api/v1/models/promote. An empty body
// promotes the newest challenger.
type PromoteRequest struct {
	Model  string `json:"model" validate:"omitempty,modelfile"`
	Report string `json:"report" validate:"required_with=Model,reportfile"`
}

// PromoteResponse reports whether the challenger became champion.
type PromoteResponse struct {
	Promoted bool `json:"promoted"`
}

// HistoryQuery is the query string of GET /api/v1/models/history.
type HistoryQuery struct {
	Limit int `query:"limit" validate:"gte=0,lte=1000"`
}

// LifecycleRunRequest is the body of POST /api/v1/lifecycle/run.
type LifecycleRunRequest struct {
	Force bool `json:"force"`
}
