// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package api

import (
	"net/http"
	"time"

	"github.com/Rktim/movie-recommender-mlops/internal/recommend"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string          `json:"status"`
	Uptime        float64         `json:"uptime_seconds"`
	RankerLoaded  bool            `json:"ranker_loaded"`
	ModelVersion  string          `json:"model_version,omitempty"`
	BreakerState  string          `json:"breaker_state,omitempty"`
	EngineStats   recommend.Stats `json:"engine"`
	LastCycle     string          `json:"last_cycle_outcome,omitempty"`
	LastCycleTime *time.Time      `json:"last_cycle_at,omitempty"`
}

// Health handles GET /health. The service is healthy whenever it can serve
// retrieval, so a missing scoring model is reported but not fatal.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "ok",
		Uptime:      time.Since(h.startTime).Seconds(),
		EngineStats: h.deps.Engine.Stats(),
	}
	if h.deps.Ranker != nil {
		if info, ok := h.deps.Ranker.Info(); ok {
			resp.RankerLoaded = true
			resp.ModelVersion = info.Version
			resp.BreakerState = info.Breaker
		}
	}
	if h.deps.Lifecycle != nil {
		if last, ok := h.deps.Lifecycle.Last(); ok {
			resp.LastCycle = string(last.Outcome)
			at := last.StartedAt
			resp.LastCycleTime = &at
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}
