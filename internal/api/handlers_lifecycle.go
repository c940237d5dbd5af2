// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Rktim/movie-recommender-mlops/internal/models"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/lifecycle"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/monitor"
)

// SnapshotResponse is the body of GET /api/v1/metrics/snapshot.
type SnapshotResponse struct {
	Snapshot monitor.Snapshot     `json:"snapshot"`
	Window   *monitor.WindowStats `json:"window,omitempty"`
}

// MetricsSnapshot handles GET /api/v1/metrics/snapshot. A corrupt snapshot
// file is reported as 500, a missing one as the defaults.
func (h *Handler) MetricsSnapshot(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.deps.Snapshots == nil {
		h.respondError(w, r, http.StatusServiceUnavailable, models.CodeNotReady, "Metrics store not configured", nil)
		return
	}

	snap, err := h.deps.Snapshots.Load()
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, models.CodeInternal, "Failed to read metrics snapshot", err)
		return
	}
	resp := SnapshotResponse{Snapshot: snap}
	if h.deps.Window != nil {
		cur := h.deps.Window.Current()
		resp.Window = &cur
	}
	respondSuccess(w, r, resp, start)
}

// FlushMetrics handles POST /api/v1/metrics/flush.
//
// @Summary Flush serving metrics
// @Description Closes the current serving window and persists the metrics snapshot
// @Tags Lifecycle
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse "Snapshot written"
// @Failure 401 {object} models.APIResponse "Missing or invalid token"
// @Failure 403 {object} models.APIResponse "Token lacks the admin role"
// @Failure 503 {object} models.APIResponse "Metrics window not configured"
// @Router /api/v1/metrics/flush [post]
func (h *Handler) FlushMetrics(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.deps.Window == nil {
		h.respondError(w, r, http.StatusServiceUnavailable, models.CodeNotReady, "Metrics aggregator not configured", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snap, err := h.deps.Window.Flush(ctx)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, models.CodeInternal, "Failed to flush metrics", err)
		return
	}
	respondSuccess(w, r, SnapshotResponse{Snapshot: snap}, start)
}

// RunLifecycle handles POST /api/v1/lifecycle/run. The cycle runs to
// completion even if the client disconnects.
//
// @Summary Run a lifecycle cycle
// @Description Evaluates the retrain trigger and, when it fires or force is set, trains and promotes a challenger
// @Tags Lifecycle
// @Accept json
// @Produce json
// @Param request body models.LifecycleRunRequest false "Set force to retrain even when the trigger does not fire"
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=lifecycle.CycleResult} "Cycle finished"
// @Failure 401 {object} models.APIResponse "Missing or invalid token"
// @Failure 403 {object} models.APIResponse "Token lacks the admin role"
// @Failure 409 {object} models.APIResponse "A cycle is already running"
// @Router /api/v1/lifecycle/run [post]
func (h *Handler) RunLifecycle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.deps.Lifecycle == nil {
		h.respondError(w, r, http.StatusServiceUnavailable, models.CodeNotReady, "Lifecycle not configured", nil)
		return
	}

	var req models.LifecycleRunRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		h.respondValidation(w, r, apiErr)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.cycleTimeout)
	defer cancel()

	result, err := h.deps.Lifecycle.RunCycle(ctx, req.Force)
	if err != nil {
		if errors.Is(err, lifecycle.ErrCycleInProgress) {
			h.respondError(w, r, http.StatusConflict, models.CodeConflict, "A lifecycle cycle is already running", nil)
			return
		}
		h.respondError(w, r, http.StatusInternalServerError, models.CodeInternal, "Lifecycle cycle failed", err)
		return
	}
	respondSuccess(w, r, result, start)
}

// LastLifecycle handles GET /api/v1/lifecycle/last.
func (h *Handler) LastLifecycle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.deps.Lifecycle == nil {
		h.respondError(w, r, http.StatusServiceUnavailable, models.CodeNotReady, "Lifecycle not configured", nil)
		return
	}
	result, ok := h.deps.Lifecycle.Last()
	if !ok {
		h.respondError(w, r, http.StatusNotFound, "NO_CYCLE", "No lifecycle cycle has run yet", nil)
		return
	}
	respondSuccess(w, r, result, start)
}
