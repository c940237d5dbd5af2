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
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/promotion"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/ranking"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/storage"
)

// defaultHistoryLimit applies when ?limit is absent or 0.
const defaultHistoryLimit = 50

// ModelsStatusResponse is the body of GET /api/v1/models/status.
type ModelsStatusResponse struct {
	*promotion.Status
	Loaded *ranking.Info `json:"loaded"`
}

// ModelsStatus handles GET /api/v1/models/status.
func (h *Handler) ModelsStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.deps.Models == nil {
		h.respondError(w, r, http.StatusServiceUnavailable, models.CodeNotReady, "Model registry not configured", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	st, err := h.deps.Models.Status(ctx)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, models.CodeInternal, "Failed to read model registry", err)
		return
	}
	resp := ModelsStatusResponse{Status: st}
	if h.deps.Ranker != nil {
		if info, ok := h.deps.Ranker.Info(); ok {
			resp.Loaded = &info
		}
	}
	respondSuccess(w, r, resp, start)
}

// ModelsHistory handles GET /api/v1/models/history?limit=<n>.
func (h *Handler) ModelsHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.deps.Models == nil {
		h.respondError(w, r, http.StatusServiceUnavailable, models.CodeNotReady, "Model registry not configured", nil)
		return
	}

	limit, apiErr := getIntParam(r, "limit")
	if apiErr != nil {
		h.respondValidation(w, r, apiErr)
		return
	}
	q := models.HistoryQuery{Limit: limit}
	if apiErr := validateRequest(&q); apiErr != nil {
		h.respondValidation(w, r, apiErr)
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultHistoryLimit
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	records, err := h.deps.Models.History(ctx, q.Limit)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, models.CodeInternal, "Failed to read promotion history", err)
		return
	}
	if records == nil {
		records = []promotion.Record{}
	}
	respondSuccess(w, r, records, start)
}

// PromoteModel handles POST /api/v1/models/promote. With an empty body the
// newest challenger is evaluated.
//
// @Summary Promote a challenger
// @Description Compares a challenger report with the champion's and installs the challenger if it scores better.
// @Description Explicit paths must name a .gob.gz artifact and a .json report inside the model registry.
// @Tags Models
// @Accept json
// @Produce json
// @Param request body models.PromoteRequest false "Challenger paths; empty promotes the newest challenger"
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.PromoteResponse} "Comparison finished"
// @Failure 400 {object} models.APIResponse "Invalid request or path outside the registry"
// @Failure 401 {object} models.APIResponse "Missing or invalid token"
// @Failure 403 {object} models.APIResponse "Token lacks the admin role"
// @Failure 404 {object} models.APIResponse "No challenger available"
// @Failure 422 {object} models.APIResponse "Challenger failed validation"
// @Router /api/v1/models/promote [post]
func (h *Handler) PromoteModel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.deps.Models == nil {
		h.respondError(w, r, http.StatusServiceUnavailable, models.CodeNotReady, "Model registry not configured", nil)
		return
	}

	var req models.PromoteRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		h.respondValidation(w, r, apiErr)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		h.respondValidation(w, r, apiErr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		promoted bool
		err      error
	)
	if req.Model == "" {
		promoted, err = h.deps.Models.PromoteLatest(ctx)
	} else {
		promoted, err = h.deps.Models.Promote(ctx, req.Model, req.Report)
	}
	if err != nil {
		status, code, msg := promoteErrorStatus(err)
		h.respondError(w, r, status, code, msg, err)
		return
	}
	respondSuccess(w, r, models.PromoteResponse{Promoted: promoted}, start)
}

// RollbackModel handles POST /api/v1/models/rollback.
//
// @Summary Roll back the champion
// @Description Reinstates the champion replaced by the last promotion
// @Tags Models
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse "Rolled back"
// @Failure 401 {object} models.APIResponse "Missing or invalid token"
// @Failure 403 {object} models.APIResponse "Token lacks the admin role"
// @Failure 409 {object} models.APIResponse "No rollback model available"
// @Router /api/v1/models/rollback [post]
func (h *Handler) RollbackModel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.deps.Models == nil {
		h.respondError(w, r, http.StatusServiceUnavailable, models.CodeNotReady, "Model registry not configured", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.deps.Models.Rollback(ctx); err != nil {
		if errors.Is(err, promotion.ErrNoRollback) {
			h.respondError(w, r, http.StatusConflict, models.CodeNoRollback, "No rollback model available", err)
			return
		}
		h.respondError(w, r, http.StatusInternalServerError, models.CodeInternal, "Rollback failed", err)
		return
	}
	respondSuccess(w, r, map[string]bool{"rolled_back": true}, start)
}

func promoteErrorStatus(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, storage.ErrOutsideRegistry):
		return http.StatusBadRequest, models.CodeValidation, "Challenger paths must be inside the model registry"
	case errors.Is(err, promotion.ErrNoChallenger):
		return http.StatusNotFound, models.CodeNoChallenger, "No challenger available"
	case errors.Is(err, promotion.ErrInvalidChallenger),
		errors.Is(err, promotion.ErrMissingChampionReport),
		errors.Is(err, storage.ErrNoUsableMetric):
		return http.StatusUnprocessableEntity, models.CodeValidation, err.Error()
	default:
		return http.StatusInternalServerError, models.CodeInternal, "Promotion failed"
	}
}
