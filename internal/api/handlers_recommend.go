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

	"github.com/Rktim/movie-recommender-mlops/internal/metrics"
	"github.com/Rktim/movie-recommender-mlops/internal/middleware"
	"github.com/Rktim/movie-recommender-mlops/internal/models"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend"
)

// Recommendations handles GET /api/v1/recommendations?q=<title>&k=<n>.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	k, apiErr := getIntParam(r, "k")
	if apiErr != nil {
		metrics.RecordRecommendFailure("invalid")
		h.respondValidation(w, r, apiErr)
		return
	}
	req := models.RecommendQuery{Query: r.URL.Query().Get("q"), K: k}
	if apiErr := validateRequest(&req); apiErr != nil {
		metrics.RecordRecommendFailure("invalid")
		h.respondValidation(w, r, apiErr)
		return
	}

	result, err := h.recommend(r.Context(), req.Query, req.K)
	if err != nil {
		status, code, msg := recommendErrorStatus(err)
		h.respondError(w, r, status, code, msg, err)
		return
	}
	result.RequestID = middleware.GetRequestID(r.Context())
	respondSuccess(w, r, result, start)
}

// LegacyRecommend handles GET /recommend?movie=<title>&k=<n>. Its body is
// {"movie": ..., "recommendations": [...]} without the API envelope, and an
// unknown title is {"detail": "Movie not found"} with 404.
func (h *Handler) LegacyRecommend(w http.ResponseWriter, r *http.Request) {
	k, apiErr := getIntParam(r, "k")
	if apiErr != nil {
		metrics.RecordRecommendFailure("invalid")
		writeJSON(w, r, http.StatusUnprocessableEntity, models.DetailResponse{Detail: apiErr.Message})
		return
	}
	req := models.LegacyRecommendQuery{Movie: r.URL.Query().Get("movie"), K: k}
	if apiErr := validateRequest(&req); apiErr != nil {
		metrics.RecordRecommendFailure("invalid")
		writeJSON(w, r, http.StatusUnprocessableEntity, models.DetailResponse{Detail: apiErr.Message})
		return
	}

	result, err := h.recommend(r.Context(), req.Movie, req.K)
	if err != nil {
		status, _, msg := recommendErrorStatus(err)
		if status >= http.StatusInternalServerError {
			h.respondError(w, r, status, models.CodeInternal, msg, err)
			return
		}
		writeJSON(w, r, status, models.DetailResponse{Detail: msg})
		return
	}
	writeJSON(w, r, http.StatusOK, models.LegacyRecommendResponse{
		Movie:           req.Movie,
		Recommendations: result.Titles,
	})
}

// recommend runs the engine under the request timeout and records metrics.
func (h *Handler) recommend(ctx context.Context, query string, k int) (*recommend.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	result, err := h.deps.Engine.Recommend(ctx, query, k)
	if err != nil {
		metrics.RecordRecommendFailure(failureOutcome(err))
		return nil, err
	}
	metrics.RecordRecommendation(string(result.Ranking), result.Similarities, time.Since(start))
	return result, nil
}

func failureOutcome(err error) string {
	switch {
	case errors.Is(err, recommend.ErrNotFound):
		return "cold_start"
	case errors.Is(err, recommend.ErrInvalidK):
		return "invalid"
	default:
		return "error"
	}
}

func recommendErrorStatus(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, recommend.ErrNotFound):
		return http.StatusNotFound, models.CodeMovieNotFound, "Movie not found"
	case errors.Is(err, recommend.ErrInvalidK):
		return http.StatusBadRequest, models.CodeValidation, "k must not be negative"
	case errors.Is(err, recommend.ErrNotReady):
		return http.StatusServiceUnavailable, models.CodeNotReady, "Recommendation engine not ready"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, models.CodeTimeout, "Recommendation timed out"
	default:
		return http.StatusInternalServerError, models.CodeInternal, "Failed to compute recommendations"
	}
}
