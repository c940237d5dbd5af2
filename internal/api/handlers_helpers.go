// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/Rktim/movie-recommender-mlops/internal/logging"
	"github.com/Rktim/movie-recommender-mlops/internal/middleware"
	"github.com/Rktim/movie-recommender-mlops/internal/models"
	"github.com/Rktim/movie-recommender-mlops/internal/validation"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// sanitizeLogValue escapes control characters so user input cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// writeJSON marshals v with an ETag. A GET whose If-None-Match matches gets
// 304 without a body.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	etag := `"` + generateETag(data) + `"`
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", etag)

	if status == http.StatusOK && r.Method == http.MethodGet && r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// generateETag is FNV-1a over the body.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, response *models.APIResponse) {
	response.Metadata.RequestID = middleware.GetRequestID(r.Context())
	if response.Metadata.Timestamp.IsZero() {
		response.Metadata.Timestamp = time.Now().UTC()
	}
	writeJSON(w, r, status, response)
}

func respondSuccess(w http.ResponseWriter, r *http.Request, data interface{}, start time.Time) {
	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status: models.StatusSuccess,
		Data:   data,
		Metadata: models.Metadata{
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// respondError writes an error envelope. err is logged, never returned to the
// client.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		event := logging.Ctx(r.Context(), h.logger).Warn()
		if status >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context(), h.logger).Error()
		}
		event.Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("API error")
	}
	respondJSON(w, r, status, &models.APIResponse{
		Status: models.StatusError,
		Error:  &models.APIError{Code: code, Message: message},
	})
}

func (h *Handler) respondValidation(w http.ResponseWriter, r *http.Request, apiErr *models.APIError) {
	respondJSON(w, r, http.StatusBadRequest, &models.APIResponse{
		Status: models.StatusError,
		Error:  apiErr,
	})
}

func validateRequest(v interface{}) *models.APIError {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return nil
	}
	return &models.APIError{
		Code:    models.CodeValidation,
		Message: verr.Error(),
		Details: verr.Details(),
	}
}

// getIntParam parses an optional integer query parameter. Absent means 0.
func getIntParam(r *http.Request, key string) (int, *models.APIError) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &models.APIError{
			Code:    models.CodeValidation,
			Message: key + " must be an integer",
			Details: map[string]interface{}{"field": key, "value": sanitizeLogValue(raw)},
		}
	}
	return n, nil
}

// decodeJSONBody decodes an optional JSON body into v. An empty body leaves v
// unchanged.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) *models.APIError {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &models.APIError{
			Code:    models.CodeValidation,
			Message: "invalid JSON body",
			Details: map[string]interface{}{"error": sanitizeLogValue(err.Error())},
		}
	}
	return nil
}
