// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Rktim/movie-recommender-mlops/internal/logging"
	"github.com/Rktim/movie-recommender-mlops/internal/models"
)

type contextKey string

const claimsKey contextKey = "auth_claims"

// Middleware enforces authentication and a role on a route group.
//
// A nil authenticator rejects every request with 401. The server uses that
// when jwt mode is configured without a secret, so the admin endpoints
// are never open by accident.
type Middleware struct {
	authenticator Authenticator
	role          string
	logger        zerolog.Logger
}

// NewMiddleware creates the middleware. An empty role only requires a valid
// token.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMiddleware(authenticator Authenticator, role string, logger zerolog.Logger) *Middleware {
	return &Middleware{
		authenticator: authenticator,
		role:          role,
		logger:        logger.With().Str("component", "auth").Logger(),
	}
}

// Require is chi-compatible middleware.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authenticator == nil {
			m.reject(w, r, http.StatusUnauthorized, models.CodeUnauthorized,
				"Admin API disabled: no JWT secret configured", nil)
			return
		}

		claims, err := m.authenticator.Authenticate(r)
		if err != nil {
			m.reject(w, r, http.StatusUnauthorized, models.CodeUnauthorized, authErrorMessage(err), err)
			return
		}
		if m.role != "" && claims.Role != m.role {
			m.reject(w, r, http.StatusForbidden, models.CodeForbidden, "Forbidden: insufficient permissions", nil)
			return
		}

		logging.Ctx(r.Context(), m.logger).Info().
			Str("subject", claims.Subject).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("admin request authorized")
		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoCredentials):
		return "Unauthorized: authentication required"
	case errors.Is(err, ErrExpiredCredentials):
		return "Unauthorized: credentials expired"
	default:
		return "Unauthorized: invalid credentials"
	}
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	logging.Ctx(r.Context(), m.logger).Warn().
		Err(err).
		Int("status", status).
		Str("path", r.URL.Path).
		Msg("admin request rejected")

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="movie-recommender"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // the client may have gone away
	_ = json.NewEncoder(w).Encode(&models.APIResponse{
		Status: models.StatusError,
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: &models.APIError{Code: code, Message: message},
	})
}

// ContextWithClaims stores claims in ctx.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims of an authorized request, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}
