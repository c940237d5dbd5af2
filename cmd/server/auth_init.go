// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package main

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Rktim/movie-recommender-mlops/internal/auth"
	"github.com/Rktim/movie-recommender-mlops/internal/config"
)

// initAdminAuth builds the guard for the mutating admin endpoints.
//
// In jwt mode without a secret the guard rejects everything, so a missing
// JWT_SECRET disables the admin API rather than opening it.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func initAdminAuth(cfg *config.Config, logger zerolog.Logger) (func(http.Handler) http.Handler, error) {
	switch cfg.Security.AuthMode {
	case config.AuthModeNone:
		logger.Warn().Msg("AUTH_MODE=none: admin endpoints are unauthenticated")
		return func(next http.Handler) http.Handler { return next }, nil

	case config.AuthModeJWT:
		if cfg.Security.JWTSecret == "" {
			logger.Warn().Msg("JWT_SECRET not set: admin endpoints are disabled")
			return auth.NewMiddleware(nil, auth.RoleAdmin, logger).Require, nil
		}
		manager, err := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("jwt manager: %w", err)
		}
		return auth.NewMiddleware(auth.NewJWTAuthenticator(manager), auth.RoleAdmin, logger).Require, nil

	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Security.AuthMode)
	}
}
