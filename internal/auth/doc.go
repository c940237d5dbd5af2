// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

/*
Package auth guards the admin endpoints with HS256 bearer tokens.

The admin endpoints change the serving model or start training:

	POST /api/v1/models/promote
	POST /api/v1/models/rollback
	POST /api/v1/lifecycle/run
	POST /api/v1/metrics/flush

Components:

  - JWTManager: signs and validates tokens (golang-jwt/jwt v5)
  - JWTAuthenticator: extracts a bearer token from a request
  - Middleware: rejects requests without a valid token carrying the
    required role, and stores the claims in the request context

Usage:

	manager, err := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	if err != nil {
	    return err
	}
	mw := auth.NewMiddleware(auth.NewJWTAuthenticator(manager), auth.RoleAdmin, logger)
	r.With(mw.Require).Post("/models/promote", h.PromoteModel)

Tokens are issued out of band with cmd/admintoken.
*/
package auth
