// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

// Command admintoken prints a JWT for the server's admin endpoints.
//
// It reads the same configuration as the server (config.yaml, .env and
// environment), so the token is signed with JWT_SECRET and expires after
// TOKEN_TTL unless -ttl overrides it.
//
//	export JWT_SECRET=$(openssl rand -hex 32)
//	TOKEN=$(admintoken -subject ops@example.com)
//	curl -X POST -H "Authorization: Bearer $TOKEN" localhost:8000/api/v1/lifecycle/run
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Rktim/movie-recommender-mlops/internal/auth"
	"github.com/Rktim/movie-recommender-mlops/internal/config"
	"github.com/Rktim/movie-recommender-mlops/internal/logging"
)

var (
	subject = flag.String("subject", "", "Identity recorded in the token and in admin request logs (required)")
	ttl     = flag.Duration("ttl", 0, "Token lifetime; 0 uses TOKEN_TTL")
)

func main() {
	flag.Parse()

	token, err := issue(*subject, *ttl)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to issue admin token")
	}
	fmt.Println(token)
}

func issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("-subject is required")
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	if cfg.Security.AuthMode != config.AuthModeJWT {
		fmt.Fprintf(os.Stderr, "warning: AUTH_MODE=%s, the server does not check tokens\n", cfg.Security.AuthMode)
	}
	if ttl <= 0 {
		ttl = cfg.Security.TokenTTL
	}
	manager, err := auth.NewJWTManager(cfg.Security.JWTSecret, ttl)
	if err != nil {
		return "", fmt.Errorf("jwt manager: %w", err)
	}
	return manager.GenerateToken(subject, auth.RoleAdmin)
}
