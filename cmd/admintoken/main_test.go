// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Rktim/movie-recommender-mlops/internal/auth"
	"github.com/Rktim/movie-recommender-mlops/internal/config"
)

const testSecret = "this_is_a_very_long_secret_key_with_32_plus_characters"

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.ConfigPathEnvVar, filepath.Join(dir, "missing.yaml"))
	t.Setenv(config.DotEnvPathEnvVar, filepath.Join(dir, "missing.env"))
	t.Setenv("AUTH_MODE", config.AuthModeJWT)
	t.Setenv("TOKEN_TTL", "2h")
}

func TestIssue(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", testSecret)

	token, err := issue("ops@example.com", 0)
	if err != nil {
		t.Fatalf("issue() error = %v", err)
	}

	manager, err := auth.NewJWTManager(testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Subject != "ops@example.com" || claims.Role != auth.RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}
	if life := claims.ExpiresAt.Sub(claims.IssuedAt.Time); life != 2*time.Hour {
		t.Errorf("lifetime = %v, want TOKEN_TTL 2h", life)
	}
}

func TestIssue_Errors(t *testing.T) {
	isolate(t)

	if _, err := issue("", 0); err == nil {
		t.Error("issue() without subject: error = nil")
	}
	t.Setenv("JWT_SECRET", "")
	if _, err := issue("ops@example.com", time.Minute); err == nil {
		t.Error("issue() without secret: error = nil")
	}
}
