// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoCredentials means the request carried no bearer token.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials means the token failed validation.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials means the token is past its exp claim.
	ErrExpiredCredentials = errors.New("credentials expired")
)

// Authenticator turns a request into claims.
type Authenticator interface {
	Authenticate(r *http.Request) (*Claims, error)
}

// JWTAuthenticator authenticates requests by their Authorization header.
type JWTAuthenticator struct {
	manager *JWTManager
}

// NewJWTAuthenticator creates a bearer-token authenticator.
func NewJWTAuthenticator(manager *JWTManager) *JWTAuthenticator {
	return &JWTAuthenticator{manager: manager}
}

// Authenticate validates the bearer token of r.
func (a *JWTAuthenticator) Authenticate(r *http.Request) (*Claims, error) {
	tokenStr := bearerToken(r)
	if tokenStr == "" {
		return nil, ErrNoCredentials
	}

	claims, err := a.manager.ValidateToken(tokenStr)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredCredentials
		}
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
