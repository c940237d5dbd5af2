// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin may promote, roll back, flush and run cycles.
const RoleAdmin = "admin"

// Issuer is the iss claim of every token this service signs.
const Issuer = "movie-recommender"

// minSecretLength matches config.MinJWTSecretLength.
const minSecretLength = 32

var (
	// ErrEmptySecret is returned by NewJWTManager for an empty secret.
	ErrEmptySecret = errors.New("JWT secret is required but was empty")

	// ErrWeakSecret is returned by NewJWTManager for a secret shorter than
	// 32 bytes.
	ErrWeakSecret = errors.New("JWT secret must be at least 32 characters")
)

// Claims are the JWT claims of an admin token. The subject names the
// operator and is logged with every admin action.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager handles token creation and validation.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
	now     func() time.Time
}

// NewJWTManager creates a token manager.
//
// The secret is kept as []byte and used with HMAC-SHA256. A non-positive
// timeout means 24h.
//
// Example:
//
//	manager, err := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
//	if err != nil {
//	    return fmt.Errorf("admin auth: %w", err)
//	}
func NewJWTManager(secret string, timeout time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if len(secret) < minSecretLength {
		return nil, ErrWeakSecret
	}
	if timeout <= 0 {
		timeout = 24 * time.Hour
	}
	return &JWTManager{secret: []byte(secret), timeout: timeout, now: time.Now}, nil
}

// GenerateToken signs a token for subject with role, valid for the manager's
// timeout.
//
// Token claims:
//   - sub: subject
//   - role: role
//   - iss: Issuer
//   - iat, nbf: now
//   - exp: now + timeout
func (m *JWTManager) GenerateToken(subject, role string) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	now := m.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies the signature, algorithm, issuer and time claims
// of tokenString and returns its claims.
//
// Only HS256 is accepted, which rules out "none" and RS256 confusion.
// Expired tokens fail with an error matching jwt.ErrTokenExpired.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
