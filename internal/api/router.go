// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/Rktim/movie-recommender-mlops/internal/auth"
	"github.com/Rktim/movie-recommender-mlops/internal/middleware"
)

// Router wires the handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	adminAuth     func(http.Handler) http.Handler
	logger        zerolog.Logger
}

// NewRouter creates a router. A nil mw uses DefaultChiMiddlewareConfig.
//
// adminAuth guards the mutating endpoints (metrics flush, promote,
// rollback, lifecycle run). A nil adminAuth rejects them all with 401.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(handler *Handler, mw *ChiMiddleware, adminAuth func(http.Handler) http.Handler, logger zerolog.Logger) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	if adminAuth == nil {
		adminAuth = auth.NewMiddleware(nil, auth.RoleAdmin, logger).Require
	}
	return &Router{handler: handler, chiMiddleware: mw, adminAuth: adminAuth, logger: logger}
}

// SetupChi builds the route tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog(router.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// ========================
	// Operational Endpoints
	// ========================
	r.Get("/health", router.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// API documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	// ========================
	// Original Contract
	// ========================
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/recommend", router.handler.LegacyRecommend)
	})

	// ========================
	// Versioned API
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/recommendations", router.handler.Recommendations)

		r.Route("/metrics", func(r chi.Router) {
			r.Get("/snapshot", router.handler.MetricsSnapshot)
			r.With(router.adminAuth).Post("/flush", router.handler.FlushMetrics)
		})
		r.Route("/models", func(r chi.Router) {
			r.Get("/status", router.handler.ModelsStatus)
			r.Get("/history", router.handler.ModelsHistory)
			r.With(router.adminAuth).Post("/promote", router.handler.PromoteModel)
			r.With(router.adminAuth).Post("/rollback", router.handler.RollbackModel)
		})
		r.Route("/lifecycle", func(r chi.Router) {
			r.Get("/last", router.handler.LastLifecycle)
			r.With(router.adminAuth).Post("/run", router.handler.RunLifecycle)
		})
	})

	return r
}
