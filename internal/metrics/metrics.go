// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

// Package metrics defines the Prometheus metrics of the recommender service.
//
// Metrics are package-level promauto collectors registered with the default
// registry and exposed on /metrics. Record* helpers keep label values
// consistent across call sites.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"}, // "success", "cold_start", "invalid", "error"
	)

	RecommendRanking = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_ranking_total",
			Help: "Ranking stage outcomes",
		},
		[]string{"status"}, // "applied", "skipped", "degraded"
	)

	RecommendLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_latency_seconds",
			Help:    "End-to-end recommendation latency in seconds",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	RecommendSimilarity = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_retrieval_similarity",
			Help:    "Retrieval-stage cosine similarity of returned items",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// Serving Window Metrics (mirrors the persisted snapshot)
	WindowColdStartRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "serving_window_cold_start_rate",
			Help: "Cold-start rate of the current serving window at last flush",
		},
	)

	WindowMeanSimilarity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "serving_window_mean_similarity",
			Help: "Mean retrieval similarity of the current serving window at last flush",
		},
	)

	WindowQueryCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "serving_window_query_count",
			Help: "Requests in the current serving window at last flush",
		},
	)

	DaysSinceRetrain = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_days_since_retrain",
			Help: "Whole days since the last successful training run",
		},
	)

	SnapshotFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serving_snapshot_flushes_total",
			Help: "Snapshot flushes by trigger and result",
		},
		[]string{"trigger", "result"}, // trigger: "count", "window", "manual", "shutdown"
	)

	// Lifecycle Metrics
	RetrainRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrain_runs_total",
			Help: "Training job runs by result",
		},
		[]string{"result"}, // "success", "failed", "artifact_missing"
	)

	RetrainDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retrain_duration_seconds",
			Help:    "Duration of training job runs in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	RetrainTriggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrain_triggers_total",
			Help: "Retrain decisions by firing reason",
		},
		[]string{"reason"},
	)

	Promotions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_promotions_total",
			Help: "Promotion attempts by result",
		},
		[]string{"result"}, // "promoted", "rejected", "failed", "rolled_back"
	)

	ChampionScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_champion_score",
			Help: "Evaluation score of the serving champion",
		},
	)

	RankerLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_ranker_loaded",
			Help: "1 when a scoring model is loaded, 0 otherwise",
		},
	)

	RankerReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_ranker_reloads_total",
			Help: "Scoring model reloads by result",
		},
		[]string{"result"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records one served recommendation.
func RecordRecommendation(rankStatus string, similarities []float64, duration time.Duration) {
	RecommendRequests.WithLabelValues("success").Inc()
	RecommendRanking.WithLabelValues(rankStatus).Inc()
	RecommendLatency.Observe(duration.Seconds())
	for _, s := range similarities {
		RecommendSimilarity.Observe(s)
	}
}

// RecordRecommendFailure records a request that returned no recommendations.
// outcome is "cold_start", "invalid" or "error".
func RecordRecommendFailure(outcome string) {
	RecommendRequests.WithLabelValues(outcome).Inc()
}

// RecordSnapshot mirrors a flushed serving snapshot into gauges.
func RecordSnapshot(coldStartRate, meanSimilarity float64, queryCount, daysSinceRetrain int) {
	WindowColdStartRate.Set(coldStartRate)
	WindowMeanSimilarity.Set(meanSimilarity)
	WindowQueryCount.Set(float64(queryCount))
	DaysSinceRetrain.Set(float64(daysSinceRetrain))
}

// RecordFlush records one snapshot flush.
func RecordFlush(trigger string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	SnapshotFlushes.WithLabelValues(trigger, result).Inc()
}

// RecordRetrain records one training job run.
func RecordRetrain(result string, duration time.Duration) {
	RetrainRuns.WithLabelValues(result).Inc()
	RetrainDuration.Observe(duration.Seconds())
}

// RecordRetrainReasons counts each firing retrain reason.
func RecordRetrainReasons(reasons []string) {
	for _, r := range reasons {
		RetrainTriggers.WithLabelValues(r).Inc()
	}
}

// RecordPromotion records a promotion decision.
func RecordPromotion(result string) {
	Promotions.WithLabelValues(result).Inc()
}

// SetRankerLoaded sets the loaded-model gauge.
func SetRankerLoaded(loaded bool) {
	if loaded {
		RankerLoaded.Set(1)
	} else {
		RankerLoaded.Set(0)
	}
}

// RecordBreakerTransition records a circuit breaker state change. States are
// "closed", "half-open" and "open".
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
