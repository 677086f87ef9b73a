// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package metrics registers the Prometheus metrics exported on /metrics.
//
// Instrumented areas:
//   - training runs: duration, outcome, fitted index size
//   - recommendation queries: duration and outcome
//   - source loading: records read per file
//   - HTTP API: request counts, latency, in-flight requests, rate limiting
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Training Metrics
	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookshelf_training_duration_seconds",
			Help:    "Duration of full training runs (load, filter, pivot, fit, persist)",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_training_runs_total",
			Help: "Total number of training runs by status",
		},
		[]string{"status"}, // "success", "error"
	)

	TrainingLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookshelf_training_last_success_timestamp",
			Help: "Unix timestamp of the last successful training run",
		},
	)

	IndexRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookshelf_index_rows",
			Help: "Number of rows in the last fitted neighbor index",
		},
	)

	IndexDims = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookshelf_index_dims",
			Help: "Vector length of the last fitted neighbor index",
		},
	)

	// Recommendation Metrics
	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookshelf_recommendation_duration_seconds",
			Help:    "Duration of recommendation queries including the matrix rebuild",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_recommendations_total",
			Help: "Total number of recommendation queries by outcome",
		},
		[]string{"outcome"}, // "success", "not_found", "model_error", "data_error", "error"
	)

	// Data Metrics
	SourceRecordsLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bookshelf_source_records",
			Help: "Number of records read from each source file on the last load",
		},
		[]string{"file"}, // "ratings", "books", "users"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// Outcome classification for RecordRecommendation. The sentinel errors are
// passed in by the caller to keep this package free of domain imports.
type Outcome struct {
	NotFound   error
	ModelError error
	DataError  error
}

// RecordTraining records one training run.
func RecordTraining(duration time.Duration, rows, dims int, err error) {
	TrainingDuration.Observe(duration.Seconds())
	if err != nil {
		TrainingRunsTotal.WithLabelValues("error").Inc()
		return
	}
	TrainingRunsTotal.WithLabelValues("success").Inc()
	TrainingLastSuccess.Set(float64(time.Now().Unix()))
	IndexRows.Set(float64(rows))
	IndexDims.Set(float64(dims))
}

// RecordRecommendation records one recommendation query.
//
//nolint:gocritic // Outcome is a small value type
func RecordRecommendation(duration time.Duration, err error, o Outcome) {
	RecommendationDuration.Observe(duration.Seconds())
	RecommendationsTotal.WithLabelValues(classify(err, o)).Inc()
}

func classify(err error, o Outcome) string {
	switch {
	case err == nil:
		return "success"
	case o.NotFound != nil && errors.Is(err, o.NotFound):
		return "not_found"
	case o.ModelError != nil && errors.Is(err, o.ModelError):
		return "model_error"
	case o.DataError != nil && errors.Is(err, o.DataError):
		return "data_error"
	default:
		return "error"
	}
}

// RecordSourceLoad records how many records a source file produced.
func RecordSourceLoad(file string, records int) {
	SourceRecordsLoaded.WithLabelValues(file).Set(float64(records))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit records a request rejected by the rate limiter.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}
