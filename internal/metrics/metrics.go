// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Prediction Metrics
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridecast_predictions_total",
			Help: "Total number of duration predictions",
		},
		[]string{"result"}, // "success", "invalid", "error"
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ridecast_prediction_duration_seconds",
			Help:    "Time spent preparing features and predicting a single ride",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		},
	)

	PredictedTripMinutes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ridecast_predicted_trip_minutes",
			Help:    "Distribution of predicted trip durations in minutes",
			Buckets: []float64{1, 2, 5, 10, 15, 20, 30, 45, 60},
		},
	)

	ModelInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ridecast_model_info",
			Help: "Currently served model (value is always 1)",
		},
		[]string{"run_id", "algorithm"},
	)

	ModelLoadedTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ridecast_model_loaded_timestamp_seconds",
			Help: "Unix time at which the served model was loaded",
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridecast_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"}, // "prediction_lru", "prediction_redis", "artifact"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridecast_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridecast_cache_errors_total",
			Help: "Total number of cache backend errors",
		},
		[]string{"cache"},
	)

	// Ingestion Metrics
	DownloadAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridecast_download_attempts_total",
			Help: "Archive download attempts by outcome",
		},
		[]string{"result"}, // "success", "failure", "skipped"
	)

	DownloadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ridecast_download_bytes_total",
			Help: "Total bytes of trip archives downloaded",
		},
	)

	ConversionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ridecast_parquet_conversion_duration_seconds",
			Help:    "Time spent converting an extracted CSV to Parquet",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	PreparedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridecast_prepared_rows_total",
			Help: "Trip rows seen by feature preparation",
		},
		[]string{"outcome"}, // "kept", "dropped_duration"
	)

	// Flow Metrics
	FlowRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridecast_flow_runs_total",
			Help: "Flow executions by outcome",
		},
		[]string{"flow", "status"}, // status: "success", "failure"
	)

	FlowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ridecast_flow_duration_seconds",
			Help:    "Flow execution time in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600},
		},
		[]string{"flow"},
	)

	FlowLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ridecast_flow_last_success_timestamp_seconds",
			Help: "Unix time of the last successful flow execution",
		},
		[]string{"flow"},
	)

	// Training Metrics
	ModelFitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ridecast_model_fit_duration_seconds",
			Help:    "Time spent fitting a pipeline",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"algorithm"},
	)

	ModelValidationRMSE = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ridecast_model_validation_rmse_minutes",
			Help: "Validation RMSE of the most recent training run per algorithm",
		},
		[]string{"algorithm"},
	)

	ModelValidationMAE = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ridecast_model_validation_mae_minutes",
			Help: "Validation MAE of the most recent training run per algorithm",
		},
		[]string{"algorithm"},
	)

	StagedModelVersion = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ridecast_staged_model_version",
			Help: "Version number most recently transitioned to Staging",
		},
		[]string{"model"},
	)

	// Experiment Tracker Metrics
	TrackerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridecast_tracker_requests_total",
			Help: "Requests sent to the experiment tracker",
		},
		[]string{"endpoint", "status"},
	)

	TrackerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ridecast_tracker_request_duration_seconds",
			Help:    "Experiment tracker request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current state of circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridecast_events_published_total",
			Help: "Flow events published",
		},
		[]string{"topic"},
	)

	EventsPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridecast_events_publish_errors_total",
			Help: "Flow events that failed to publish",
		},
		[]string{"topic"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridecast_events_consumed_total",
			Help: "Flow events handled by subscribers",
		},
		[]string{"topic"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPrediction records one /predict outcome.
func RecordPrediction(result string, duration time.Duration, minutes float64) {
	PredictionsTotal.WithLabelValues(result).Inc()
	if result == "success" {
		PredictionDuration.Observe(duration.Seconds())
		PredictedTripMinutes.Observe(minutes)
	}
}

// SetServedModel replaces the served-model info series.
func SetServedModel(runID, algorithm string, loadedAt time.Time) {
	ModelInfo.Reset()
	ModelInfo.WithLabelValues(runID, algorithm).Set(1)
	ModelLoadedTimestamp.Set(float64(loadedAt.Unix()))
}

// RecordCacheLookup records a hit or miss for the named cache.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
	} else {
		CacheMisses.WithLabelValues(cache).Inc()
	}
}

// RecordDownload records a download attempt outcome and the bytes received.
func RecordDownload(result string, bytes int64) {
	DownloadAttempts.WithLabelValues(result).Inc()
	if bytes > 0 {
		DownloadBytes.Add(float64(bytes))
	}
}

// RecordPreparation records feature preparation row counts.
func RecordPreparation(kept, droppedDuration int) {
	PreparedRows.WithLabelValues("kept").Add(float64(kept))
	PreparedRows.WithLabelValues("dropped_duration").Add(float64(droppedDuration))
}

// RecordFlowRun records a completed flow execution.
func RecordFlowRun(flow string, duration time.Duration, err error) {
	FlowDuration.WithLabelValues(flow).Observe(duration.Seconds())
	if err != nil {
		FlowRunsTotal.WithLabelValues(flow, "failure").Inc()
		return
	}
	FlowRunsTotal.WithLabelValues(flow, "success").Inc()
	FlowLastSuccess.WithLabelValues(flow).SetToCurrentTime()
}

// RecordModelTrained records fit time and validation error for one algorithm.
func RecordModelTrained(algorithm string, fitDuration time.Duration, rmseValid, maeValid float64) {
	ModelFitDuration.WithLabelValues(algorithm).Observe(fitDuration.Seconds())
	ModelValidationRMSE.WithLabelValues(algorithm).Set(rmseValid)
	ModelValidationMAE.WithLabelValues(algorithm).Set(maeValid)
}

// RecordTrackerRequest records one experiment tracker call.
func RecordTrackerRequest(endpoint, status string, duration time.Duration) {
	TrackerRequestsTotal.WithLabelValues(endpoint, status).Inc()
	TrackerRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordEventPublished records a publish attempt on topic.
func RecordEventPublished(topic string, err error) {
	if err != nil {
		EventsPublishErrors.WithLabelValues(topic).Inc()
		return
	}
	EventsPublished.WithLabelValues(topic).Inc()
}

// RecordModelStaged records the version most recently moved to Staging.
func RecordModelStaged(model string, version int) {
	StagedModelVersion.WithLabelValues(model).Set(float64(version))
}
