// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

/*
Package metrics provides Prometheus collectors for the prediction API and the
training and staging flows.

All collectors are registered on the default registry through promauto and are
exposed at /metrics by the API router:

	curl http://localhost:9696/metrics

# Available Metrics

HTTP Metrics:
  - http_requests_total: Total HTTP requests (counter)
    Labels: method, endpoint, status
  - http_request_duration_seconds: Request latency (histogram)
  - http_requests_in_flight: Active requests (gauge)

Prediction Metrics:
  - ridecast_predictions_total: Predictions by result (counter)
  - ridecast_prediction_duration_seconds: Feature preparation plus model time
  - ridecast_predicted_trip_minutes: Distribution of predicted durations
  - ridecast_model_info: Served run ID and algorithm

Flow Metrics:
  - ridecast_flow_runs_total: Flow executions (labels: flow, status)
  - ridecast_flow_duration_seconds: Flow wall time
  - ridecast_model_validation_rmse_minutes: Latest validation RMSE per algorithm
  - ridecast_download_attempts_total: Archive downloads by result

Tracker Metrics:
  - ridecast_tracker_requests_total: Calls to the experiment tracker
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open

# Helper Functions

Call sites use the Record* helpers rather than touching collectors directly:

	metrics.RecordFlowRun("training", time.Since(start), err)
	metrics.RecordTrackerRequest("runs/search", "200", elapsed)
*/
package metrics
