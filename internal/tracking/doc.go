// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

/*
Package tracking is a client for the MLflow tracking server REST API.

It covers the subset of the API used by the training, staging and serving
components:

  - experiments: get-by-name, create (and SetExperiment, get-or-create)
  - runs: create, log-batch, update, search
  - model registry: registered-models get/create, model-versions
    create/transition-stage/update
  - artifacts: upload and download through the server's artifact proxy
    (/api/2.0/mlflow-artifacts/artifacts)

Resilience:
  - every request waits on a token bucket (golang.org/x/time/rate)
  - requests run through a sony/gobreaker circuit breaker; client errors
    such as "resource does not exist" do not count as failures
  - an open circuit is reported as ErrCircuitOpen

Error model: a non-2xx response is returned as *APIError. Not-found
conditions satisfy errors.Is(err, ErrNotFound), so callers can branch on
"does not exist yet" without matching on messages:

	rm, err := client.GetRegisteredModel(ctx, name)
	if errors.Is(err, tracking.ErrNotFound) {
		rm, err = client.CreateRegisteredModel(ctx, name, "")
	}
*/
package tracking
