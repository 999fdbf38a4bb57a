// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

// Package testinfra provides container-backed infrastructure for
// integration tests.
//
// Files in this package build only with the integration tag:
//
//	go test -tags integration ./internal/tracking/...
//
// # MLflow Container
//
// MLflowContainer runs a real tracking server with a SQLite backend store
// and the artifact proxy enabled, so the tracking client, the training flow
// and the staging flow can be exercised end to end:
//
//	mlflow, err := testinfra.NewMLflowContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, mlflow.Container)
//
//	client, _ := tracking.NewClient(&config.TrackingConfig{URI: mlflow.URL}, nil)
//
// Tests are skipped when Docker is not available.
package testinfra
