// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

// Package main is the entry point for the Ridecast server.
//
// The server answers trip duration predictions over HTTP and runs the
// training and staging flows on their schedules, all under one suture
// supervisor tree.
//
// # Startup
//
//  1. Configuration: koanf layers (defaults, config.yaml, .env, environment)
//  2. Logging: zerolog from the logging section
//  3. Tracking client: experiment tracker with rate limit and circuit breaker
//  4. Event bus: Watermill over Go channels, or NATS with -tags nats
//  5. Serving (SERVING_ENABLED): load the model named by RUN_ID and
//     EXPERIMENT_ID (or MODEL_SOURCE), open the prediction cache
//  6. Flows: DuckDB-backed ingestion feeding the training flow; staging flow
//  7. Supervisor tree: HTTP server, scheduled flows, event router
//
// # Example
//
//	export MLFLOW_TRACKING_URI=http://127.0.0.1:5000
//	export RUN_ID=4d1c0b2a9e7f4d6c8a1b3c5d7e9f0a2b
//	export EXPERIMENT_ID=1
//	./ridecast
//
//	curl -s -X POST localhost:9696/predict -d '{
//	  "start_station_id": 31208, "end_station_id": 31201,
//	  "rideable_type": "electric_bike",
//	  "start_lat": 38.9101, "start_lng": -77.0444,
//	  "end_lat": 38.9066, "end_lng": -77.0323}'
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The HTTP server drains for
// SHUTDOWN_TIMEOUT; a flow in progress observes the cancellation and marks
// its tracked run FAILED.
package main
