// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

// Package serving loads a trained pipeline and answers duration predictions.
//
// # Model Loading
//
// The model source is either configured directly (MODEL_SOURCE) or derived
// from RUN_ID and EXPERIMENT_ID as
// <artifact_root>/<experiment_id>/<run_id>/artifacts/model. Remote sources
// (s3://, gs://, wasbs://, mlflow-artifacts:/) are fetched through the
// tracking server's artifact proxy; anything else is a local path. Fetched
// bytes are kept in a Badger store so a restart does not download again.
//
// The loaded model is injected into the Predictor explicitly; nothing in
// this package reads process-wide state.
//
// # Prediction Cache
//
// Predictions are cached by model version, rideable type, the geohash cells
// of both endpoints and the station pair:
//
//	pred:<version>:<rideable>:<start cell>:<end cell>:<start_end_id>
//
// The in-process LRUCache is the default; RedisPredictionCache shares
// entries between replicas.
package serving
