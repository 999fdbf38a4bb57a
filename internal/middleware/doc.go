// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

// Package middleware provides HTTP middleware for the prediction API.
//
// RequestID propagates or generates X-Request-ID and attaches it, plus a
// fresh correlation ID, to the request context so that logging.Ctx picks
// them up. PrometheusMetrics records request counts, latency and in-flight
// requests, labelling by the chi route pattern rather than the raw path to
// keep label cardinality bounded.
//
// Both are plain func(http.Handler) http.Handler and are mounted with
// chi's r.Use:
//
//	r.Use(middleware.RequestID)
//	r.Use(middleware.PrometheusMetrics)
package middleware
