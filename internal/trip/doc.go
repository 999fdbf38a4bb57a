// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

// Package trip defines the typed trip schema and turns raw trips into model
// features.
//
// # Schema
//
// Record is one row of a monthly trip-data export (ride id, rideable type,
// start/end timestamps, station names and ids, coordinates, member type).
// Ride is the request body accepted by the prediction API: coordinates,
// station ids and the rideable type. Both are validated before any feature is
// computed.
//
// # Feature Preparation
//
// Prepare runs the training preparation in a fixed order:
//
//  1. duration = (ended_at - started_at) in minutes
//  2. keep rows with 1 <= duration <= 60 (others are dropped silently)
//  3. drop ride id, timestamps, station names and member type
//  4. trip_distance from the coordinates (miles); coordinates are dropped
//  5. start_end_id = start_station_id + "_" + end_station_id; ids are dropped
//  6. split features from the duration target
//
// PrepareRide applies steps 4 and 5 to a single Ride; there is no duration to
// filter on or split off. Missing coordinates are an error in both paths,
// never a silent default.
//
// Station ids are rendered canonically: integral values have no fractional
// part, so 31117 and 31117.0 both become "31117".
package trip
