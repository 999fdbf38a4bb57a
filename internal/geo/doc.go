// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

// Package geo provides the geographic primitives used by feature preparation
// and the prediction cache.
//
// Distances are great-circle distances computed on the S2 sphere and reported
// in statute miles, using the mean Earth radius (6371.0088 km). Inputs are
// degrees. Invalid inputs (NaN) are not rejected here: they propagate as NaN so
// callers decide how to treat them. Use ValidCoordinate to check a point first.
//
// Cell encodes a point as a geohash string. Cells are used to derive compact,
// stable cache keys for nearby trips.
package geo
