// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package geo

import (
	"github.com/mmcloughlin/geohash"
)

// DefaultCellPrecision is roughly a 150m x 150m cell, finer than the spacing
// between neighbouring docking stations.
const DefaultCellPrecision uint = 7

// Cell returns the geohash of p at the given precision (characters).
// A zero precision selects DefaultCellPrecision.
func Cell(p Point, precision uint) string {
	if precision == 0 {
		precision = DefaultCellPrecision
	}
	return geohash.EncodeWithPrecision(p.Lat, p.Lng, precision)
}
