// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

const (
	// EarthRadiusKm is the IUGG mean Earth radius.
	EarthRadiusKm = 6371.0088

	// EarthRadiusMiles is EarthRadiusKm expressed in statute miles.
	EarthRadiusMiles = EarthRadiusKm / 1.609344
)

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// DistanceMiles returns the great-circle distance between two points in miles.
// NaN coordinates yield NaN.
func DistanceMiles(lat1, lng1, lat2, lng2 float64) float64 {
	if math.IsNaN(lat1) || math.IsNaN(lng1) || math.IsNaN(lat2) || math.IsNaN(lng2) {
		return math.NaN()
	}
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)
	return p1.Distance(p2).Radians() * EarthRadiusMiles
}

// Distance returns the great-circle distance between a and b in miles.
func Distance(a, b Point) float64 {
	return DistanceMiles(a.Lat, a.Lng, b.Lat, b.Lng)
}

// ValidCoordinate reports whether lat/lng are finite and within range.
func ValidCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
