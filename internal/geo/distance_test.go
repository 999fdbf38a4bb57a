// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package geo

import (
	"math"
	"testing"
)

func TestDistanceMiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		a, b      Point
		want, tol float64
	}{
		{
			name: "sample ride",
			a:    Point{38.92333, -77.0352},
			b:    Point{38.9308, -77.0315},
			want: 0.57, tol: 0.05,
		},
		{
			name: "same point",
			a:    Point{38.9, -77.0},
			b:    Point{38.9, -77.0},
			want: 0, tol: 1e-12,
		},
		{
			name: "one degree of latitude",
			a:    Point{0, 0},
			b:    Point{1, 0},
			want: 69.09, tol: 0.05,
		},
		{
			name: "washington to new york",
			a:    Point{38.9072, -77.0369},
			b:    Point{40.7128, -74.0060},
			want: 203.9, tol: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("Distance(%v, %v) = %f, want %f ± %f", tt.a, tt.b, got, tt.want, tt.tol)
			}
		})
	}
}

func TestDistanceSymmetricAndNonNegative(t *testing.T) {
	t.Parallel()

	points := []Point{
		{38.92333, -77.0352},
		{38.9308, -77.0315},
		{-33.8688, 151.2093},
		{51.5074, -0.1278},
		{0, 179.9},
		{0, -179.9},
		{89.9, 10},
	}

	for _, a := range points {
		for _, b := range points {
			ab := Distance(a, b)
			ba := Distance(b, a)
			if ab < 0 {
				t.Errorf("Distance(%v, %v) = %f, want >= 0", a, b, ab)
			}
			if math.Abs(ab-ba) > 1e-9 {
				t.Errorf("Distance not symmetric for %v, %v: %f vs %f", a, b, ab, ba)
			}
		}
	}
}

func TestDistanceNaNPropagates(t *testing.T) {
	t.Parallel()

	if got := DistanceMiles(math.NaN(), -77.0, 38.9, -77.0); !math.IsNaN(got) {
		t.Errorf("expected NaN, got %f", got)
	}
	if got := DistanceMiles(38.9, -77.0, 38.9, math.NaN()); !math.IsNaN(got) {
		t.Errorf("expected NaN, got %f", got)
	}
}

func TestValidCoordinate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lat, lng float64
		want     bool
	}{
		{38.92333, -77.0352, true},
		{90, 180, true},
		{-90, -180, true},
		{90.1, 0, false},
		{0, -180.5, false},
		{math.NaN(), 0, false},
		{0, math.Inf(1), false},
	}

	for _, tt := range tests {
		if got := ValidCoordinate(tt.lat, tt.lng); got != tt.want {
			t.Errorf("ValidCoordinate(%v, %v) = %v, want %v", tt.lat, tt.lng, got, tt.want)
		}
	}
}

func TestCell(t *testing.T) {
	t.Parallel()

	p := Point{38.92333, -77.0352}
	cell := Cell(p, 0)
	if len(cell) != int(DefaultCellPrecision) {
		t.Fatalf("Cell length = %d, want %d", len(cell), DefaultCellPrecision)
	}
	if Cell(p, 5) != cell[:5] {
		t.Errorf("coarser cell %q is not a prefix of %q", Cell(p, 5), cell)
	}
}
