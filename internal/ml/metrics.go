// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package ml

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MeanAbsoluteError returns mean(|yTrue - yPred|).
func MeanAbsoluteError(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return math.NaN()
	}
	return floats.Distance(yTrue, yPred, 1) / float64(len(yTrue))
}

// RootMeanSquaredError returns sqrt(mean((yTrue - yPred)²)).
func RootMeanSquaredError(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return math.NaN()
	}
	d := floats.Distance(yTrue, yPred, 2)
	return d / math.Sqrt(float64(len(yTrue)))
}
