// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package ml

import "errors"

var (
	// ErrNotFitted is returned by Transform and Predict before Fit.
	ErrNotFitted = errors.New("model is not fitted")

	// ErrEmptyDataset is returned when Fit receives no rows.
	ErrEmptyDataset = errors.New("empty training set")

	// ErrShapeMismatch is returned when X and y disagree in length.
	ErrShapeMismatch = errors.New("feature and target lengths differ")

	// ErrUnknownAlgorithm is returned for an unregistered regressor name.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
)
