// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package staging

import "errors"

var (
	// ErrExperimentNotFound is returned when the named experiment does not
	// exist on the tracker.
	ErrExperimentNotFound = errors.New("experiment not found")

	// ErrNoCandidateRuns is returned when the experiment has no active runs
	// to select from.
	ErrNoCandidateRuns = errors.New("no candidate runs")
)
