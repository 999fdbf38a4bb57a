// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package trip

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCoordinates is returned when a start or end coordinate is absent or not finite.
	ErrMissingCoordinates = errors.New("missing or invalid coordinates")

	// ErrInvalidTimestamp is returned when a start or end time is absent.
	ErrInvalidTimestamp = errors.New("missing start or end timestamp")
)

// RecordError locates a preparation failure within the input.
type RecordError struct {
	Index  int
	RideID string
	Err    error
}

func (e *RecordError) Error() string {
	if e.RideID != "" {
		return fmt.Sprintf("record %d (ride %s): %v", e.Index, e.RideID, e.Err)
	}
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
