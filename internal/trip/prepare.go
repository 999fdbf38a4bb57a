// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package trip

import (
	"fmt"
	"math"

	"github.com/tomtom215/ridecast/internal/geo"
	"github.com/tomtom215/ridecast/internal/validation"
)

// Duration bounds in minutes, inclusive.
const (
	MinDurationMinutes = 1.0
	MaxDurationMinutes = 60.0
)

// DurationMinutes returns (ended_at - started_at) in minutes.
func (r *Record) DurationMinutes() (float64, error) {
	if r.StartedAt.IsZero() || r.EndedAt.IsZero() {
		return 0, ErrInvalidTimestamp
	}
	return r.EndedAt.Sub(r.StartedAt).Seconds() / 60, nil
}

// Prepare converts raw records into the feature table and duration target.
// Rows with a duration outside [MinDurationMinutes, MaxDurationMinutes] are
// dropped. The first record with a missing timestamp or coordinate aborts
// preparation with a *RecordError.
func Prepare(records []Record) (*Dataset, PrepareStats, error) {
	stats := PrepareStats{Input: len(records)}
	ds := &Dataset{
		Features: make([]Features, 0, len(records)),
		Target:   make([]float64, 0, len(records)),
	}

	for i := range records {
		r := &records[i]

		duration, err := r.DurationMinutes()
		if err != nil {
			return nil, stats, &RecordError{Index: i, RideID: r.RideID, Err: err}
		}
		if duration < MinDurationMinutes || duration > MaxDurationMinutes {
			stats.DroppedDuration++
			continue
		}

		distance, err := tripDistance(r.StartLat, r.StartLng, r.EndLat, r.EndLng)
		if err != nil {
			return nil, stats, &RecordError{Index: i, RideID: r.RideID, Err: err}
		}

		ds.Features = append(ds.Features, Features{
			RideableType: r.RideableType,
			TripDistance: distance,
			StartEndID:   StartEndID(r.StartStationID, r.EndStationID),
		})
		ds.Target = append(ds.Target, duration)
	}

	stats.Kept = ds.Len()
	return ds, stats, nil
}

// PrepareRide validates a prediction request and derives its features.
func PrepareRide(ride *Ride) (Features, error) {
	if ride.StartLat == nil || ride.StartLng == nil || ride.EndLat == nil || ride.EndLng == nil {
		return Features{}, ErrMissingCoordinates
	}
	if err := validation.ValidateStruct(ride); err != nil {
		return Features{}, err
	}

	distance, err := tripDistance(*ride.StartLat, *ride.StartLng, *ride.EndLat, *ride.EndLng)
	if err != nil {
		return Features{}, err
	}

	return Features{
		RideableType: ride.RideableType,
		TripDistance: distance,
		StartEndID:   StartEndID(ride.StartStationID, ride.EndStationID),
	}, nil
}

func tripDistance(startLat, startLng, endLat, endLng float64) (float64, error) {
	if !geo.ValidCoordinate(startLat, startLng) {
		return 0, fmt.Errorf("start (%v, %v): %w", startLat, startLng, ErrMissingCoordinates)
	}
	if !geo.ValidCoordinate(endLat, endLng) {
		return 0, fmt.Errorf("end (%v, %v): %w", endLat, endLng, ErrMissingCoordinates)
	}
	d := geo.DistanceMiles(startLat, startLng, endLat, endLng)
	if math.IsNaN(d) {
		return 0, ErrMissingCoordinates
	}
	return d, nil
}
