// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package trip

import (
	"time"

	"github.com/tomtom215/ridecast/internal/ml"
)

// Column names of the prepared feature table, in output order.
const (
	ColumnRideableType = "rideable_type"
	ColumnTripDistance = "trip_distance"
	ColumnStartEndID   = "start_end_id"
	ColumnDuration     = "duration"
)

// FeatureColumns lists the feature columns produced by preparation.
var FeatureColumns = []string{ColumnRideableType, ColumnTripDistance, ColumnStartEndID}

// Record is one raw trip as exported by the bike-share operator.
// Missing coordinates are NaN.
type Record struct {
	RideID           string    `json:"ride_id"`
	RideableType     string    `json:"rideable_type"`
	StartedAt        time.Time `json:"started_at"`
	EndedAt          time.Time `json:"ended_at"`
	StartStationName string    `json:"start_station_name"`
	StartStationID   StationID `json:"start_station_id"`
	EndStationName   string    `json:"end_station_name"`
	EndStationID     StationID `json:"end_station_id"`
	StartLat         float64   `json:"start_lat"`
	StartLng         float64   `json:"start_lng"`
	EndLat           float64   `json:"end_lat"`
	EndLng           float64   `json:"end_lng"`
	MemberCasual     string    `json:"member_casual"`
}

// Ride is a single trip submitted for prediction. Pointers distinguish an
// omitted coordinate from a zero one.
type Ride struct {
	StartStationID StationID `json:"start_station_id" validate:"required"`
	EndStationID   StationID `json:"end_station_id" validate:"required"`
	StartLat       *float64  `json:"start_lat" validate:"required,finite,latitude"`
	StartLng       *float64  `json:"start_lng" validate:"required,finite,longitude"`
	EndLat         *float64  `json:"end_lat" validate:"required,finite,latitude"`
	EndLng         *float64  `json:"end_lng" validate:"required,finite,longitude"`
	RideableType   string    `json:"rideable_type,omitempty" validate:"max=64"`
}

// Features is one row of the prepared feature table.
type Features struct {
	RideableType string  `json:"rideable_type"`
	TripDistance float64 `json:"trip_distance"`
	StartEndID   string  `json:"start_end_id"`
}

// Sample converts the row to the keyed form consumed by the model pipeline.
// The rideable type is omitted when empty, as a missing dict key would be.
func (f Features) Sample() ml.Sample {
	s := ml.Sample{
		ColumnTripDistance: ml.Num(f.TripDistance),
		ColumnStartEndID:   ml.Cat(f.StartEndID),
	}
	if f.RideableType != "" {
		s[ColumnRideableType] = ml.Cat(f.RideableType)
	}
	return s
}

// Dataset is the prepared feature table plus its target column.
type Dataset struct {
	Features []Features
	Target   []float64 // duration in minutes, aligned with Features
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Features)
}

// Samples converts every row with Features.Sample.
func (d *Dataset) Samples() []ml.Sample {
	out := make([]ml.Sample, len(d.Features))
	for i, f := range d.Features {
		out[i] = f.Sample()
	}
	return out
}

// PrepareStats summarises one preparation pass.
type PrepareStats struct {
	Input           int
	Kept            int
	DroppedDuration int
}
