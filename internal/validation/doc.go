// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

// Package validation wraps go-playground/validator v10 for boundary checks on
// typed trip records, prediction requests and flow parameters.
//
// A single validator instance is shared process-wide; it caches struct
// metadata and is safe for concurrent use. Field names in errors are taken from
// the json tag so API clients see the same names they sent:
//
//	type Ride struct {
//	    StartLat float64 `json:"start_lat" validate:"latitude"`
//	}
//
//	if err := validation.ValidateStruct(&ride); err != nil {
//	    apiErr := err.ToAPIError()
//	    // apiErr.Code == "VALIDATION_ERROR", apiErr.Details["field"] == "start_lat"
//	}
//
// Custom tags:
//
//	archive   - a bare file name ending in .zip (no path separators)
//	finite    - a float that is neither NaN nor infinite
package validation
