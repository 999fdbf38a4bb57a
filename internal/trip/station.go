// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package trip

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// MissingStation is the start_end_id component used for trips without a
// station (dockless returns and pickups). It is how a missing float id prints.
const MissingStation = "nan"

// StationID is a canonical station identifier. The zero value means "missing".
type StationID string

// StationIDFromFloat formats an id read as a floating point number.
// NaN yields the missing id.
func StationIDFromFloat(f float64) StationID {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return StationID(strconv.FormatFloat(f, 'f', -1, 64))
}

// ParseStationID canonicalises a textual id. Numeric text is normalised
// ("31117.0" -> "31117"); anything else is kept trimmed.
func ParseStationID(s string) StationID {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return StationIDFromFloat(f)
	}
	return StationID(s)
}

// Missing reports whether the id is absent.
func (id StationID) Missing() bool {
	return id == ""
}

// String returns the id, or MissingStation when absent.
func (id StationID) String() string {
	if id.Missing() {
		return MissingStation
	}
	return string(id)
}

// UnmarshalJSON accepts a JSON number, string or null.
func (id *StationID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("station id: %w", err)
		}
		*id = ParseStationID(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("station id %s is neither a number nor a string", data)
	}
	*id = StationIDFromFloat(f)
	return nil
}

// MarshalJSON writes the id as a string, or null when missing.
func (id StationID) MarshalJSON() ([]byte, error) {
	if id.Missing() {
		return []byte("null"), nil
	}
	return json.Marshal(string(id))
}

// StartEndID joins two station ids into the composite pair identifier.
func StartEndID(start, end StationID) string {
	return start.String() + "_" + end.String()
}
