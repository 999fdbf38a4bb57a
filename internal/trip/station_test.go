// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package trip

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
)

func TestStationIDFromFloat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want StationID
	}{
		{31117, "31117"},
		{31117.0, "31117"},
		{31117.5, "31117.5"},
		{0, "0"},
		{math.NaN(), ""},
	}

	for _, tt := range tests {
		if got := StationIDFromFloat(tt.in); got != tt.want {
			t.Errorf("StationIDFromFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseStationID(t *testing.T) {
	t.Parallel()

	tests := map[string]StationID{
		"31117":     "31117",
		" 31117.0 ": "31117",
		"":          "",
		"NaN":       "",
		"WS-0042":   "WS-0042",
	}

	for in, want := range tests {
		if got := ParseStationID(in); got != want {
			t.Errorf("ParseStationID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStartEndID(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		start, end StationID
		want       string
	}{
		{"31117", "31602", "31117_31602"},
		{"", "31602", MissingStation + "_31602"},
		{"A", "B", "A_B"},
	} {
		got := StartEndID(tc.start, tc.end)
		if got != tc.start.String()+"_"+tc.end.String() || got != tc.want {
			t.Errorf("StartEndID(%q, %q) = %q, want %q", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestStationIDJSON(t *testing.T) {
	t.Parallel()

	var ride Ride
	body := `{"start_station_id": 31117.0, "end_station_id": "31602", "start_lat": 38.92333}`
	if err := json.Unmarshal([]byte(body), &ride); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if ride.StartStationID != "31117" || ride.EndStationID != "31602" {
		t.Errorf("ids = %q, %q", ride.StartStationID, ride.EndStationID)
	}
	if ride.StartLat == nil || *ride.StartLat != 38.92333 {
		t.Errorf("StartLat = %v", ride.StartLat)
	}
	if ride.EndLat != nil {
		t.Errorf("EndLat should be nil when omitted")
	}

	var id StationID
	if err := json.Unmarshal([]byte(`null`), &id); err != nil || !id.Missing() {
		t.Errorf("null -> %q, %v", id, err)
	}
	if err := json.Unmarshal([]byte(`true`), &id); err == nil {
		t.Error("expected error for boolean station id")
	}

	out, err := json.Marshal(StationID("31117"))
	if err != nil || string(out) != `"31117"` {
		t.Errorf("Marshal = %s, %v", out, err)
	}
}
