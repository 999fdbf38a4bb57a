// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package validation

import (
	"math"
	"strings"
	"testing"
)

type sampleRide struct {
	StartLat float64 `json:"start_lat" validate:"finite,latitude"`
	StartLng float64 `json:"start_lng" validate:"finite,longitude"`
	Type     string  `json:"rideable_type" validate:"omitempty,oneof=classic_bike electric_bike docked_bike"`
}

type sampleFlow struct {
	TrainFile string `json:"train_file" validate:"required,archive"`
	Limit     int    `json:"limit" validate:"min=1,max=100"`
}

func TestGetValidatorSingleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStructValid(t *testing.T) {
	t.Parallel()

	ride := sampleRide{StartLat: 38.92333, StartLng: -77.0352, Type: "classic_bike"}
	if err := ValidateStruct(&ride); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate(&ride); err != nil {
		t.Fatalf("Validate returned %v", err)
	}
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	t.Parallel()

	ride := sampleRide{StartLat: 91, StartLng: -77.0352}
	err := ValidateStruct(&ride)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(err.Errors()) != 1 {
		t.Fatalf("got %d errors, want 1", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if apiErr.Details["field"] != "start_lat" {
		t.Errorf("field = %v, want start_lat", apiErr.Details["field"])
	}
	if !strings.Contains(apiErr.Message, "latitude") {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestValidateStructFinite(t *testing.T) {
	t.Parallel()

	ride := sampleRide{StartLat: math.NaN(), StartLng: 0}
	err := ValidateStruct(&ride)
	if err == nil {
		t.Fatal("expected NaN latitude to fail")
	}
	if err.Errors()[0].Tag != "finite" {
		t.Errorf("Tag = %q, want finite", err.Errors()[0].Tag)
	}
}

func TestValidateStructMultipleErrors(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(&sampleFlow{TrainFile: "../etc/passwd", Limit: 0})
	if err == nil {
		t.Fatal("expected errors")
	}
	apiErr := err.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Fatalf("fields = %#v", apiErr.Details["fields"])
	}
	if !strings.Contains(apiErr.Message, ";") {
		t.Errorf("expected joined message, got %q", apiErr.Message)
	}
}

func TestArchiveTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ok   bool
	}{
		{"202204-capitalbikeshare-tripdata.zip", true},
		{"DATA.ZIP", true},
		{"", false},
		{"data/202204.zip", false},
		{".hidden.zip", false},
		{"202204.csv", false},
	}

	for _, tt := range tests {
		err := Validate(&sampleFlow{TrainFile: tt.name, Limit: 1})
		if (err == nil) != tt.ok {
			t.Errorf("archive %q: err = %v, want ok=%v", tt.name, err, tt.ok)
		}
	}
}

func TestValidateArchiveName(t *testing.T) {
	t.Parallel()

	if err := ValidateArchiveName("202204-capitalbikeshare-tripdata.zip"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, bad := range []string{"", "../x.zip", "data.csv", ".zip"} {
		if err := ValidateArchiveName(bad); err == nil {
			t.Errorf("ValidateArchiveName(%q) expected error", bad)
		}
	}
}
