// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package main

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/ridecast/internal/config"
)

func TestParseTrain(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	p, err := parseTrain(cfg, nil)
	if err != nil {
		t.Fatalf("parseTrain() = %v", err)
	}
	if p.TrainFile != cfg.Training.TrainFile || p.ValidFile != cfg.Training.ValidFile {
		t.Errorf("defaults not applied: %+v", p)
	}
	if !p.ExpectedStart.IsZero() {
		t.Errorf("ExpectedStart = %v, want zero", p.ExpectedStart)
	}

	p, err = parseTrain(cfg, []string{
		"--train-file", "202301-capitalbikeshare-tripdata.zip",
		"--valid-file", "202302-capitalbikeshare-tripdata.zip",
		"--date", "2023-03-01",
	})
	if err != nil {
		t.Fatalf("parseTrain() = %v", err)
	}
	if p.TrainFile != "202301-capitalbikeshare-tripdata.zip" || p.ValidFile != "202302-capitalbikeshare-tripdata.zip" {
		t.Errorf("flags not applied: %+v", p)
	}
	if want := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC); !p.ExpectedStart.Equal(want) {
		t.Errorf("ExpectedStart = %v, want %v", p.ExpectedStart, want)
	}

	if _, err := parseTrain(cfg, []string{"--date", "March"}); err == nil {
		t.Error("expected error for malformed date")
	}
	if _, err := parseTrain(cfg, []string{"--bogus"}); !errors.Is(err, errUsage) {
		t.Errorf("unknown flag error = %v, want errUsage", err)
	}
}

func TestParseStage(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	p, err := parseStage(cfg, []string{
		"--tracking-uri", "http://mlflow.internal:5000",
		"--experiment-name", "citibikes-experiment-2022-06-01",
	})
	if err != nil {
		t.Fatalf("parseStage() = %v", err)
	}
	if cfg.Tracking.URI != "http://mlflow.internal:5000" {
		t.Errorf("Tracking.URI = %q", cfg.Tracking.URI)
	}
	if p.ExperimentName != "citibikes-experiment-2022-06-01" {
		t.Errorf("ExperimentName = %q", p.ExperimentName)
	}

	cfg = config.Default()
	p, err = parseStage(cfg, []string{"--date", "2022-06-01"})
	if err != nil {
		t.Fatalf("parseStage() = %v", err)
	}
	if cfg.Tracking.URI != config.Default().Tracking.URI {
		t.Errorf("tracking URI changed without flag: %q", cfg.Tracking.URI)
	}
	if p.RunDate.Format(time.DateOnly) != "2022-06-01" {
		t.Errorf("RunDate = %v", p.RunDate)
	}
}
