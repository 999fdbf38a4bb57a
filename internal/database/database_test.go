// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package database

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/ridecast/internal/config"
	"github.com/tomtom215/ridecast/internal/trip"
)

// testDBSemaphore serializes DuckDB use across parallel tests. Concurrent
// CGO calls from many in-memory databases can hang under CI pressure.
var testDBSemaphore = make(chan struct{}, 1)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	db, err := New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "1GB", Threads: 2})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

const sampleCSV = `ride_id,rideable_type,started_at,ended_at,start_station_name,start_station_id,end_station_name,end_station_id,start_lat,start_lng,end_lat,end_lng,member_casual
A1,classic_bike,2022-04-01 08:00:00,2022-04-01 08:12:30,14th & V St NW,31117,15th & W St NW,31602,38.92333,-77.0352,38.9308,-77.0315,member
A2,electric_bike,2022-04-01 09:00:00,2022-04-01 09:05:00,,,,,38.9,-77.03,38.91,-77.02,casual
A3,docked_bike,2022-04-01 10:00:00,2022-04-01 12:00:00,Union Station,31623,Union Station,31623,38.8977,-77.0063,38.8977,-77.0063,casual
`

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "202204-capitalbikeshare-tripdata.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParquetPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"data/202204-capitalbikeshare-tripdata.csv", "data/202204-capitalbikeshare-tripdata.parquet"},
		{"trips.CSV", "trips.parquet"},
		{"noext", "noext.parquet"},
	}
	for _, tt := range tests {
		if got := ParquetPath(tt.in); got != tt.want {
			t.Errorf("ParquetPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuoteLiteral(t *testing.T) {
	t.Parallel()

	if got := quoteLiteral("it's.csv"); got != "'it''s.csv'" {
		t.Errorf("quoteLiteral() = %s", got)
	}
}

func TestConvertAndReadTrips(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	csvPath := writeCSV(t)
	parquetPath := ParquetPath(csvPath)

	rows, err := db.ConvertCSVToParquet(ctx, csvPath, parquetPath)
	if err != nil {
		t.Fatalf("ConvertCSVToParquet() error = %v", err)
	}
	if rows != 3 {
		t.Errorf("rows = %d, want 3", rows)
	}
	if _, err := os.Stat(parquetPath); err != nil {
		t.Fatalf("parquet file not written: %v", err)
	}

	records, err := db.ReadTrips(ctx, parquetPath)
	if err != nil {
		t.Fatalf("ReadTrips() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	first := records[0]
	if first.RideID != "A1" || first.RideableType != "classic_bike" {
		t.Errorf("unexpected first record: %+v", first)
	}
	if first.StartStationID != "31117" || first.EndStationID != "31602" {
		t.Errorf("station IDs = %q, %q", first.StartStationID, first.EndStationID)
	}
	if got := first.EndedAt.Sub(first.StartedAt); got != 12*time.Minute+30*time.Second {
		t.Errorf("duration = %v, want 12m30s", got)
	}
	if math.Abs(first.StartLat-38.92333) > 1e-9 {
		t.Errorf("start_lat = %v", first.StartLat)
	}

	if !records[1].StartStationID.Missing() || !records[1].EndStationID.Missing() {
		t.Errorf("expected missing station IDs, got %+v", records[1])
	}

	ds, stats, err := trip.Prepare(records)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if stats.Kept != 2 || stats.DroppedDuration != 1 {
		t.Errorf("stats = %+v, want 2 kept and 1 dropped", stats)
	}
	if ds.Features[0].StartEndID != "31117_31602" {
		t.Errorf("start_end_id = %q", ds.Features[0].StartEndID)
	}
	if ds.Features[1].StartEndID != "nan_nan" {
		t.Errorf("start_end_id = %q, want nan_nan", ds.Features[1].StartEndID)
	}
}

func TestReadTripsMissingCoordinates(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	csvPath := filepath.Join(t.TempDir(), "trips.csv")
	content := `ride_id,rideable_type,started_at,ended_at,start_station_name,start_station_id,end_station_name,end_station_id,start_lat,start_lng,end_lat,end_lng,member_casual
B1,electric_bike,2022-05-01 08:00:00,2022-05-01 08:10:00,,,,,38.9,-77.03,,,member
`
	if err := os.WriteFile(csvPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	parquetPath := ParquetPath(csvPath)
	if _, err := db.ConvertCSVToParquet(ctx, csvPath, parquetPath); err != nil {
		t.Fatalf("ConvertCSVToParquet() error = %v", err)
	}
	records, err := db.ReadTrips(ctx, parquetPath)
	if err != nil {
		t.Fatalf("ReadTrips() error = %v", err)
	}
	if !math.IsNaN(records[0].EndLat) || !math.IsNaN(records[0].EndLng) {
		t.Errorf("expected NaN end coordinates, got %v, %v", records[0].EndLat, records[0].EndLng)
	}

	if _, _, err := trip.Prepare(records); !errors.Is(err, trip.ErrMissingCoordinates) {
		t.Errorf("expected ErrMissingCoordinates, got %v", err)
	}
}

func TestSourceNotFound(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	missing := filepath.Join(t.TempDir(), "missing.csv")
	if _, err := db.ConvertCSVToParquet(ctx, missing, ParquetPath(missing)); !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("ConvertCSVToParquet: expected ErrSourceNotFound, got %v", err)
	}
	if _, err := db.ReadTrips(ctx, ParquetPath(missing)); !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("ReadTrips: expected ErrSourceNotFound, got %v", err)
	}
}

func TestPing(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if db.Conn() == nil {
		t.Error("Conn() returned nil")
	}
}
