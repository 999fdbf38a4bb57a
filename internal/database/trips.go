// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/tomtom215/ridecast/internal/trip"
)

// tripColumns are cast so that inference differences between monthly files
// do not change the scan types.
const tripColumns = `
	CAST(ride_id AS VARCHAR),
	CAST(rideable_type AS VARCHAR),
	TRY_CAST(started_at AS TIMESTAMP),
	TRY_CAST(ended_at AS TIMESTAMP),
	CAST(start_station_name AS VARCHAR),
	CAST(start_station_id AS VARCHAR),
	CAST(end_station_name AS VARCHAR),
	CAST(end_station_id AS VARCHAR),
	TRY_CAST(start_lat AS DOUBLE),
	TRY_CAST(start_lng AS DOUBLE),
	TRY_CAST(end_lat AS DOUBLE),
	TRY_CAST(end_lng AS DOUBLE),
	CAST(member_casual AS VARCHAR)`

// ReadTrips loads every row of a trip Parquet file.
func (db *DB) ReadTrips(ctx context.Context, parquetPath string) ([]trip.Record, error) {
	if _, err := os.Stat(parquetPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, parquetPath)
		}
		return nil, fmt.Errorf("stat %s: %w", parquetPath, err)
	}

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM read_parquet(%s)", tripColumns, quoteLiteral(parquetPath))
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", parquetPath, err)
	}
	defer closeWithLog(rows, "rows")

	var records []trip.Record
	for rows.Next() {
		rec, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row %d: %w", parquetPath, len(records), err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", parquetPath, err)
	}
	return records, nil
}

func scanTrip(rows *sql.Rows) (trip.Record, error) {
	var (
		rideID, rideable, startName, startID, endName, endID, member sql.NullString
		startedAt, endedAt                                           sql.NullTime
		startLat, startLng, endLat, endLng                           sql.NullFloat64
	)
	if err := rows.Scan(
		&rideID, &rideable, &startedAt, &endedAt,
		&startName, &startID, &endName, &endID,
		&startLat, &startLng, &endLat, &endLng,
		&member,
	); err != nil {
		return trip.Record{}, err
	}

	rec := trip.Record{
		RideID:           rideID.String,
		RideableType:     rideable.String,
		StartStationName: startName.String,
		StartStationID:   trip.ParseStationID(startID.String),
		EndStationName:   endName.String,
		EndStationID:     trip.ParseStationID(endID.String),
		StartLat:         nullableFloat(startLat),
		StartLng:         nullableFloat(startLng),
		EndLat:           nullableFloat(endLat),
		EndLng:           nullableFloat(endLng),
		MemberCasual:     member.String,
	}
	if startedAt.Valid {
		rec.StartedAt = startedAt.Time
	}
	if endedAt.Valid {
		rec.EndedAt = endedAt.Time
	}
	return rec, nil
}

func nullableFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
