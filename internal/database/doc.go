// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

// Package database wraps an embedded DuckDB engine used for trip data
// conversion and loading.
//
// # Overview
//
// Monthly trip archives contain a single CSV file. DuckDB reads the CSV with
// type inference and writes it back as Parquet, which is then the only format
// the training flow reads. Nothing is persisted in DuckDB tables: the engine
// runs against ":memory:" unless a database path is configured.
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	rows, err := db.ConvertCSVToParquet(ctx, "data/202204.csv", "data/202204.parquet")
//	records, err := db.ReadTrips(ctx, "data/202204.parquet")
//
// # Column Handling
//
// ReadTrips casts every column explicitly so that files where station IDs were
// inferred as integers, doubles or text all load the same way. Missing
// coordinates load as NaN, missing station IDs as the empty StationID and
// missing timestamps as the zero time.
//
// # Thread Safety
//
// DB is safe for concurrent use. DuckDB serializes writers internally.
package database
