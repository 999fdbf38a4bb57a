// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

// Package ingest turns published trip archives into prepared datasets.
//
// For each archive name (for example "202204-capitalbikeshare-tripdata.zip")
// the Processor:
//
//  1. downloads <base_url>/<name> into the data directory unless the file is
//     already there; a fetch is attempted a fixed number of times with a
//     fixed delay in between
//  2. extracts the first .csv member of the archive
//  3. converts the CSV to <name>.parquet with DuckDB
//  4. reads the Parquet file back as typed trip records
//  5. runs trip.Prepare to produce the feature table and duration target
//
// Any failure aborts processing; there is no partial recovery.
package ingest
