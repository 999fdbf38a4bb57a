// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tomtom215/ridecast/internal/logging"
)

// ParquetPath returns csvPath with its extension replaced by ".parquet".
func ParquetPath(csvPath string) string {
	return strings.TrimSuffix(csvPath, filepath.Ext(csvPath)) + ".parquet"
}

// ConvertCSVToParquet reads csvPath with DuckDB type inference and writes
// it to parquetPath, replacing any existing file. It returns the row count.
func (db *DB) ConvertCSVToParquet(ctx context.Context, csvPath, parquetPath string) (int64, error) {
	if _, err := os.Stat(csvPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrSourceNotFound, csvPath)
		}
		return 0, fmt.Errorf("stat %s: %w", csvPath, err)
	}
	if dir := filepath.Dir(parquetPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return 0, fmt.Errorf("create parquet directory: %w", err)
		}
	}

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	query := fmt.Sprintf(
		"COPY (SELECT * FROM read_csv_auto(%s, header = true)) TO %s (FORMAT PARQUET, COMPRESSION ZSTD)",
		quoteLiteral(csvPath), quoteLiteral(parquetPath))
	if _, err := db.conn.ExecContext(ctx, query); err != nil {
		return 0, fmt.Errorf("convert %s to parquet: %w", csvPath, err)
	}

	rows, err := db.CountRows(ctx, parquetPath)
	if err != nil {
		return 0, err
	}

	logging.Info().
		Str("csv", csvPath).
		Str("parquet", parquetPath).
		Int64("rows", rows).
		Dur("duration", time.Since(start)).
		Msg("Converted CSV to Parquet")
	return rows, nil
}

// CountRows returns the number of rows in a Parquet file.
func (db *DB) CountRows(ctx context.Context, parquetPath string) (int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM read_parquet(%s)", quoteLiteral(parquetPath))
	if err := db.conn.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", parquetPath, err)
	}
	return n, nil
}
