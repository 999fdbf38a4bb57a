// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tomtom215/ridecast/internal/database"
	"github.com/tomtom215/ridecast/internal/logging"
	"github.com/tomtom215/ridecast/internal/metrics"
	"github.com/tomtom215/ridecast/internal/trip"
)

// Store is the columnar storage used for conversion and reading.
// *database.DB implements it.
type Store interface {
	ConvertCSVToParquet(ctx context.Context, csvPath, parquetPath string) (int64, error)
	ReadTrips(ctx context.Context, parquetPath string) ([]trip.Record, error)
}

// Fetcher makes an archive available locally.
type Fetcher interface {
	Fetch(ctx context.Context, file string) (string, error)
}

// Processor runs the full ingestion pipeline for archive names.
type Processor struct {
	fetcher Fetcher
	store   Store
}

// NewProcessor creates a processor.
func NewProcessor(fetcher Fetcher, store Store) *Processor {
	return &Processor{fetcher: fetcher, store: store}
}

// Data holds the prepared training and validation sets.
type Data struct {
	Train      *trip.Dataset
	Valid      *trip.Dataset
	TrainStats trip.PrepareStats
	ValidStats trip.PrepareStats
}

// ProcessData prepares the training and validation archives in that order.
func (p *Processor) ProcessData(ctx context.Context, trainFile, validFile string) (*Data, error) {
	train, trainStats, err := p.Load(ctx, trainFile)
	if err != nil {
		return nil, fmt.Errorf("training data: %w", err)
	}
	valid, validStats, err := p.Load(ctx, validFile)
	if err != nil {
		return nil, fmt.Errorf("validation data: %w", err)
	}

	logging.Ctx(ctx).Info().
		Int("train_rows", train.Len()).
		Int("valid_rows", valid.Len()).
		Int("feature_columns", len(trip.FeatureColumns)).
		Msg("Train and validation datasets prepared")

	return &Data{Train: train, Valid: valid, TrainStats: trainStats, ValidStats: validStats}, nil
}

// Load downloads, converts, reads and prepares a single archive.
func (p *Processor) Load(ctx context.Context, file string) (*trip.Dataset, trip.PrepareStats, error) {
	archivePath, err := p.fetcher.Fetch(ctx, file)
	if err != nil {
		return nil, trip.PrepareStats{}, err
	}

	parquetPath, err := p.toParquet(ctx, archivePath)
	if err != nil {
		return nil, trip.PrepareStats{}, err
	}

	records, err := p.store.ReadTrips(ctx, parquetPath)
	if err != nil {
		return nil, trip.PrepareStats{}, err
	}

	ds, stats, err := trip.Prepare(records)
	if err != nil {
		return nil, stats, fmt.Errorf("prepare %s: %w", file, err)
	}
	metrics.RecordPreparation(stats.Kept, stats.DroppedDuration)

	logging.Ctx(ctx).Info().
		Str("file", file).
		Int("input", stats.Input).
		Int("kept", stats.Kept).
		Int("dropped_duration", stats.DroppedDuration).
		Msg("Prepared model features")
	return ds, stats, nil
}

// toParquet extracts the archive's CSV next to it, converts it to
// <archive>.parquet and removes the extracted CSV.
func (p *Processor) toParquet(ctx context.Context, archivePath string) (string, error) {
	csvPath, err := ExtractFirstCSV(archivePath, filepath.Dir(archivePath))
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(csvPath); err != nil {
			logging.Warn().Err(err).Str("path", csvPath).Msg("Failed to remove extracted CSV")
		}
	}()

	parquetPath := database.ParquetPath(archivePath)
	start := time.Now()
	if _, err := p.store.ConvertCSVToParquet(ctx, csvPath, parquetPath); err != nil {
		return "", err
	}
	metrics.ConversionDuration.Observe(time.Since(start).Seconds())
	return parquetPath, nil
}
