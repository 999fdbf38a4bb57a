// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package serving

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/ridecast/internal/logging"
	"github.com/tomtom215/ridecast/internal/metrics"
	"github.com/tomtom215/ridecast/internal/trip"
)

// Prediction is the answer to one ride.
type Prediction struct {
	Duration     float64 `json:"duration"`
	ModelVersion string  `json:"model_version"`
}

// Predictor answers predictions with one injected model.
type Predictor struct {
	model     *Model
	cache     PredictionCache
	precision uint
}

// NewPredictor creates a predictor. cache may be nil.
func NewPredictor(model *Model, cache PredictionCache, precision uint) (*Predictor, error) {
	if model == nil || model.Pipeline == nil {
		return nil, errors.New("predictor requires a loaded model")
	}
	metrics.SetServedModel(model.Version, model.Algorithm, model.LoadedAt)
	return &Predictor{model: model, cache: cache, precision: precision}, nil
}

// Model returns the served model.
func (p *Predictor) Model() *Model {
	return p.model
}

// Predict validates ride, prepares its features and returns the predicted
// duration in minutes. Validation errors are returned unwrapped.
func (p *Predictor) Predict(ctx context.Context, ride *trip.Ride) (*Prediction, error) {
	start := time.Now()

	features, err := trip.PrepareRide(ride)
	if err != nil {
		metrics.RecordPrediction("invalid", 0, 0)
		return nil, err
	}

	var key string
	if p.cache != nil {
		key = CacheKey(p.model.Version, ride, features, p.precision)
		if minutes, ok := p.lookup(ctx, key); ok {
			metrics.RecordPrediction("success", time.Since(start), minutes)
			return &Prediction{Duration: minutes, ModelVersion: p.model.Version}, nil
		}
	}

	minutes, err := p.model.Pipeline.PredictOne(features.Sample())
	if err != nil {
		metrics.RecordPrediction("error", 0, 0)
		return nil, fmt.Errorf("predict: %w", err)
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, minutes); err != nil {
			metrics.CacheErrors.WithLabelValues(p.cache.Name()).Inc()
			logging.Ctx(ctx).Warn().Err(err).Msg("Prediction cache write failed")
		}
	}

	metrics.RecordPrediction("success", time.Since(start), minutes)
	return &Prediction{Duration: minutes, ModelVersion: p.model.Version}, nil
}

// lookup treats cache errors as misses.
func (p *Predictor) lookup(ctx context.Context, key string) (float64, bool) {
	minutes, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheErrors.WithLabelValues(p.cache.Name()).Inc()
		logging.Ctx(ctx).Warn().Err(err).Msg("Prediction cache read failed")
		return 0, false
	}
	metrics.RecordCacheLookup(p.cache.Name(), ok)
	return minutes, ok
}
