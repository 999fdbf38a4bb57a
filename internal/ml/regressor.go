// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package ml

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Algorithm identifiers.
const (
	AlgorithmRidge            = "ridge"
	AlgorithmGradientBoosting = "gradient_boosting"
	AlgorithmRandomForest     = "random_forest"
)

// DefaultRandomState seeds every stochastic regressor unless overridden.
const DefaultRandomState uint64 = 42

// Regressor is a fitted-in-place regression model over sparse rows.
type Regressor interface {
	// Name returns the algorithm identifier.
	Name() string

	// DisplayName returns the human readable model class name.
	DisplayName() string

	// Fit trains on X and y. It checks ctx between expensive steps.
	Fit(ctx context.Context, X *Matrix, y []float64) error

	// Predict returns one prediction per row of X.
	Predict(X *Matrix) ([]float64, error)

	// Params returns the hyperparameters for experiment tracking.
	Params() map[string]string

	// IsTrained reports whether Fit or a restore has completed.
	IsTrained() bool
}

// restorer is implemented by regressors that rebuild derived state after
// their exported fields are decoded from an artifact.
type restorer interface {
	restore() error
}

// Params groups the configuration of every algorithm.
type Params struct {
	Ridge            RidgeConfig            `json:"ridge"`
	GradientBoosting GradientBoostingConfig `json:"gradient_boosting"`
	RandomForest     RandomForestConfig     `json:"random_forest"`
}

// DefaultParams returns the default configuration of every algorithm.
func DefaultParams() Params {
	return Params{
		Ridge:            DefaultRidgeConfig(),
		GradientBoosting: DefaultGradientBoostingConfig(),
		RandomForest:     DefaultRandomForestConfig(),
	}
}

// Algorithms lists the registered algorithm identifiers in training order.
func Algorithms() []string {
	return []string{AlgorithmRidge, AlgorithmGradientBoosting, AlgorithmRandomForest}
}

// NewRegressor creates an unfitted regressor by name.
func NewRegressor(name string, p Params) (Regressor, error) {
	switch name {
	case AlgorithmRidge:
		return NewRidge(p.Ridge), nil
	case AlgorithmGradientBoosting:
		return NewGradientBoosting(p.GradientBoosting), nil
	case AlgorithmRandomForest:
		return NewRandomForest(p.RandomForest), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// BaseRegressor holds the state shared by all regressors.
type BaseRegressor struct {
	name          string
	displayName   string
	trained       bool
	lastTrainedAt time.Time
	mu            sync.RWMutex
}

func newBaseRegressor(name, displayName string) BaseRegressor {
	return BaseRegressor{name: name, displayName: displayName}
}

// Name returns the algorithm identifier.
func (b *BaseRegressor) Name() string {
	return b.name
}

// DisplayName returns the model class name.
func (b *BaseRegressor) DisplayName() string {
	return b.displayName
}

// IsTrained reports whether the model can predict.
func (b *BaseRegressor) IsTrained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trained
}

// LastTrainedAt returns when Fit last completed.
func (b *BaseRegressor) LastTrainedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastTrainedAt
}

// markTrained must be called with mu held for writing.
func (b *BaseRegressor) markTrained() {
	b.trained = true
	b.lastTrainedAt = time.Now()
}

func contextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func checkShape(X *Matrix, y []float64) error {
	if X == nil || X.NumRows() == 0 {
		return ErrEmptyDataset
	}
	if X.NumRows() != len(y) {
		return fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, X.NumRows(), len(y))
	}
	return nil
}

func mean(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	var s float64
	for _, v := range y {
		s += v
	}
	return s / float64(len(y))
}
