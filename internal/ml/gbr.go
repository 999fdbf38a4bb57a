// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package ml

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
)

// GradientBoostingConfig configures GradientBoosting.
type GradientBoostingConfig struct {
	NEstimators  int        `json:"n_estimators"`
	LearningRate float64    `json:"learning_rate"`
	Subsample    float64    `json:"subsample"`
	RandomState  uint64     `json:"random_state"`
	Tree         TreeConfig `json:"tree"`
}

// DefaultGradientBoostingConfig returns 100 stages of depth-3 trees with
// learning rate 0.1.
func DefaultGradientBoostingConfig() GradientBoostingConfig {
	return GradientBoostingConfig{
		NEstimators:  100,
		LearningRate: 0.1,
		Subsample:    1.0,
		RandomState:  DefaultRandomState,
		Tree: TreeConfig{
			MaxDepth:        3,
			MinSamplesSplit: 2,
			MinSamplesLeaf:  1,
			MaxBins:         DefaultMaxBins,
		},
	}
}

// GradientBoosting fits trees to least-squares residuals, starting from the
// target mean.
type GradientBoosting struct {
	BaseRegressor
	Config GradientBoostingConfig `json:"config"`
	Init   float64                `json:"init"`
	Trees  []*Tree                `json:"trees"`

	// TrainLoss is the training MSE after each stage.
	TrainLoss []float64 `json:"train_loss,omitempty"`
}

// NewGradientBoosting creates an unfitted model.
func NewGradientBoosting(cfg GradientBoostingConfig) *GradientBoosting {
	def := DefaultGradientBoostingConfig()
	if cfg.NEstimators <= 0 {
		cfg.NEstimators = def.NEstimators
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.Subsample <= 0 || cfg.Subsample > 1 {
		cfg.Subsample = def.Subsample
	}
	cfg.Tree = cfg.Tree.withDefaults()
	return &GradientBoosting{
		BaseRegressor: newBaseRegressor(AlgorithmGradientBoosting, "GradientBoostingRegressor"),
		Config:        cfg,
	}
}

// Params implements Regressor.
func (g *GradientBoosting) Params() map[string]string {
	return map[string]string{
		"n_estimators":      strconv.Itoa(g.Config.NEstimators),
		"learning_rate":     strconv.FormatFloat(g.Config.LearningRate, 'g', -1, 64),
		"subsample":         strconv.FormatFloat(g.Config.Subsample, 'g', -1, 64),
		"max_depth":         strconv.Itoa(g.Config.Tree.MaxDepth),
		"min_samples_split": strconv.Itoa(g.Config.Tree.MinSamplesSplit),
		"min_samples_leaf":  strconv.Itoa(g.Config.Tree.MinSamplesLeaf),
		"max_bins":          strconv.Itoa(g.Config.Tree.MaxBins),
		"random_state":      strconv.FormatUint(g.Config.RandomState, 10),
		"loss":              "squared_error",
	}
}

// Fit implements Regressor.
func (g *GradientBoosting) Fit(ctx context.Context, X *Matrix, y []float64) error {
	if err := checkShape(X, y); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	n := X.NumRows()
	bn := newBinning(X, g.Config.Tree.MaxBins)
	builder := newTreeBuilder(ctx, g.Config.Tree, X, bn)
	rng := rand.New(rand.NewPCG(g.Config.RandomState, 0))

	base := mean(y)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = base
	}
	residual := make([]float64, n)

	trees := make([]*Tree, 0, g.Config.NEstimators)
	losses := make([]float64, 0, g.Config.NEstimators)
	for stage := 0; stage < g.Config.NEstimators; stage++ {
		if contextCancelled(ctx) {
			return ctx.Err()
		}

		for i := range residual {
			residual[i] = y[i] - pred[i]
		}

		tree, err := builder.build(subsampleIndices(rng, n, g.Config.Subsample), residual)
		if err != nil {
			return fmt.Errorf("gradient boosting stage %d: %w", stage, err)
		}
		trees = append(trees, tree)

		var loss float64
		for i, r := range X.Rows {
			pred[i] += g.Config.LearningRate * tree.predictRow(r)
			d := y[i] - pred[i]
			loss += d * d
		}
		losses = append(losses, loss/float64(n))
	}

	g.Init = base
	g.Trees = trees
	g.TrainLoss = losses
	g.markTrained()
	return nil
}

// Predict implements Regressor.
func (g *GradientBoosting) Predict(X *Matrix) ([]float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.trained {
		return nil, fmt.Errorf("gradient boosting: %w", ErrNotFitted)
	}
	return predictTrees(g.Trees, X, g.Init, g.Config.LearningRate, false), nil
}

func (g *GradientBoosting) restore() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Trees) == 0 {
		return fmt.Errorf("gradient boosting: artifact has no trees")
	}
	g.markTrained()
	return nil
}
