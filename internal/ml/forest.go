// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package ml

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// RandomForestConfig configures RandomForest.
type RandomForestConfig struct {
	NEstimators int        `json:"n_estimators"`
	Bootstrap   bool       `json:"bootstrap"`
	RandomState uint64     `json:"random_state"`
	Tree        TreeConfig `json:"tree"`

	// Workers bounds concurrent tree construction. Zero uses GOMAXPROCS.
	Workers int `json:"-"`
}

// DefaultRandomForestConfig returns 100 fully grown bootstrap trees.
func DefaultRandomForestConfig() RandomForestConfig {
	return RandomForestConfig{
		NEstimators: 100,
		Bootstrap:   true,
		RandomState: DefaultRandomState,
		Tree: TreeConfig{
			MaxDepth:        0,
			MinSamplesSplit: 2,
			MinSamplesLeaf:  1,
			MaxBins:         DefaultMaxBins,
		},
	}
}

// RandomForest averages trees grown on bootstrap samples.
type RandomForest struct {
	BaseRegressor
	Config RandomForestConfig `json:"config"`
	Trees  []*Tree            `json:"trees"`
}

// NewRandomForest creates an unfitted model.
func NewRandomForest(cfg RandomForestConfig) *RandomForest {
	if cfg.NEstimators <= 0 {
		cfg.NEstimators = DefaultRandomForestConfig().NEstimators
	}
	cfg.Tree = cfg.Tree.withDefaults()
	return &RandomForest{
		BaseRegressor: newBaseRegressor(AlgorithmRandomForest, "RandomForestRegressor"),
		Config:        cfg,
	}
}

// Params implements Regressor.
func (f *RandomForest) Params() map[string]string {
	depth := "None"
	if f.Config.Tree.MaxDepth > 0 {
		depth = strconv.Itoa(f.Config.Tree.MaxDepth)
	}
	return map[string]string{
		"n_estimators":      strconv.Itoa(f.Config.NEstimators),
		"bootstrap":         strconv.FormatBool(f.Config.Bootstrap),
		"max_depth":         depth,
		"min_samples_split": strconv.Itoa(f.Config.Tree.MinSamplesSplit),
		"min_samples_leaf":  strconv.Itoa(f.Config.Tree.MinSamplesLeaf),
		"max_bins":          strconv.Itoa(f.Config.Tree.MaxBins),
		"random_state":      strconv.FormatUint(f.Config.RandomState, 10),
	}
}

// Fit implements Regressor. Tree t draws its bootstrap sample from a
// generator seeded with (RandomState, t), so the result does not depend on
// the number of workers.
func (f *RandomForest) Fit(ctx context.Context, X *Matrix, y []float64) error {
	if err := checkShape(X, y); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	n := X.NumRows()
	bn := newBinning(X, f.Config.Tree.MaxBins)

	workers := f.Config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, f.Config.NEstimators)

	trees := make([]*Tree, f.Config.NEstimators)
	jobs := make(chan int)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for t := range trees {
			select {
			case jobs <- t:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for range workers {
		g.Go(func() error {
			builder := newTreeBuilder(gctx, f.Config.Tree, X, bn)
			for t := range jobs {
				idx := allIndices(n)
				if f.Config.Bootstrap {
					rng := rand.New(rand.NewPCG(f.Config.RandomState, uint64(t)))
					idx = bootstrapIndices(rng, n)
				}
				tree, err := builder.build(idx, y)
				if err != nil {
					return fmt.Errorf("random forest tree %d: %w", t, err)
				}
				trees[t] = tree
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.Trees = trees
	f.markTrained()
	return nil
}

// Predict implements Regressor.
func (f *RandomForest) Predict(X *Matrix) ([]float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return nil, fmt.Errorf("random forest: %w", ErrNotFitted)
	}
	return predictTrees(f.Trees, X, 0, 1, true), nil
}

func (f *RandomForest) restore() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Trees) == 0 {
		return fmt.Errorf("random forest: artifact has no trees")
	}
	f.markTrained()
	return nil
}
