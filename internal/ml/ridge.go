// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package ml

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
)

// RidgeConfig configures Ridge.
type RidgeConfig struct {
	// Alpha is the L2 penalty. Default 1.0.
	Alpha float64 `json:"alpha"`

	// MaxIter bounds conjugate-gradient iterations. Default 1000.
	MaxIter int `json:"max_iter"`

	// Tol is the relative residual at which CG stops. Default 1e-4.
	Tol float64 `json:"tol"`

	// RandomState is recorded for tracking; the solver is deterministic.
	RandomState uint64 `json:"random_state"`
}

// DefaultRidgeConfig returns the default Ridge configuration.
func DefaultRidgeConfig() RidgeConfig {
	return RidgeConfig{
		Alpha:       1.0,
		MaxIter:     1000,
		Tol:         1e-4,
		RandomState: DefaultRandomState,
	}
}

// Ridge is L2-regularised linear regression with an intercept.
//
// It minimises ||y - Xw - b||² + alpha·||w||². Centering is applied
// implicitly so the sparse design is never densified:
//
//	(Xcᵀ Xc + alpha·I) w = Xcᵀ (y - ȳ),   Xc = X - 1·x̄ᵀ
//	b = ȳ - x̄ᵀ w
type Ridge struct {
	BaseRegressor
	Config     RidgeConfig `json:"config"`
	Coef       []float64   `json:"coef"`
	Intercept  float64     `json:"intercept"`
	Iterations int         `json:"iterations"`
}

// NewRidge creates an unfitted Ridge model.
func NewRidge(cfg RidgeConfig) *Ridge {
	def := DefaultRidgeConfig()
	if cfg.Alpha <= 0 {
		cfg.Alpha = def.Alpha
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = def.MaxIter
	}
	if cfg.Tol <= 0 {
		cfg.Tol = def.Tol
	}
	return &Ridge{
		BaseRegressor: newBaseRegressor(AlgorithmRidge, "Ridge"),
		Config:        cfg,
	}
}

// Params implements Regressor.
func (r *Ridge) Params() map[string]string {
	return map[string]string{
		"alpha":         strconv.FormatFloat(r.Config.Alpha, 'g', -1, 64),
		"max_iter":      strconv.Itoa(r.Config.MaxIter),
		"tol":           strconv.FormatFloat(r.Config.Tol, 'g', -1, 64),
		"random_state":  strconv.FormatUint(r.Config.RandomState, 10),
		"fit_intercept": "true",
		"solver":        "sparse_cg",
	}
}

// Fit implements Regressor.
func (r *Ridge) Fit(ctx context.Context, X *Matrix, y []float64) error {
	if err := checkShape(X, y); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n, p := X.NumRows(), X.Cols
	xMean := X.colMeans()
	yMean := mean(y)

	yc := make([]float64, n)
	for i, v := range y {
		yc[i] = v - yMean
	}

	// Scratch buffers reused across iterations.
	rowBuf := make([]float64, n)
	colBuf := make([]float64, p)

	// apply computes dst = (XcᵀXc + alpha·I) v.
	apply := func(dst, v []float64) {
		X.mulVec(rowBuf, v)
		shift := floats.Dot(xMean, v)
		for i := range rowBuf {
			rowBuf[i] -= shift
		}
		X.mulTransVec(colBuf, rowBuf)
		total := floats.Sum(rowBuf)
		for j := range dst {
			dst[j] = colBuf[j] - xMean[j]*total + r.Config.Alpha*v[j]
		}
	}

	// b = Xcᵀ yc; Σ yc = 0 so the centering term vanishes.
	b := make([]float64, p)
	X.mulTransVec(b, yc)

	w := make([]float64, p)
	res := make([]float64, p)
	copy(res, b)
	dir := make([]float64, p)
	copy(dir, res)
	ad := make([]float64, p)

	bNorm := floats.Norm(b, 2)
	rs := floats.Dot(res, res)
	iter := 0
	for ; iter < r.Config.MaxIter && bNorm > 0; iter++ {
		if math.Sqrt(rs) <= r.Config.Tol*bNorm {
			break
		}
		if iter%10 == 0 && contextCancelled(ctx) {
			return ctx.Err()
		}

		apply(ad, dir)
		denom := floats.Dot(dir, ad)
		if denom <= 0 {
			break
		}
		step := rs / denom
		floats.AddScaled(w, step, dir)
		floats.AddScaled(res, -step, ad)

		rsNew := floats.Dot(res, res)
		floats.Scale(rsNew/rs, dir)
		floats.Add(dir, res)
		rs = rsNew
	}

	if hasNaN(w) {
		return fmt.Errorf("ridge: solver diverged after %d iterations", iter)
	}

	r.Coef = w
	r.Intercept = yMean - floats.Dot(xMean, w)
	r.Iterations = iter
	r.markTrained()
	return nil
}

// Predict implements Regressor.
func (r *Ridge) Predict(X *Matrix) ([]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.trained {
		return nil, fmt.Errorf("ridge: %w", ErrNotFitted)
	}

	out := make([]float64, X.NumRows())
	for i, row := range X.Rows {
		s := r.Intercept
		for k, j := range row.Idx {
			if j < len(r.Coef) {
				s += row.Val[k] * r.Coef[j]
			}
		}
		out[i] = s
	}
	return out, nil
}

func (r *Ridge) restore() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Coef == nil {
		return fmt.Errorf("ridge: artifact has no coefficients")
	}
	r.markTrained()
	return nil
}
