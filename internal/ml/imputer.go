// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package ml

import (
	"fmt"
	"math"
)

// MeanImputer replaces NaN entries with the training mean of their column.
type MeanImputer struct {
	Statistics []float64 `json:"statistics"`
}

// NewMeanImputer returns an unfitted imputer.
func NewMeanImputer() *MeanImputer {
	return &MeanImputer{}
}

// Fit computes per-column means ignoring NaN. A column that is entirely NaN
// gets a mean of zero.
func (im *MeanImputer) Fit(m *Matrix) error {
	if m.NumRows() == 0 {
		return ErrEmptyDataset
	}

	sums := make([]float64, m.Cols)
	missing := make([]int, m.Cols)
	for _, r := range m.Rows {
		for k, j := range r.Idx {
			if math.IsNaN(r.Val[k]) {
				missing[j]++
				continue
			}
			sums[j] += r.Val[k]
		}
	}

	n := m.NumRows()
	im.Statistics = make([]float64, m.Cols)
	for j := range sums {
		if observed := n - missing[j]; observed > 0 {
			im.Statistics[j] = sums[j] / float64(observed)
		}
	}
	return nil
}

// Transform returns m with NaN entries replaced. Rows without NaN are shared
// with the input.
func (im *MeanImputer) Transform(m *Matrix) (*Matrix, error) {
	if im.Statistics == nil {
		return nil, fmt.Errorf("imputer: %w", ErrNotFitted)
	}
	if m.Cols != len(im.Statistics) {
		return nil, fmt.Errorf("imputer: matrix has %d columns, fitted on %d", m.Cols, len(im.Statistics))
	}

	out := &Matrix{Rows: make([]Row, len(m.Rows)), Cols: m.Cols, Numeric: m.Numeric}
	for i, r := range m.Rows {
		if !hasNaN(r.Val) {
			out.Rows[i] = r
			continue
		}
		vals := make([]float64, len(r.Val))
		for k, v := range r.Val {
			if math.IsNaN(v) {
				v = im.Statistics[r.Idx[k]]
			}
			vals[k] = v
		}
		out.Rows[i] = Row{Idx: r.Idx, Val: vals}
	}
	return out, nil
}

// FitTransform is Fit followed by Transform.
func (im *MeanImputer) FitTransform(m *Matrix) (*Matrix, error) {
	if err := im.Fit(m); err != nil {
		return nil, err
	}
	return im.Transform(m)
}

func hasNaN(vals []float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
