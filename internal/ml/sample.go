// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package ml

import (
	"sort"
)

// Value is a single feature value, either categorical or numeric.
type Value struct {
	Str         string
	Num         float64
	Categorical bool
}

// Cat returns a categorical value.
func Cat(s string) Value {
	return Value{Str: s, Categorical: true}
}

// Num returns a numeric value.
func Num(f float64) Value {
	return Value{Num: f}
}

// Sample is one keyed feature record.
type Sample map[string]Value

// Row is a sparse matrix row. Idx is strictly increasing.
type Row struct {
	Idx []int
	Val []float64
}

// At returns the value of column j (zero when not stored).
func (r Row) At(j int) float64 {
	k := sort.SearchInts(r.Idx, j)
	if k < len(r.Idx) && r.Idx[k] == j {
		return r.Val[k]
	}
	return 0
}

// Matrix is a row-major sparse matrix. Numeric marks columns that carry
// continuous values; the others are one-hot indicators.
type Matrix struct {
	Rows    []Row
	Cols    int
	Numeric []bool
}

// NumRows returns the number of rows.
func (m *Matrix) NumRows() int {
	return len(m.Rows)
}

// mulVec computes dst = M v.
func (m *Matrix) mulVec(dst, v []float64) {
	for i, r := range m.Rows {
		var s float64
		for k, j := range r.Idx {
			s += r.Val[k] * v[j]
		}
		dst[i] = s
	}
}

// mulTransVec computes dst = Mᵀ u.
func (m *Matrix) mulTransVec(dst, u []float64) {
	for j := range dst {
		dst[j] = 0
	}
	for i, r := range m.Rows {
		ui := u[i]
		if ui == 0 {
			continue
		}
		for k, j := range r.Idx {
			dst[j] += r.Val[k] * ui
		}
	}
}

// colMeans returns the mean of every column over all rows.
func (m *Matrix) colMeans() []float64 {
	means := make([]float64, m.Cols)
	if len(m.Rows) == 0 {
		return means
	}
	for _, r := range m.Rows {
		for k, j := range r.Idx {
			means[j] += r.Val[k]
		}
	}
	n := float64(len(m.Rows))
	for j := range means {
		means[j] /= n
	}
	return means
}
