// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package ml

import (
	"fmt"
	"sort"
)

// DefaultSeparator joins a categorical key and value into a column name.
const DefaultSeparator = "="

// DictVectorizer turns keyed samples into sparse rows.
type DictVectorizer struct {
	Separator    string         `json:"separator"`
	FeatureNames []string       `json:"feature_names"`
	Numeric      []bool         `json:"numeric"`
	vocabulary   map[string]int // rebuilt from FeatureNames
}

// NewDictVectorizer returns an unfitted vectorizer.
func NewDictVectorizer() *DictVectorizer {
	return &DictVectorizer{Separator: DefaultSeparator}
}

func (v *DictVectorizer) columnName(key string, val Value) string {
	if val.Categorical {
		return key + v.Separator + val.Str
	}
	return key
}

// Fit learns the sorted column vocabulary.
func (v *DictVectorizer) Fit(samples []Sample) error {
	if len(samples) == 0 {
		return ErrEmptyDataset
	}
	if v.Separator == "" {
		v.Separator = DefaultSeparator
	}

	numeric := make(map[string]bool)
	for _, s := range samples {
		for key, val := range s {
			numeric[v.columnName(key, val)] = !val.Categorical
		}
	}

	names := make([]string, 0, len(numeric))
	for name := range numeric {
		names = append(names, name)
	}
	sort.Strings(names)

	v.FeatureNames = names
	v.Numeric = make([]bool, len(names))
	for i, name := range names {
		v.Numeric[i] = numeric[name]
	}
	v.buildVocabulary()
	return nil
}

func (v *DictVectorizer) buildVocabulary() {
	v.vocabulary = make(map[string]int, len(v.FeatureNames))
	for i, name := range v.FeatureNames {
		v.vocabulary[name] = i
	}
}

// Fitted reports whether a vocabulary is available.
func (v *DictVectorizer) Fitted() bool {
	return v.vocabulary != nil
}

// Transform converts samples to a sparse matrix. Unknown columns are dropped.
func (v *DictVectorizer) Transform(samples []Sample) (*Matrix, error) {
	if !v.Fitted() {
		return nil, fmt.Errorf("vectorizer: %w", ErrNotFitted)
	}

	m := &Matrix{
		Rows:    make([]Row, len(samples)),
		Cols:    len(v.FeatureNames),
		Numeric: v.Numeric,
	}
	for i, s := range samples {
		row := Row{Idx: make([]int, 0, len(s)), Val: make([]float64, 0, len(s))}
		for key, val := range s {
			j, ok := v.vocabulary[v.columnName(key, val)]
			if !ok {
				continue
			}
			x := 1.0
			if !val.Categorical {
				x = val.Num
			}
			row.Idx = append(row.Idx, j)
			row.Val = append(row.Val, x)
		}
		sortRow(&row)
		m.Rows[i] = row
	}
	return m, nil
}

// FitTransform is Fit followed by Transform.
func (v *DictVectorizer) FitTransform(samples []Sample) (*Matrix, error) {
	if err := v.Fit(samples); err != nil {
		return nil, err
	}
	return v.Transform(samples)
}

// restore rebuilds derived state after decoding.
func (v *DictVectorizer) restore() error {
	if len(v.FeatureNames) != len(v.Numeric) {
		return fmt.Errorf("vectorizer: %d feature names but %d kinds", len(v.FeatureNames), len(v.Numeric))
	}
	if v.Separator == "" {
		v.Separator = DefaultSeparator
	}
	v.buildVocabulary()
	return nil
}

type rowSorter struct{ r *Row }

func (s rowSorter) Len() int           { return len(s.r.Idx) }
func (s rowSorter) Less(a, b int) bool { return s.r.Idx[a] < s.r.Idx[b] }
func (s rowSorter) Swap(a, b int) {
	s.r.Idx[a], s.r.Idx[b] = s.r.Idx[b], s.r.Idx[a]
	s.r.Val[a], s.r.Val[b] = s.r.Val[b], s.r.Val[a]
}

func sortRow(r *Row) {
	if len(r.Idx) > 1 {
		sort.Sort(rowSorter{r})
	}
}
