// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package ml

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// ArtifactFormatVersion is written into every serialized pipeline.
const ArtifactFormatVersion = 1

// Pipeline chains vectorization, mean imputation and a regressor.
type Pipeline struct {
	Vectorizer *DictVectorizer
	Imputer    *MeanImputer
	Regressor  Regressor
	CreatedAt  time.Time
}

// NewPipeline returns an unfitted pipeline around r.
func NewPipeline(r Regressor) *Pipeline {
	return &Pipeline{
		Vectorizer: NewDictVectorizer(),
		Imputer:    NewMeanImputer(),
		Regressor:  r,
	}
}

// Fit fits every stage in order.
func (p *Pipeline) Fit(ctx context.Context, samples []Sample, y []float64) error {
	if len(samples) == 0 {
		return ErrEmptyDataset
	}
	if len(samples) != len(y) {
		return fmt.Errorf("%w: %d samples, %d targets", ErrShapeMismatch, len(samples), len(y))
	}

	X, err := p.Vectorizer.FitTransform(samples)
	if err != nil {
		return fmt.Errorf("fit vectorizer: %w", err)
	}
	X, err = p.Imputer.FitTransform(X)
	if err != nil {
		return fmt.Errorf("fit imputer: %w", err)
	}
	if err := p.Regressor.Fit(ctx, X, y); err != nil {
		return fmt.Errorf("fit %s: %w", p.Regressor.Name(), err)
	}
	p.CreatedAt = time.Now().UTC()
	return nil
}

// Transform applies the fitted vectorizer and imputer.
func (p *Pipeline) Transform(samples []Sample) (*Matrix, error) {
	X, err := p.Vectorizer.Transform(samples)
	if err != nil {
		return nil, err
	}
	return p.Imputer.Transform(X)
}

// Predict returns one prediction per sample.
func (p *Pipeline) Predict(samples []Sample) ([]float64, error) {
	X, err := p.Transform(samples)
	if err != nil {
		return nil, err
	}
	return p.Regressor.Predict(X)
}

// PredictOne predicts a single sample.
func (p *Pipeline) PredictOne(s Sample) (float64, error) {
	out, err := p.Predict([]Sample{s})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

type pipelineArtifact struct {
	FormatVersion int             `json:"format_version"`
	Algorithm     string          `json:"algorithm"`
	ModelClass    string          `json:"model_class"`
	CreatedAt     time.Time       `json:"created_at"`
	Vectorizer    *DictVectorizer `json:"vectorizer"`
	Imputer       *MeanImputer    `json:"imputer"`
	Regressor     json.RawMessage `json:"regressor"`
}

// MarshalPipeline serializes a fitted pipeline.
func MarshalPipeline(p *Pipeline) ([]byte, error) {
	if p == nil || p.Regressor == nil || !p.Regressor.IsTrained() || !p.Vectorizer.Fitted() {
		return nil, fmt.Errorf("marshal pipeline: %w", ErrNotFitted)
	}

	reg, err := json.Marshal(p.Regressor)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", p.Regressor.Name(), err)
	}
	return json.Marshal(pipelineArtifact{
		FormatVersion: ArtifactFormatVersion,
		Algorithm:     p.Regressor.Name(),
		ModelClass:    p.Regressor.DisplayName(),
		CreatedAt:     p.CreatedAt,
		Vectorizer:    p.Vectorizer,
		Imputer:       p.Imputer,
		Regressor:     reg,
	})
}

// LoadPipeline restores a pipeline written by MarshalPipeline.
func LoadPipeline(data []byte) (*Pipeline, error) {
	var a pipelineArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode pipeline artifact: %w", err)
	}
	if a.FormatVersion != ArtifactFormatVersion {
		return nil, fmt.Errorf("unsupported artifact format version %d", a.FormatVersion)
	}
	if a.Vectorizer == nil || a.Imputer == nil {
		return nil, fmt.Errorf("pipeline artifact is missing a preprocessing stage")
	}

	reg, err := NewRegressor(a.Algorithm, DefaultParams())
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(a.Regressor, reg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", a.Algorithm, err)
	}

	if err := a.Vectorizer.restore(); err != nil {
		return nil, err
	}
	if len(a.Imputer.Statistics) != len(a.Vectorizer.FeatureNames) {
		return nil, fmt.Errorf("imputer has %d statistics for %d features",
			len(a.Imputer.Statistics), len(a.Vectorizer.FeatureNames))
	}
	if r, ok := reg.(restorer); ok {
		if err := r.restore(); err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		Vectorizer: a.Vectorizer,
		Imputer:    a.Imputer,
		Regressor:  reg,
		CreatedAt:  a.CreatedAt,
	}, nil
}
