// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package training

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/ridecast/internal/events"
	"github.com/tomtom215/ridecast/internal/ingest"
	"github.com/tomtom215/ridecast/internal/logging"
	"github.com/tomtom215/ridecast/internal/metrics"
	"github.com/tomtom215/ridecast/internal/ml"
	"github.com/tomtom215/ridecast/internal/tracking"
)

// candidateSet holds the samples shared by every candidate.
type candidateSet struct {
	trainX []ml.Sample
	trainY []float64
	validX []ml.Sample
	validY []float64
}

func newCandidateSet(d *ingest.Data) *candidateSet {
	return &candidateSet{
		trainX: d.Train.Samples(),
		trainY: d.Train.Target,
		validX: d.Valid.Samples(),
		validY: d.Valid.Target,
	}
}

// trainCandidate fits one algorithm inside its own run. Any failure after
// the run is created marks it FAILED.
func (f *Flow) trainCandidate(ctx context.Context, exp *tracking.Experiment, algo string, p Params, c *candidateSet) (*RunResult, error) {
	reg, err := ml.NewRegressor(algo, f.regressorParams())
	if err != nil {
		return nil, err
	}

	tags := []tracking.Tag{
		{Key: TagAuthor, Value: f.cfg.Author},
		{Key: TagModel, Value: reg.DisplayName()},
		{Key: TagRunName, Value: algo},
	}
	run, err := f.tracker.CreateRun(ctx, exp.ExperimentID, algo, f.now(), tags)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	runID := run.Info.RunID
	log := logging.Ctx(ctx).With().Str("run_id", runID).Str("algorithm", algo).Logger()

	rr, err := f.fitAndLog(ctx, exp, run, reg, p, c)
	if err != nil {
		// The run is marked even when ctx was cancelled mid-fit.
		if _, uerr := f.tracker.UpdateRun(context.WithoutCancel(ctx), runID, tracking.RunStatusFailed, f.now()); uerr != nil {
			err = errors.Join(err, fmt.Errorf("mark run failed: %w", uerr))
		}
		log.Error().Err(err).Msg("Training run failed")
		return nil, err
	}

	if _, err := f.tracker.UpdateRun(ctx, runID, tracking.RunStatusFinished, f.now()); err != nil {
		return nil, fmt.Errorf("finish run: %w", err)
	}

	metrics.RecordModelTrained(algo, rr.FitDuration, rr.Metrics.RMSEValid, rr.Metrics.MAEValid)
	f.publish(ctx, events.TopicRunCompleted, events.RunCompleted{
		ExperimentID:   exp.ExperimentID,
		ExperimentName: exp.Name,
		RunID:          runID,
		Algorithm:      algo,
		RMSEValid:      rr.Metrics.RMSEValid,
		MAEValid:       rr.Metrics.MAEValid,
		Timestamp:      f.now().UTC(),
	})

	log.Info().
		Float64("rmse_valid", rr.Metrics.RMSEValid).
		Float64("mae_valid", rr.Metrics.MAEValid).
		Dur("fit", rr.FitDuration).
		Msg("Training run finished")
	return rr, nil
}

func (f *Flow) fitAndLog(ctx context.Context, exp *tracking.Experiment, run *tracking.Run, reg ml.Regressor, p Params, c *candidateSet) (*RunResult, error) {
	pipe := ml.NewPipeline(reg)

	fitStart := time.Now()
	if err := pipe.Fit(ctx, c.trainX, c.trainY); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	fitDuration := time.Since(fitStart)

	m, err := evaluate(pipe, c)
	if err != nil {
		return nil, err
	}

	params := runParams(reg, p)
	if err := f.tracker.LogBatch(ctx, run.Info.RunID, m.tracked(f.now()), params, nil); err != nil {
		return nil, fmt.Errorf("log batch: %w", err)
	}

	artifact, err := ml.MarshalPipeline(pipe)
	if err != nil {
		return nil, err
	}
	artifactURI := run.Info.ArtifactURI
	if artifactURI == "" {
		artifactURI = fmt.Sprintf("%s/%s/%s/artifacts", f.artifactRoot, exp.ExperimentID, run.Info.RunID)
	}
	if err := f.tracker.UploadArtifact(ctx, artifactURI, ModelArtifactPath, artifact); err != nil {
		return nil, fmt.Errorf("upload model: %w", err)
	}

	return &RunResult{
		Algorithm:   reg.Name(),
		RunID:       run.Info.RunID,
		ArtifactURI: artifactURI,
		FitDuration: fitDuration,
		Metrics:     m,
	}, nil
}

// evaluate predicts both sets and computes the logged metrics.
// inference_time is the prediction wall time divided by the number of
// predictions.
func evaluate(pipe *ml.Pipeline, c *candidateSet) (Metrics, error) {
	start := time.Now()
	predTrain, err := pipe.Predict(c.trainX)
	if err != nil {
		return Metrics{}, fmt.Errorf("predict train: %w", err)
	}
	predValid, err := pipe.Predict(c.validX)
	if err != nil {
		return Metrics{}, fmt.Errorf("predict valid: %w", err)
	}
	elapsed := time.Since(start)

	n := len(predTrain) + len(predValid)
	var perPrediction float64
	if n > 0 {
		perPrediction = elapsed.Seconds() / float64(n)
	}

	return Metrics{
		MAETrain:      ml.MeanAbsoluteError(c.trainY, predTrain),
		MAEValid:      ml.MeanAbsoluteError(c.validY, predValid),
		RMSETrain:     ml.RootMeanSquaredError(c.trainY, predTrain),
		RMSEValid:     ml.RootMeanSquaredError(c.validY, predValid),
		InferenceTime: perPrediction,
	}, nil
}

func (m Metrics) tracked(at time.Time) []tracking.Metric {
	ts := tracking.Millis(at)
	return []tracking.Metric{
		{Key: "mae_train", Value: m.MAETrain, Timestamp: ts},
		{Key: "mae_valid", Value: m.MAEValid, Timestamp: ts},
		{Key: "rmse_train", Value: m.RMSETrain, Timestamp: ts},
		{Key: "rmse_valid", Value: m.RMSEValid, Timestamp: ts},
		{Key: "inference_time", Value: m.InferenceTime, Timestamp: ts},
	}
}

// runParams returns the regressor hyperparameters plus the data files,
// sorted by key.
func runParams(reg ml.Regressor, p Params) []tracking.Param {
	kv := reg.Params()
	kv["train_file"] = p.TrainFile
	kv["valid_file"] = p.ValidFile
	kv["algorithm"] = reg.Name()

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]tracking.Param, len(keys))
	for i, k := range keys {
		out[i] = tracking.Param{Key: k, Value: kv[k]}
	}
	return out
}
