// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package training

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/ridecast/internal/config"
	"github.com/tomtom215/ridecast/internal/events"
	"github.com/tomtom215/ridecast/internal/ingest"
	"github.com/tomtom215/ridecast/internal/logging"
	"github.com/tomtom215/ridecast/internal/metrics"
	"github.com/tomtom215/ridecast/internal/ml"
	"github.com/tomtom215/ridecast/internal/tracking"
)

// FlowName labels metrics, logs and events.
const FlowName = "training"

// Tag keys set on every run.
const (
	TagAuthor  = "author/developer"
	TagModel   = "Model"
	TagRunName = "mlflow.runName"
)

// ModelArtifactPath is the artifact path of the serialised pipeline,
// relative to the run's artifact URI.
const ModelArtifactPath = "model/model.json"

// Tracker is the subset of the tracking client used by the flow.
type Tracker interface {
	SetExperiment(ctx context.Context, name string) (*tracking.Experiment, error)
	CreateRun(ctx context.Context, experimentID, runName string, start time.Time, tags []tracking.Tag) (*tracking.Run, error)
	LogBatch(ctx context.Context, runID string, metrics []tracking.Metric, params []tracking.Param, tags []tracking.Tag) error
	UploadArtifact(ctx context.Context, artifactURI, relPath string, data []byte) error
	UpdateRun(ctx context.Context, runID, status string, end time.Time) (*tracking.RunInfo, error)
}

// DataSource prepares the training and validation sets.
type DataSource interface {
	ProcessData(ctx context.Context, trainFile, validFile string) (*ingest.Data, error)
}

// Params are the per-execution flow parameters.
type Params struct {
	TrainFile string
	ValidFile string

	// ExpectedStart names the experiment. Zero means now.
	ExpectedStart time.Time
}

// Metrics are the values logged for one run.
type Metrics struct {
	MAETrain      float64 `json:"mae_train"`
	MAEValid      float64 `json:"mae_valid"`
	RMSETrain     float64 `json:"rmse_train"`
	RMSEValid     float64 `json:"rmse_valid"`
	InferenceTime float64 `json:"inference_time"` // seconds per prediction
}

// RunResult describes one finished candidate run.
type RunResult struct {
	Algorithm   string        `json:"algorithm"`
	RunID       string        `json:"run_id"`
	ArtifactURI string        `json:"artifact_uri"`
	FitDuration time.Duration `json:"fit_duration"`
	Metrics     Metrics       `json:"metrics"`
}

// Result summarises a flow execution.
type Result struct {
	ExperimentID   string      `json:"experiment_id"`
	ExperimentName string      `json:"experiment_name"`
	TrainRows      int         `json:"train_rows"`
	ValidRows      int         `json:"valid_rows"`
	Runs           []RunResult `json:"runs"`
}

// Flow runs training executions.
type Flow struct {
	cfg          config.TrainingConfig
	artifactRoot string
	tracker      Tracker
	data         DataSource
	events       events.Publisher
	now          func() time.Time
}

// NewFlow creates a training flow. A nil publisher discards events.
func NewFlow(cfg *config.Config, tracker Tracker, data DataSource, pub events.Publisher) *Flow {
	if pub == nil {
		pub = events.Discard
	}
	return &Flow{
		cfg:          cfg.Training,
		artifactRoot: strings.TrimSuffix(cfg.Tracking.ArtifactRoot, "/"),
		tracker:      tracker,
		data:         data,
		events:       pub,
		now:          time.Now,
	}
}

// ExperimentName returns prefix followed by the date of t (YYYY-MM-DD).
func ExperimentName(prefix string, t time.Time) string {
	return prefix + t.Format("2006-01-02")
}

// Run executes the flow.
func (f *Flow) Run(ctx context.Context, p Params) (result *Result, err error) {
	ctx = logging.ContextWithFlow(logging.ContextWithNewCorrelationID(ctx), FlowName)
	start := f.now()
	defer func() {
		end := f.now()
		metrics.RecordFlowRun(FlowName, end.Sub(start), err)
		f.publish(ctx, events.TopicFlowFinished, events.NewFlowFinished(ctx, FlowName, start, end, err))
	}()

	if p.TrainFile == "" {
		p.TrainFile = f.cfg.TrainFile
	}
	if p.ValidFile == "" {
		p.ValidFile = f.cfg.ValidFile
	}
	if p.ExpectedStart.IsZero() {
		p.ExpectedStart = start
	}

	name := ExperimentName(f.cfg.ExperimentPrefix, p.ExpectedStart)
	log := logging.Ctx(ctx)
	log.Info().
		Str("experiment", name).
		Str("train_file", p.TrainFile).
		Str("valid_file", p.ValidFile).
		Strs("algorithms", f.cfg.Algorithms).
		Msg("Training flow started")

	exp, err := f.tracker.SetExperiment(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("set experiment: %w", err)
	}

	log.Info().Msg("Process data features for model training and validation")
	data, err := f.data.ProcessData(ctx, p.TrainFile, p.ValidFile)
	if err != nil {
		return nil, fmt.Errorf("process data: %w", err)
	}

	result = &Result{
		ExperimentID:   exp.ExperimentID,
		ExperimentName: name,
		TrainRows:      data.Train.Len(),
		ValidRows:      data.Valid.Len(),
	}

	c := newCandidateSet(data)
	for _, algo := range f.cfg.Algorithms {
		rr, err := f.trainCandidate(ctx, exp, algo, p, c)
		if err != nil {
			return nil, fmt.Errorf("train %s: %w", algo, err)
		}
		result.Runs = append(result.Runs, *rr)
	}

	log.Info().
		Str("experiment_id", exp.ExperimentID).
		Int("runs", len(result.Runs)).
		Dur("duration", f.now().Sub(start)).
		Msg("Training flow finished")
	return result, nil
}

// regressorParams maps the flow configuration onto algorithm parameters.
func (f *Flow) regressorParams() ml.Params {
	p := ml.DefaultParams()

	p.Ridge.Alpha = f.cfg.RidgeAlpha
	p.Ridge.RandomState = f.cfg.RandomState

	p.GradientBoosting.NEstimators = f.cfg.GBEstimators
	p.GradientBoosting.LearningRate = f.cfg.GBLearningRate
	p.GradientBoosting.Tree.MaxDepth = f.cfg.GBMaxDepth
	p.GradientBoosting.RandomState = f.cfg.RandomState

	p.RandomForest.NEstimators = f.cfg.RFEstimators
	p.RandomForest.Tree.MaxDepth = f.cfg.RFMaxDepth
	p.RandomForest.Workers = f.cfg.RFWorkers
	p.RandomForest.RandomState = f.cfg.RandomState
	return p
}

func (f *Flow) publish(ctx context.Context, topic string, ev interface{}) {
	if err := f.events.Publish(ctx, topic, ev); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("Failed to publish event")
	}
}
