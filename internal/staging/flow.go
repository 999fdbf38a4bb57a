// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package staging

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tomtom215/ridecast/internal/config"
	"github.com/tomtom215/ridecast/internal/events"
	"github.com/tomtom215/ridecast/internal/logging"
	"github.com/tomtom215/ridecast/internal/metrics"
	"github.com/tomtom215/ridecast/internal/tracking"
	"github.com/tomtom215/ridecast/internal/training"
)

// FlowName labels metrics, logs and events.
const FlowName = "staging"

// SelectionMetric orders candidate runs.
const SelectionMetric = "rmse_valid"

// FinishedRunsFilter restricts the candidate search to completed runs.
const FinishedRunsFilter = "attributes.status = 'FINISHED'"

// descriptionTimeLayout matches the timestamp of the promotion note.
const descriptionTimeLayout = "2006-01-02 15:04:05"

// Tracker is the subset of the tracking client used by the flow.
type Tracker interface {
	GetExperimentByName(ctx context.Context, name string) (*tracking.Experiment, error)
	SearchRuns(ctx context.Context, req *tracking.SearchRunsRequest) ([]tracking.Run, string, error)
	GetRegisteredModel(ctx context.Context, name string) (*tracking.RegisteredModel, error)
	CreateRegisteredModel(ctx context.Context, name, description string) (*tracking.RegisteredModel, error)
	CreateModelVersion(ctx context.Context, name, source, runID string) (*tracking.ModelVersion, error)
	TransitionModelVersionStage(ctx context.Context, name, version, stage string, archiveExisting bool) (*tracking.ModelVersion, error)
	UpdateModelVersion(ctx context.Context, name, version, description string) (*tracking.ModelVersion, error)
}

// Params are the per-execution flow parameters.
type Params struct {
	// ExperimentName overrides the configured or date-derived experiment.
	ExperimentName string

	// RunDate derives the experiment name when none is configured. Zero
	// means now.
	RunDate time.Time
}

// Result describes the promoted model version.
type Result struct {
	ModelName      string  `json:"model_name"`
	Version        string  `json:"version"`
	Stage          string  `json:"stage"`
	RunID          string  `json:"run_id"`
	ExperimentID   string  `json:"experiment_id"`
	ExperimentName string  `json:"experiment_name"`
	Source         string  `json:"source"`
	RMSEValid      float64 `json:"rmse_valid"`
}

// Flow runs staging executions.
type Flow struct {
	cfg              config.StagingConfig
	experimentPrefix string
	artifactRoot     string
	tracker          Tracker
	events           events.Publisher
	now              func() time.Time
}

// NewFlow creates a staging flow. A nil publisher discards events.
func NewFlow(cfg *config.Config, tracker Tracker, pub events.Publisher) *Flow {
	if pub == nil {
		pub = events.Discard
	}
	return &Flow{
		cfg:              cfg.Staging,
		experimentPrefix: cfg.Training.ExperimentPrefix,
		artifactRoot:     strings.TrimSuffix(cfg.Tracking.ArtifactRoot, "/"),
		tracker:          tracker,
		events:           pub,
		now:              time.Now,
	}
}

// experimentName resolves, in order: the parameter, the configured name and
// the training experiment of the run date.
func (f *Flow) experimentName(p Params, start time.Time) string {
	switch {
	case p.ExperimentName != "":
		return p.ExperimentName
	case f.cfg.ExperimentName != "":
		return f.cfg.ExperimentName
	}
	day := p.RunDate
	if day.IsZero() {
		day = start
	}
	return training.ExperimentName(f.experimentPrefix, day)
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

	name := f.experimentName(p, start)
	log := logging.Ctx(ctx)
	log.Info().Str("experiment", name).Msg("Staging flow started")

	exp, err := f.tracker.GetExperimentByName(ctx, name)
	if err != nil {
		if errors.Is(err, tracking.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrExperimentNotFound, name)
		}
		return nil, fmt.Errorf("get experiment %q: %w", name, err)
	}

	best, err := f.selectBest(ctx, exp)
	if err != nil {
		return nil, err
	}

	rmse, _ := best.Metric(SelectionMetric)
	modelName := f.cfg.ModelNamePrefix + best.Info.RunID
	log.Info().
		Str("run_id", best.Info.RunID).
		Float64(SelectionMetric, rmse).
		Str("model_uri", "runs:/"+best.Info.RunID+"/model").
		Msg("Registering model")

	if err := f.ensureRegisteredModel(ctx, modelName); err != nil {
		return nil, err
	}

	source := f.modelSource(exp, best)
	mv, err := f.tracker.CreateModelVersion(ctx, modelName, source, best.Info.RunID)
	if err != nil {
		return nil, fmt.Errorf("create model version: %w", err)
	}

	mv, err = f.promote(ctx, exp, mv)
	if err != nil {
		return nil, err
	}

	result = &Result{
		ModelName:      modelName,
		Version:        mv.Version,
		Stage:          f.cfg.Stage,
		RunID:          best.Info.RunID,
		ExperimentID:   exp.ExperimentID,
		ExperimentName: exp.Name,
		Source:         source,
		RMSEValid:      rmse,
	}

	metrics.RecordModelStaged(modelName, mv.VersionNumber())
	f.publish(ctx, events.TopicModelStaged, events.ModelStaged{
		ModelName:    modelName,
		Version:      mv.Version,
		Stage:        f.cfg.Stage,
		RunID:        best.Info.RunID,
		ExperimentID: exp.ExperimentID,
		RMSEValid:    rmse,
		Timestamp:    f.now().UTC(),
	})

	log.Info().
		Str("model", modelName).
		Str("version", mv.Version).
		Str("stage", f.cfg.Stage).
		Dur("duration", f.now().Sub(start)).
		Msg("Staging flow finished")
	return result, nil
}

// selectBest returns the finished run with the lowest validation RMSE. Runs
// are taken in the order the tracker returns them, so on equal RMSE the
// first listed run wins.
func (f *Flow) selectBest(ctx context.Context, exp *tracking.Experiment) (*tracking.Run, error) {
	runs, _, err := f.tracker.SearchRuns(ctx, &tracking.SearchRunsRequest{
		ExperimentIDs: []string{exp.ExperimentID},
		Filter:        FinishedRunsFilter,
		RunViewType:   tracking.ViewActiveOnly,
		MaxResults:    f.cfg.MaxCandidates,
		OrderBy:       []string{"metrics." + SelectionMetric + " ASC"},
	})
	if err != nil {
		return nil, fmt.Errorf("search runs: %w", err)
	}

	finished := make([]tracking.Run, 0, len(runs))
	for i := range runs {
		if runs[i].Info.Status != tracking.RunStatusFinished {
			logging.Ctx(ctx).Warn().
				Str("run_id", runs[i].Info.RunID).
				Str("status", runs[i].Info.Status).
				Msg("Skipping unfinished run")
			continue
		}
		finished = append(finished, runs[i])
	}
	if len(finished) == 0 {
		return nil, fmt.Errorf("%w in experiment %q (id %s)", ErrNoCandidateRuns, exp.Name, exp.ExperimentID)
	}

	logCandidates(ctx, finished)
	return &finished[0], nil
}

func logCandidates(ctx context.Context, runs []tracking.Run) {
	log := logging.Ctx(ctx)
	for i := range runs {
		rmse, ok := runs[i].Metric(SelectionMetric)
		if !ok {
			rmse = math.NaN()
		}
		model, _ := runs[i].Tag(training.TagModel)
		log.Debug().
			Int("rank", i).
			Str("run_id", runs[i].Info.RunID).
			Str("model", model).
			Float64(SelectionMetric, rmse).
			Msg("Candidate run")
	}
}

// ensureRegisteredModel creates name only when the registry reports it
// missing. Any other lookup error is returned.
func (f *Flow) ensureRegisteredModel(ctx context.Context, name string) error {
	_, err := f.tracker.GetRegisteredModel(ctx, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, tracking.ErrNotFound) {
		return fmt.Errorf("get registered model %q: %w", name, err)
	}
	if _, err := f.tracker.CreateRegisteredModel(ctx, name, ""); err != nil {
		return fmt.Errorf("create registered model %q: %w", name, err)
	}
	logging.Ctx(ctx).Info().Str("model", name).Msg("Created registered model")
	return nil
}

// modelSource is the run's artifact URI plus /model, or the path under the
// configured artifact root when the run carries no artifact URI.
func (f *Flow) modelSource(exp *tracking.Experiment, run *tracking.Run) string {
	if uri := strings.TrimSuffix(run.Info.ArtifactURI, "/"); uri != "" {
		return uri + "/model"
	}
	return fmt.Sprintf("%s/%s/%s/artifacts/model", f.artifactRoot, exp.ExperimentID, run.Info.RunID)
}

// promote transitions mv to the configured stage and records the promotion
// in its description.
func (f *Flow) promote(ctx context.Context, exp *tracking.Experiment, mv *tracking.ModelVersion) (*tracking.ModelVersion, error) {
	staged, err := f.tracker.TransitionModelVersionStage(ctx, mv.Name, mv.Version, f.cfg.Stage, false)
	if err != nil {
		return nil, fmt.Errorf("transition version %s to %s: %w", mv.Version, f.cfg.Stage, err)
	}

	desc := Description(f.now(), staged.Version, exp.Name, f.cfg.Stage)
	updated, err := f.tracker.UpdateModelVersion(ctx, staged.Name, staged.Version, desc)
	if err != nil {
		return nil, fmt.Errorf("update version %s description: %w", staged.Version, err)
	}
	return updated, nil
}

// Description is the promotion note set on a staged version.
func Description(at time.Time, version, experiment, stage string) string {
	return fmt.Sprintf("[%s] The model version %s from experiment '%s' was transitioned to %s.",
		at.Format(descriptionTimeLayout), version, experiment, stage)
}

func (f *Flow) publish(ctx context.Context, topic string, ev interface{}) {
	if err := f.events.Publish(ctx, topic, ev); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("Failed to publish event")
	}
}
