// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package events

import (
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/ridecast/internal/logging"
)

// Recorder consumes flow events and keeps the most recent of each kind.
// The API reports them on /health.
type Recorder struct {
	mu           sync.RWMutex
	lastRun      *RunCompleted
	lastStaged   *ModelStaged
	lastFlows    map[string]FlowFinished
	runsObserved int
}

// Snapshot is a copy of the recorder state.
type Snapshot struct {
	LastRun      *RunCompleted           `json:"last_run,omitempty"`
	LastStaged   *ModelStaged            `json:"last_staged,omitempty"`
	Flows        map[string]FlowFinished `json:"flows,omitempty"`
	RunsObserved int                     `json:"runs_observed"`
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{lastFlows: make(map[string]FlowFinished)}
}

// Register attaches the recorder's consumers to r.
func (rec *Recorder) Register(r *Router) {
	r.AddConsumer("recorder-runs", TopicRunCompleted, rec.handleRun)
	r.AddConsumer("recorder-staged", TopicModelStaged, rec.handleStaged)
	r.AddConsumer("recorder-flows", TopicFlowFinished, rec.handleFlow)
}

func (rec *Recorder) handleRun(msg *message.Message) error {
	ev, err := Decode[RunCompleted](msg)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	rec.lastRun = &ev
	rec.runsObserved++
	rec.mu.Unlock()
	return nil
}

func (rec *Recorder) handleStaged(msg *message.Message) error {
	ev, err := Decode[ModelStaged](msg)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	rec.lastStaged = &ev
	rec.mu.Unlock()

	logging.Info().
		Str("model", ev.ModelName).
		Str("version", ev.Version).
		Str("run_id", ev.RunID).
		Msg("Observed staged model")
	return nil
}

func (rec *Recorder) handleFlow(msg *message.Message) error {
	ev, err := Decode[FlowFinished](msg)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	rec.lastFlows[ev.Flow] = ev
	rec.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the recorded state.
func (rec *Recorder) Snapshot() Snapshot {
	rec.mu.RLock()
	defer rec.mu.RUnlock()

	s := Snapshot{RunsObserved: rec.runsObserved}
	if rec.lastRun != nil {
		run := *rec.lastRun
		s.LastRun = &run
	}
	if rec.lastStaged != nil {
		staged := *rec.lastStaged
		s.LastStaged = &staged
	}
	if len(rec.lastFlows) > 0 {
		s.Flows = make(map[string]FlowFinished, len(rec.lastFlows))
		for k, v := range rec.lastFlows {
			s.Flows[k] = v
		}
	}
	return s
}
