// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/ridecast/internal/logging"
)

// Topic names, before prefixing.
const (
	TopicRunCompleted = "run.completed"
	TopicModelStaged  = "model.staged"
	TopicFlowFinished = "flow.finished"
)

// RunCompleted is published after a training run is marked finished.
type RunCompleted struct {
	ExperimentID   string    `json:"experiment_id"`
	ExperimentName string    `json:"experiment_name"`
	RunID          string    `json:"run_id"`
	Algorithm      string    `json:"algorithm"`
	RMSEValid      float64   `json:"rmse_valid"`
	MAEValid       float64   `json:"mae_valid"`
	Timestamp      time.Time `json:"timestamp"`
}

// ModelStaged is published after a model version is transitioned.
type ModelStaged struct {
	ModelName    string    `json:"model_name"`
	Version      string    `json:"version"`
	Stage        string    `json:"stage"`
	RunID        string    `json:"run_id"`
	ExperimentID string    `json:"experiment_id"`
	RMSEValid    float64   `json:"rmse_valid"`
	Timestamp    time.Time `json:"timestamp"`
}

// FlowFinished is published when a flow execution ends.
type FlowFinished struct {
	Flow          string        `json:"flow"`
	Status        string        `json:"status"` // "success" or "failure"
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"duration_ns"`
	CorrelationID string        `json:"correlation_id,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// Publisher publishes typed events. *Bus implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event interface{}) error
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, string, interface{}) error { return nil }

// Decode unmarshals a message payload into T.
func Decode[T any](msg *message.Message) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("decode %T from message %s: %w", v, msg.UUID, err)
	}
	return v, nil
}

// NewFlowFinished builds the event for a flow that ran from start to end
// and returned err.
func NewFlowFinished(ctx context.Context, flow string, start, end time.Time, err error) FlowFinished {
	ev := FlowFinished{
		Flow:          flow,
		Status:        "success",
		Duration:      end.Sub(start),
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		Timestamp:     end.UTC(),
	}
	if err != nil {
		ev.Status = "failure"
		ev.Error = err.Error()
	}
	return ev
}
