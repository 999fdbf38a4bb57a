// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ridecast/internal/events"
	"github.com/tomtom215/ridecast/internal/serving"
	"github.com/tomtom215/ridecast/internal/trip"
	"github.com/tomtom215/ridecast/internal/validation"
)

// maxPredictBody bounds /predict request bodies.
const maxPredictBody = 64 << 10

// Predictor answers ride predictions.
type Predictor interface {
	Predict(ctx context.Context, ride *trip.Ride) (*serving.Prediction, error)
	Model() *serving.Model
}

// FlowStatus reports recent flow activity.
type FlowStatus interface {
	Snapshot() events.Snapshot
}

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the API routes.
type Handler struct {
	predictor Predictor
	flows     FlowStatus
	tracker   Pinger
	startTime time.Time
}

// NewHandler creates a handler. flows and tracker may be nil.
func NewHandler(predictor Predictor, flows FlowStatus, tracker Pinger) *Handler {
	return &Handler{
		predictor: predictor,
		flows:     flows,
		tracker:   tracker,
		startTime: time.Now(),
	}
}

// Predict handles POST /predict.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var ride trip.Ride
	dec := json.NewDecoder(io.LimitReader(r.Body, maxPredictBody))
	if err := dec.Decode(&ride); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body", nil, err)
		return
	}

	pred, err := h.predictor.Predict(r.Context(), &ride)
	if err != nil {
		var ve *validation.RequestValidationError
		switch {
		case errors.As(err, &ve):
			apiErr := ve.ToAPIError()
			respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		case errors.Is(err, trip.ErrMissingCoordinates):
			respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error(), nil, nil)
		default:
			respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Prediction failed", nil, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, pred)
}

// HealthStatus is the /health payload.
type HealthStatus struct {
	Status            string           `json:"status"`
	ModelVersion      string           `json:"model_version"`
	ModelAlgorithm    string           `json:"model_algorithm"`
	ModelSource       string           `json:"model_source"`
	ModelLoadedAt     time.Time        `json:"model_loaded_at"`
	TrackingReachable *bool            `json:"tracking_reachable,omitempty"`
	UptimeSeconds     float64          `json:"uptime_seconds"`
	Flows             *events.Snapshot `json:"flows,omitempty"`
}

// healthPingTimeout bounds the tracker check.
const healthPingTimeout = 2 * time.Second

// Health handles GET /health. An unreachable tracker degrades the status but
// does not fail the check: serving does not depend on it once loaded.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	model := h.predictor.Model()
	status := HealthStatus{
		Status:         "healthy",
		ModelVersion:   model.Version,
		ModelAlgorithm: model.Algorithm,
		ModelSource:    model.Source,
		ModelLoadedAt:  model.LoadedAt,
		UptimeSeconds:  time.Since(h.startTime).Seconds(),
	}

	if h.tracker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		reachable := h.tracker.Ping(ctx) == nil
		cancel()
		status.TrackingReachable = &reachable
		if !reachable {
			status.Status = "degraded"
		}
	}

	if h.flows != nil {
		snap := h.flows.Snapshot()
		status.Flows = &snap
	}

	respondJSON(w, r, http.StatusOK, status)
}

// NotFound handles unmatched routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil, nil)
}

// MethodNotAllowed handles known routes with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil, nil)
}
