// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package tracking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// GetExperimentByName returns the named experiment, or an error matching
// ErrNotFound.
func (c *Client) GetExperimentByName(ctx context.Context, name string) (*Experiment, error) {
	var resp struct {
		Experiment Experiment `json:"experiment"`
	}
	q := url.Values{"experiment_name": {name}}
	if err := c.call(ctx, http.MethodGet, "experiments/get-by-name", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Experiment, nil
}

// CreateExperiment creates an experiment and returns its ID. An empty
// artifactLocation uses the server default.
func (c *Client) CreateExperiment(ctx context.Context, name, artifactLocation string) (string, error) {
	req := struct {
		Name             string `json:"name"`
		ArtifactLocation string `json:"artifact_location,omitempty"`
	}{name, artifactLocation}
	var resp struct {
		ExperimentID string `json:"experiment_id"`
	}
	if err := c.call(ctx, http.MethodPost, "experiments/create", nil, req, &resp); err != nil {
		return "", err
	}
	return resp.ExperimentID, nil
}

// SetExperiment returns the named experiment, creating it when missing.
func (c *Client) SetExperiment(ctx context.Context, name string) (*Experiment, error) {
	exp, err := c.GetExperimentByName(ctx, name)
	if err == nil {
		return exp, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get experiment %q: %w", name, err)
	}

	id, err := c.CreateExperiment(ctx, name, "")
	switch {
	case err == nil:
		return &Experiment{ExperimentID: id, Name: name}, nil
	case errors.Is(err, ErrAlreadyExists):
		// Created concurrently by another flow run.
		return c.GetExperimentByName(ctx, name)
	default:
		return nil, fmt.Errorf("create experiment %q: %w", name, err)
	}
}
