// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package tracking

import (
	"context"
	"net/http"
	"net/url"
)

type modelVersionResponse struct {
	ModelVersion ModelVersion `json:"model_version"`
}

type registeredModelResponse struct {
	RegisteredModel RegisteredModel `json:"registered_model"`
}

// GetRegisteredModel returns the named registered model, or an error
// matching ErrNotFound.
func (c *Client) GetRegisteredModel(ctx context.Context, name string) (*RegisteredModel, error) {
	var resp registeredModelResponse
	if err := c.call(ctx, http.MethodGet, "registered-models/get", url.Values{"name": {name}}, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.RegisteredModel, nil
}

// CreateRegisteredModel registers a new model name.
func (c *Client) CreateRegisteredModel(ctx context.Context, name, description string) (*RegisteredModel, error) {
	req := struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}{name, description}
	var resp registeredModelResponse
	if err := c.call(ctx, http.MethodPost, "registered-models/create", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp.RegisteredModel, nil
}

// CreateModelVersion adds a version of name pointing at source.
func (c *Client) CreateModelVersion(ctx context.Context, name, source, runID string) (*ModelVersion, error) {
	req := struct {
		Name   string `json:"name"`
		Source string `json:"source"`
		RunID  string `json:"run_id,omitempty"`
	}{name, source, runID}
	var resp modelVersionResponse
	if err := c.call(ctx, http.MethodPost, "model-versions/create", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp.ModelVersion, nil
}

// TransitionModelVersionStage moves a version to stage. When
// archiveExisting is set, other versions in that stage are archived.
func (c *Client) TransitionModelVersionStage(ctx context.Context, name, version, stage string, archiveExisting bool) (*ModelVersion, error) {
	req := struct {
		Name                    string `json:"name"`
		Version                 string `json:"version"`
		Stage                   string `json:"stage"`
		ArchiveExistingVersions bool   `json:"archive_existing_versions"`
	}{name, version, stage, archiveExisting}
	var resp modelVersionResponse
	if err := c.call(ctx, http.MethodPost, "model-versions/transition-stage", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp.ModelVersion, nil
}

// UpdateModelVersion replaces a version's description.
func (c *Client) UpdateModelVersion(ctx context.Context, name, version, description string) (*ModelVersion, error) {
	req := struct {
		Name        string `json:"name"`
		Version     string `json:"version"`
		Description string `json:"description"`
	}{name, version, description}
	var resp modelVersionResponse
	if err := c.call(ctx, http.MethodPatch, "model-versions/update", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp.ModelVersion, nil
}
