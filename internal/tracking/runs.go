// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package tracking

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Per-request limits of runs/log-batch.
const (
	maxBatchMetrics = 1000
	maxBatchParams  = 100
	maxBatchTags    = 100
)

// CreateRun starts a run in experimentID.
func (c *Client) CreateRun(ctx context.Context, experimentID, runName string, start time.Time, tags []Tag) (*Run, error) {
	req := struct {
		ExperimentID string `json:"experiment_id"`
		RunName      string `json:"run_name,omitempty"`
		StartTime    int64  `json:"start_time"`
		Tags         []Tag  `json:"tags,omitempty"`
	}{experimentID, runName, Millis(start), tags}
	var resp struct {
		Run Run `json:"run"`
	}
	if err := c.call(ctx, http.MethodPost, "runs/create", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Run, nil
}

// LogBatch logs metrics, params and tags to a run, splitting the payload
// into as many requests as the server limits require.
func (c *Client) LogBatch(ctx context.Context, runID string, metrics []Metric, params []Param, tags []Tag) error {
	for len(metrics) > 0 || len(params) > 0 || len(tags) > 0 {
		var m []Metric
		var p []Param
		var t []Tag
		m, metrics = splitAt(metrics, maxBatchMetrics)
		p, params = splitAt(params, maxBatchParams)
		t, tags = splitAt(tags, maxBatchTags)

		req := struct {
			RunID   string   `json:"run_id"`
			Metrics []Metric `json:"metrics,omitempty"`
			Params  []Param  `json:"params,omitempty"`
			Tags    []Tag    `json:"tags,omitempty"`
		}{runID, m, p, t}
		if err := c.call(ctx, http.MethodPost, "runs/log-batch", nil, req, nil); err != nil {
			return err
		}
	}
	return nil
}

func splitAt[T any](s []T, n int) (head, tail []T) {
	if len(s) <= n {
		return s, nil
	}
	return s[:n], s[n:]
}

// UpdateRun sets a run's terminal status and end time.
func (c *Client) UpdateRun(ctx context.Context, runID, status string, end time.Time) (*RunInfo, error) {
	req := struct {
		RunID   string `json:"run_id"`
		Status  string `json:"status"`
		EndTime int64  `json:"end_time"`
	}{runID, status, Millis(end)}
	var resp struct {
		RunInfo RunInfo `json:"run_info"`
	}
	if err := c.call(ctx, http.MethodPost, "runs/update", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp.RunInfo, nil
}

// GetRun fetches one run.
func (c *Client) GetRun(ctx context.Context, runID string) (*Run, error) {
	var resp struct {
		Run Run `json:"run"`
	}
	if err := c.call(ctx, http.MethodGet, "runs/get", url.Values{"run_id": {runID}}, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Run, nil
}

// SearchRuns returns one page of runs in the order requested.
func (c *Client) SearchRuns(ctx context.Context, req *SearchRunsRequest) ([]Run, string, error) {
	var resp struct {
		Runs          []Run  `json:"runs"`
		NextPageToken string `json:"next_page_token"`
	}
	if err := c.call(ctx, http.MethodPost, "runs/search", nil, req, &resp); err != nil {
		return nil, "", err
	}
	return resp.Runs, resp.NextPageToken, nil
}
