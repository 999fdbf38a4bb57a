// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package tracking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ridecast/internal/config"
)

// fakeServer records requests and answers from per-route handlers.
type fakeServer struct {
	mu       sync.Mutex
	requests []recorded
	routes   map[string]http.HandlerFunc
}

type recorded struct {
	Method string
	Path   string
	Query  string
	Body   string
}

func newFakeServer(t *testing.T, routes map[string]http.HandlerFunc) (*fakeServer, *Client) {
	t.Helper()
	fs := &fakeServer{routes: routes}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fs.mu.Lock()
		fs.requests = append(fs.requests, recorded{r.Method, r.URL.Path, r.URL.RawQuery, string(body)})
		fs.mu.Unlock()

		r.Body = io.NopCloser(strings.NewReader(string(body)))
		if h, ok := fs.routes[r.Method+" "+r.URL.Path]; ok {
			h(w, r)
			return
		}
		writeError(w, http.StatusNotFound, CodeResourceDoesNotExist, "no route "+r.URL.Path)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(&config.TrackingConfig{
		URI:                   srv.URL,
		Timeout:               5 * time.Second,
		CircuitBreakerEnabled: true,
	}, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	return fs, c
}

func (fs *fakeServer) calls(method, path string) []recorded {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []recorded
	for _, r := range fs.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"error_code":%q,"message":%q}`, code, msg)
}

func decodeBody(t *testing.T, body string, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(body), v); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
}

func TestNewClient_InvalidURI(t *testing.T) {
	t.Parallel()

	for _, uri := range []string{"", "127.0.0.1:5000", "ftp://host", "http://"} {
		if _, err := NewClient(&config.TrackingConfig{URI: uri}, nil); err == nil {
			t.Errorf("NewClient(%q) expected error", uri)
		}
	}
}

func TestAPIError_Is(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *APIError
		notFound bool
		exists   bool
	}{
		{"mlflow not found", &APIError{StatusCode: 404, Code: CodeResourceDoesNotExist}, true, false},
		{"bare 404", &APIError{StatusCode: 404}, true, false},
		{"not found code on 400", &APIError{StatusCode: 400, Code: CodeResourceDoesNotExist}, true, false},
		{"already exists", &APIError{StatusCode: 400, Code: CodeResourceAlreadyExists}, false, true},
		{"invalid parameter", &APIError{StatusCode: 400, Code: CodeInvalidParameterValue}, false, false},
		{"404 with other code", &APIError{StatusCode: 404, Code: "ENDPOINT_NOT_FOUND"}, false, false},
		{"server error", &APIError{StatusCode: 500}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wrapped := fmt.Errorf("wrapped: %w", tt.err)
			if got := errors.Is(wrapped, ErrNotFound); got != tt.notFound {
				t.Errorf("Is(ErrNotFound) = %v, want %v", got, tt.notFound)
			}
			if got := errors.Is(wrapped, ErrAlreadyExists); got != tt.exists {
				t.Errorf("Is(ErrAlreadyExists) = %v, want %v", got, tt.exists)
			}
		})
	}
}

func TestSetExperiment_CreatesWhenMissing(t *testing.T) {
	t.Parallel()

	fs, c := newFakeServer(t, map[string]http.HandlerFunc{
		"POST /api/2.0/mlflow/experiments/create": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]string{"experiment_id": "7"})
		},
	})

	exp, err := c.SetExperiment(context.Background(), "citibikes-experiment-2026-10-19")
	if err != nil {
		t.Fatalf("SetExperiment: %v", err)
	}
	if exp.ExperimentID != "7" || exp.Name != "citibikes-experiment-2026-10-19" {
		t.Errorf("experiment = %+v", exp)
	}

	gets := fs.calls(http.MethodGet, "/api/2.0/mlflow/experiments/get-by-name")
	if len(gets) != 1 || gets[0].Query != "experiment_name=citibikes-experiment-2026-10-19" {
		t.Errorf("get-by-name calls = %+v", gets)
	}
	creates := fs.calls(http.MethodPost, "/api/2.0/mlflow/experiments/create")
	if len(creates) != 1 {
		t.Fatalf("create calls = %d", len(creates))
	}
	var req map[string]string
	decodeBody(t, creates[0].Body, &req)
	if req["name"] != "citibikes-experiment-2026-10-19" {
		t.Errorf("create body = %v", req)
	}
}

func TestSetExperiment_ExistingExperiment(t *testing.T) {
	t.Parallel()

	fs, c := newFakeServer(t, map[string]http.HandlerFunc{
		"GET /api/2.0/mlflow/experiments/get-by-name": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]interface{}{"experiment": map[string]string{
				"experiment_id": "3", "name": "exp", "artifact_location": "s3://bucket/3",
			}})
		},
	})

	exp, err := c.SetExperiment(context.Background(), "exp")
	if err != nil {
		t.Fatal(err)
	}
	if exp.ExperimentID != "3" || exp.ArtifactLocation != "s3://bucket/3" {
		t.Errorf("experiment = %+v", exp)
	}
	if n := len(fs.calls(http.MethodPost, "/api/2.0/mlflow/experiments/create")); n != 0 {
		t.Errorf("unexpected create calls: %d", n)
	}
}

func TestSetExperiment_ServerErrorIsNotNotFound(t *testing.T) {
	t.Parallel()

	fs, c := newFakeServer(t, map[string]http.HandlerFunc{
		"GET /api/2.0/mlflow/experiments/get-by-name": func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "database locked")
		},
	})

	_, err := c.SetExperiment(context.Background(), "exp")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 {
		t.Fatalf("expected 500 APIError, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("500 must not match ErrNotFound")
	}
	if n := len(fs.calls(http.MethodPost, "/api/2.0/mlflow/experiments/create")); n != 0 {
		t.Errorf("create must not be attempted, got %d calls", n)
	}
}

func TestRunLifecycle(t *testing.T) {
	t.Parallel()

	fs, c := newFakeServer(t, map[string]http.HandlerFunc{
		"POST /api/2.0/mlflow/runs/create": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]interface{}{"run": map[string]interface{}{
				"info": map[string]string{
					"run_id": "abc", "experiment_id": "7", "status": "RUNNING",
					"artifact_uri": "mlflow-artifacts:/7/abc/artifacts",
				},
			}})
		},
		"POST /api/2.0/mlflow/runs/log-batch": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]string{})
		},
		"POST /api/2.0/mlflow/runs/update": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]interface{}{"run_info": map[string]string{"run_id": "abc", "status": "FINISHED"}})
		},
	})
	ctx := context.Background()
	start := time.UnixMilli(1_700_000_000_000)

	run, err := c.CreateRun(ctx, "7", "ridge", start, []Tag{{"Model", "Ridge"}})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if run.Info.RunID != "abc" || run.Info.ArtifactURI != "mlflow-artifacts:/7/abc/artifacts" {
		t.Errorf("run = %+v", run.Info)
	}

	var createReq struct {
		ExperimentID string `json:"experiment_id"`
		RunName      string `json:"run_name"`
		StartTime    int64  `json:"start_time"`
		Tags         []Tag  `json:"tags"`
	}
	decodeBody(t, fs.calls(http.MethodPost, "/api/2.0/mlflow/runs/create")[0].Body, &createReq)
	if createReq.ExperimentID != "7" || createReq.StartTime != 1_700_000_000_000 || len(createReq.Tags) != 1 {
		t.Errorf("create request = %+v", createReq)
	}

	params := make([]Param, 150)
	for i := range params {
		params[i] = Param{Key: fmt.Sprintf("p%d", i), Value: "v"}
	}
	metrics := []Metric{{Key: "rmse_valid", Value: 5.5, Timestamp: 1}}
	if err := c.LogBatch(ctx, "abc", metrics, params, nil); err != nil {
		t.Fatalf("LogBatch: %v", err)
	}
	batches := fs.calls(http.MethodPost, "/api/2.0/mlflow/runs/log-batch")
	if len(batches) != 2 {
		t.Fatalf("log-batch calls = %d, want 2", len(batches))
	}
	var first, second struct {
		RunID   string   `json:"run_id"`
		Metrics []Metric `json:"metrics"`
		Params  []Param  `json:"params"`
	}
	decodeBody(t, batches[0].Body, &first)
	decodeBody(t, batches[1].Body, &second)
	if first.RunID != "abc" || len(first.Params) != 100 || len(first.Metrics) != 1 {
		t.Errorf("first batch: run %q, %d params, %d metrics", first.RunID, len(first.Params), len(first.Metrics))
	}
	if len(second.Params) != 50 || len(second.Metrics) != 0 {
		t.Errorf("second batch: %d params, %d metrics", len(second.Params), len(second.Metrics))
	}

	info, err := c.UpdateRun(ctx, "abc", RunStatusFinished, start.Add(time.Minute))
	if err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}
	if info.Status != RunStatusFinished {
		t.Errorf("status = %q", info.Status)
	}
}

func TestSearchRuns(t *testing.T) {
	t.Parallel()

	fs, c := newFakeServer(t, map[string]http.HandlerFunc{
		"POST /api/2.0/mlflow/runs/search": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"runs":[
				{"info":{"run_id":"r1","experiment_id":"7","status":"FINISHED"},
				 "data":{"metrics":[{"key":"rmse_valid","value":4.2}],"tags":[{"key":"Model","value":"Ridge"}]}},
				{"info":{"run_id":"r2","experiment_id":"7","status":"FINISHED"},
				 "data":{"metrics":[{"key":"rmse_valid","value":5.1}]}}
			],"next_page_token":"tok"}`)
		},
	})

	runs, next, err := c.SearchRuns(context.Background(), &SearchRunsRequest{
		ExperimentIDs: []string{"7"},
		Filter:        "metrics.rmse_valid < 10",
		RunViewType:   ViewActiveOnly,
		MaxResults:    5,
		OrderBy:       []string{"metrics.rmse_valid ASC"},
	})
	if err != nil {
		t.Fatalf("SearchRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].Info.RunID != "r1" || next != "tok" {
		t.Fatalf("runs = %+v, next = %q", runs, next)
	}
	if v, ok := runs[0].Metric("rmse_valid"); !ok || v != 4.2 {
		t.Errorf("rmse_valid = %v, %v", v, ok)
	}
	if v, ok := runs[0].Tag("Model"); !ok || v != "Ridge" {
		t.Errorf("Model tag = %q, %v", v, ok)
	}
	if _, ok := runs[1].Metric("mae_valid"); ok {
		t.Error("unexpected mae_valid")
	}

	var req SearchRunsRequest
	decodeBody(t, fs.calls(http.MethodPost, "/api/2.0/mlflow/runs/search")[0].Body, &req)
	if req.MaxResults != 5 || req.RunViewType != ViewActiveOnly || req.OrderBy[0] != "metrics.rmse_valid ASC" {
		t.Errorf("search request = %+v", req)
	}
}

func TestRegistryCalls(t *testing.T) {
	t.Parallel()

	version := func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]interface{}{"model_version": map[string]string{
			"name": "CITIBIKESDurationModel-r1", "version": "2", "current_stage": "Staging",
		}})
	}
	fs, c := newFakeServer(t, map[string]http.HandlerFunc{
		"POST /api/2.0/mlflow/registered-models/create": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]interface{}{"registered_model": map[string]string{"name": "CITIBIKESDurationModel-r1"}})
		},
		"POST /api/2.0/mlflow/model-versions/create":           version,
		"POST /api/2.0/mlflow/model-versions/transition-stage": version,
		"PATCH /api/2.0/mlflow/model-versions/update":          version,
	})
	ctx := context.Background()
	name := "CITIBIKESDurationModel-r1"

	if _, err := c.GetRegisteredModel(ctx, name); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetRegisteredModel: expected ErrNotFound, got %v", err)
	}
	if _, err := c.CreateRegisteredModel(ctx, name, ""); err != nil {
		t.Fatalf("CreateRegisteredModel: %v", err)
	}
	mv, err := c.CreateModelVersion(ctx, name, "s3://bucket/7/r1/artifacts/model", "r1")
	if err != nil {
		t.Fatalf("CreateModelVersion: %v", err)
	}
	if mv.VersionNumber() != 2 {
		t.Errorf("version = %q", mv.Version)
	}
	if _, err := c.TransitionModelVersionStage(ctx, name, "2", StageStaging, false); err != nil {
		t.Fatalf("TransitionModelVersionStage: %v", err)
	}
	if _, err := c.UpdateModelVersion(ctx, name, "2", "promoted"); err != nil {
		t.Fatalf("UpdateModelVersion: %v", err)
	}

	var transition map[string]interface{}
	decodeBody(t, fs.calls(http.MethodPost, "/api/2.0/mlflow/model-versions/transition-stage")[0].Body, &transition)
	if transition["stage"] != "Staging" || transition["archive_existing_versions"] != false || transition["version"] != "2" {
		t.Errorf("transition request = %v", transition)
	}

	var create map[string]string
	decodeBody(t, fs.calls(http.MethodPost, "/api/2.0/mlflow/model-versions/create")[0].Body, &create)
	if create["source"] != "s3://bucket/7/r1/artifacts/model" || create["run_id"] != "r1" {
		t.Errorf("create version request = %v", create)
	}
}

func TestArtifactPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		uri     string
		want    string
		wantErr bool
	}{
		{"mlflow-artifacts:/7/abc/artifacts", "7/abc/artifacts", false},
		{"mlflow-artifacts://tracker:5000/7/abc/artifacts", "7/abc/artifacts", false},
		{"s3://mlflow-models-artifact-store-cmd/7/abc/artifacts/model", "7/abc/artifacts/model", false},
		{"gs://bucket/x/", "x", false},
		{"s3:///no-bucket", "", true},
		{"file:///tmp/model", "", true},
		{"/local/path", "", true},
		{"mlflow-artifacts:/", "", true},
	}
	for _, tt := range tests {
		got, err := ArtifactPath(tt.uri)
		if (err != nil) != tt.wantErr {
			t.Errorf("ArtifactPath(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrUnsupportedArtifactURI) {
			t.Errorf("ArtifactPath(%q) error %v does not wrap ErrUnsupportedArtifactURI", tt.uri, err)
		}
		if got != tt.want {
			t.Errorf("ArtifactPath(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestArtifactsRoundTrip(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	store := map[string][]byte{}
	handler := func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		key := strings.TrimPrefix(r.URL.Path, artifactProxyPrefix)
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			store[key] = body
			writeJSON(w, map[string]string{})
		case http.MethodGet:
			data, ok := store[key]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write(data)
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, artifactProxyPrefix) {
			handler(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c, err := NewClient(&config.TrackingConfig{URI: srv.URL}, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	payload := []byte(`{"format_version":1}`)

	if err := c.UploadArtifact(ctx, "mlflow-artifacts:/7/abc/artifacts", "model/model.json", payload); err != nil {
		t.Fatalf("UploadArtifact: %v", err)
	}
	if _, ok := store["7/abc/artifacts/model/model.json"]; !ok {
		t.Fatalf("artifact stored under %v", store)
	}

	got, err := c.DownloadArtifact(ctx, "s3://any-bucket/7/abc/artifacts/model", "model.json")
	if err != nil {
		t.Fatalf("DownloadArtifact: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("downloaded %q", got)
	}

	if _, err := c.DownloadArtifact(ctx, "s3://b/7/abc/artifacts", "missing.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing artifact, got %v", err)
	}
	if err := c.UploadArtifact(ctx, "mlflow-artifacts:/7/abc/artifacts", "../../other/x", payload); err == nil {
		t.Error("expected error for path escaping the artifact root")
	}
}

func TestCircuitBreaker_OpensOnServerErrors(t *testing.T) {
	t.Parallel()

	fs, c := newFakeServer(t, map[string]http.HandlerFunc{
		"GET /api/2.0/mlflow/registered-models/get": func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusServiceUnavailable, "TEMPORARILY_UNAVAILABLE", "try later")
		},
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := c.GetRegisteredModel(ctx, "m"); errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("circuit opened early at request %d", i)
		}
	}
	_, err := c.GetRegisteredModel(ctx, "m")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if n := len(fs.calls(http.MethodGet, "/api/2.0/mlflow/registered-models/get")); n != 5 {
		t.Errorf("server saw %d requests, want 5", n)
	}
}

func TestCircuitBreaker_IgnoresNotFound(t *testing.T) {
	t.Parallel()

	_, c := newFakeServer(t, nil)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := c.GetRegisteredModel(ctx, "m")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("request %d: expected ErrNotFound, got %v", i, err)
		}
	}
}

func TestRateLimiter_RespectsContext(t *testing.T) {
	t.Parallel()

	_, c := newFakeServer(t, nil)
	c2, err := NewClient(&config.TrackingConfig{URI: c.URI(), RequestsPerSecond: 0.001, Burst: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	// The first request consumes the burst.
	_ = c2.Ping(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c2.Ping(ctx); err == nil {
		t.Fatal("expected rate limiter error")
	}
}
