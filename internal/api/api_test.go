// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ridecast/internal/events"
	"github.com/tomtom215/ridecast/internal/serving"
	"github.com/tomtom215/ridecast/internal/trip"
)

type stubPredictor struct {
	err   error
	rides []trip.Ride
}

func (s *stubPredictor) Predict(_ context.Context, ride *trip.Ride) (*serving.Prediction, error) {
	s.rides = append(s.rides, *ride)
	if s.err != nil {
		return nil, s.err
	}
	// Exercise the real validation path.
	if _, err := trip.PrepareRide(ride); err != nil {
		return nil, err
	}
	return &serving.Prediction{Duration: 13.75, ModelVersion: "abc123"}, nil
}

func (s *stubPredictor) Model() *serving.Model {
	return &serving.Model{
		Version:   "abc123",
		Algorithm: "ridge",
		Source:    "s3://bucket/7/abc123/artifacts/model",
		LoadedAt:  time.Date(2022, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubFlows struct{}

func (stubFlows) Snapshot() events.Snapshot {
	return events.Snapshot{
		RunsObserved: 3,
		LastStaged:   &events.ModelStaged{ModelName: "CITIBIKESDurationModel-abc123", Version: "2"},
	}
}

const validRide = `{
	"start_station_id": "31117",
	"end_station_id": 31602,
	"start_lat": 38.9, "start_lng": -77.03,
	"end_lat": 38.92, "end_lng": -77.01,
	"rideable_type": "classic_bike"
}`

func newTestServer(p Predictor, flows FlowStatus, tracker Pinger, cfg *ChiMiddlewareConfig) http.Handler {
	return NewRouter(NewHandler(p, flows, tracker), NewChiMiddleware(cfg), 5*time.Second).Setup()
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return resp
}

func TestPredict(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubPredictor{}, nil, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(validRide))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got["duration"] != 13.75 || got["model_version"] != "abc123" {
		t.Errorf("body = %v", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestPredictErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		predictErr error
		wantStatus int
		wantCode   string
	}{
		{"malformed json", `{"start_lat":`, nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"latitude out of range", strings.Replace(validRide, "38.9,", "138.9,", 1), nil, http.StatusBadRequest, ErrCodeValidationFailed},
		{"missing coordinate", `{"start_station_id":"1","end_station_id":"2","start_lat":38.9,"start_lng":-77,"end_lat":38.9}`, nil, http.StatusBadRequest, ErrCodeValidationFailed},
		{"model failure", validRide, errors.New("boom"), http.StatusInternalServerError, ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(&stubPredictor{err: tt.predictErr}, nil, nil, nil)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			resp := decodeEnvelope(t, rec)
			if resp.Status != "error" || resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("envelope = %+v", resp)
			}
			if tt.predictErr != nil && strings.Contains(rec.Body.String(), "boom") {
				t.Error("internal error leaked to client")
			}
		})
	}
}

func TestPredictRateLimit(t *testing.T) {
	t.Parallel()

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	srv := newTestServer(&stubPredictor{}, nil, nil, cfg)

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(validRide))
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		tracker    Pinger
		wantStatus string
	}{
		{"no tracker", nil, "healthy"},
		{"tracker up", stubPinger{}, "healthy"},
		{"tracker down", stubPinger{err: errors.New("refused")}, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(&stubPredictor{}, stubFlows{}, tt.tracker, nil)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var resp struct {
				Status string       `json:"status"`
				Data   HealthStatus `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != "success" || resp.Data.Status != tt.wantStatus {
				t.Errorf("status = %s/%s", resp.Status, resp.Data.Status)
			}
			if resp.Data.ModelVersion != "abc123" || resp.Data.ModelLoadedAt.IsZero() {
				t.Errorf("model = %+v", resp.Data)
			}
			if resp.Data.Flows == nil || resp.Data.Flows.RunsObserved != 3 {
				t.Errorf("flows = %+v", resp.Data.Flows)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubPredictor{}, nil, nil, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRoutingErrors(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubPredictor{}, nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound || decodeEnvelope(t, rec).Error.Code != ErrCodeNotFound {
		t.Errorf("unknown route: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predict", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /predict: %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"https://dashboard.example"}
	srv := newTestServer(&stubPredictor{}, nil, nil, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dashboard.example" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
