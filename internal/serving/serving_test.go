// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package serving

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/ridecast/internal/config"
	"github.com/tomtom215/ridecast/internal/ml"
	"github.com/tomtom215/ridecast/internal/trip"
	"github.com/tomtom215/ridecast/internal/validation"
)

func ptr(f float64) *float64 { return &f }

func testRide() *trip.Ride {
	return &trip.Ride{
		StartStationID: "31117",
		EndStationID:   "31602",
		StartLat:       ptr(38.9),
		StartLng:       ptr(-77.03),
		EndLat:         ptr(38.92),
		EndLng:         ptr(-77.01),
		RideableType:   "classic_bike",
	}
}

func fittedPipeline(t *testing.T) *ml.Pipeline {
	t.Helper()

	reg, err := ml.NewRegressor(ml.AlgorithmRidge, ml.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	pipe := ml.NewPipeline(reg)

	var (
		samples []ml.Sample
		y       []float64
	)
	for i := 0; i < 30; i++ {
		d := 0.5 + float64(i%6)*0.5
		samples = append(samples, trip.Features{
			RideableType: "classic_bike",
			TripDistance: d,
			StartEndID:   []string{"31117_31602", "31200_31201"}[i%2],
		}.Sample())
		y = append(y, 4+6*d)
	}
	if err := pipe.Fit(context.Background(), samples, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	return pipe
}

func marshalled(t *testing.T) []byte {
	t.Helper()
	data, err := ml.MarshalPipeline(fittedPipeline(t))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestLRUCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := NewLRUCache(2, time.Minute)
	_ = c.Set(ctx, "a", 1)
	_ = c.Set(ctx, "b", 2)

	if v, ok, _ := c.Get(ctx, "a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v", v, ok)
	}
	// "b" is now least recently used.
	_ = c.Set(ctx, "c", 3)
	if _, ok, _ := c.Get(ctx, "b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok, _ := c.Get(ctx, "c"); !ok {
		t.Error("c should be present")
	}

	_ = c.Set(ctx, "a", 10)
	if v, _, _ := c.Get(ctx, "a"); v != 10 {
		t.Errorf("updated a = %v", v)
	}

	hits, misses, size := c.Stats()
	if hits != 3 || misses != 1 || size != 2 {
		t.Errorf("Stats() = %d, %d, %d", hits, misses, size)
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache(10, time.Minute)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "a", 1)
	_ = c.Set(ctx, "b", 2)
	now = now.Add(30 * time.Second)
	_ = c.Set(ctx, "c", 3)

	now = now.Add(45 * time.Second)
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Error("a should have expired")
	}
	if removed := c.CleanupExpired(); removed != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

// sameCellRides returns two rides between the same stations whose endpoints
// share geohash cells at precision 7 but whose distances differ.
func sameCellRides() (a, b *trip.Ride) {
	a = testRide()
	a.StartLat, a.StartLng = ptr(38.92333), ptr(-77.0352)
	a.EndLat, a.EndLng = ptr(38.9308), ptr(-77.0315)

	b = testRide()
	b.StartLat, b.StartLng = ptr(38.92390), ptr(-77.0360)
	b.EndLat, b.EndLng = ptr(38.9302), ptr(-77.0308)
	return a, b
}

func keyFor(t *testing.T, version string, ride *trip.Ride) string {
	t.Helper()
	f, err := trip.PrepareRide(ride)
	if err != nil {
		t.Fatalf("PrepareRide() error = %v", err)
	}
	return CacheKey(version, ride, f, 7)
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	ride := testRide()
	key := keyFor(t, "run1", ride)
	parts := strings.Split(key, ":")
	if len(parts) != 7 || parts[0] != "pred" || parts[1] != "run1" || parts[2] != "classic_bike" {
		t.Fatalf("CacheKey() = %q", key)
	}
	if len(parts[3]) != 7 || len(parts[4]) != 7 {
		t.Errorf("cells = %q, %q", parts[3], parts[4])
	}
	if parts[5] != "31117_31602" {
		t.Errorf("station pair = %q", parts[5])
	}
	if parts[6] == "" {
		t.Error("distance missing from key")
	}

	if keyFor(t, "run1", testRide()) != key {
		t.Error("identical rides should share the cache key")
	}
	if keyFor(t, "run2", ride) == key {
		t.Error("model version must be part of the key")
	}
}

func TestCacheKeySameCellsDifferentDistance(t *testing.T) {
	t.Parallel()

	a, b := sameCellRides()
	ka, kb := keyFor(t, "run1", a), keyFor(t, "run1", b)

	pa, pb := strings.Split(ka, ":"), strings.Split(kb, ":")
	if pa[3] != pb[3] || pa[4] != pb[4] {
		t.Fatalf("rides should share cells: %q vs %q", ka, kb)
	}
	if ka == kb {
		t.Errorf("rides with different distances share key %q", ka)
	}
}

func TestNewPredictionCache(t *testing.T) {
	t.Parallel()

	c, err := NewPredictionCache(context.Background(), &config.CacheConfig{Backend: "none"})
	if err != nil || c != nil {
		t.Errorf("none backend = %v, %v", c, err)
	}
	c, err = NewPredictionCache(context.Background(), &config.CacheConfig{Backend: "memory", Capacity: 5})
	if err != nil || c.Name() != "memory" {
		t.Errorf("memory backend = %v, %v", c, err)
	}
	if _, err := NewPredictionCache(context.Background(), &config.CacheConfig{Backend: "memcached"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestBadgerArtifactCache(t *testing.T) {
	t.Parallel()

	for _, dir := range []string{"", t.TempDir()} {
		c, err := OpenBadgerArtifactCache(dir)
		if err != nil {
			t.Fatalf("OpenBadgerArtifactCache(%q) error = %v", dir, err)
		}

		if _, ok, err := c.Get("s3://b/1/r/artifacts/model/model.json"); ok || err != nil {
			t.Errorf("Get(missing) = %v, %v", ok, err)
		}
		if err := c.Put("s3://b/1/r/artifacts/model/model.json", []byte(`{"x":1}`)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		data, ok, err := c.Get("s3://b/1/r/artifacts/model/model.json")
		if err != nil || !ok || string(data) != `{"x":1}` {
			t.Errorf("Get() = %q, %v, %v", data, ok, err)
		}
		if err := c.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}
}

func TestModelSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		serving config.ServingConfig
		want    string
		wantErr bool
	}{
		{"explicit", config.ServingConfig{ModelSource: "/models/ridge/"}, "/models/ridge", false},
		{"run", config.ServingConfig{RunID: "abc", ExperimentID: "7"}, "s3://mlflow-models-artifact-store-cmd/7/abc/artifacts/model", false},
		{"missing experiment", config.ServingConfig{RunID: "abc"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			cfg.Serving = tt.serving
			got, err := ModelSource(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if tt.wantErr && !errors.Is(err, ErrNoModelSource) {
				t.Errorf("err = %v, want ErrNoModelSource", err)
			}
			if got != tt.want {
				t.Errorf("ModelSource() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsRemote(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"s3://bucket/1/r/artifacts/model":     true,
		"mlflow-artifacts:/1/r/artifacts/mod": true,
		"gs://bucket/x":                       true,
		"file:///models/ridge":                false,
		"/models/ridge":                       false,
		"models/ridge":                        false,
	}
	for src, want := range tests {
		if got := isRemote(src); got != want {
			t.Errorf("isRemote(%q) = %v, want %v", src, got, want)
		}
	}
}

type fakeFetcher struct {
	mu    sync.Mutex
	data  []byte
	calls int
}

func (f *fakeFetcher) DownloadArtifact(_ context.Context, uri, rel string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if rel != ModelFile || !strings.HasPrefix(uri, "s3://") {
		return nil, errors.New("unexpected artifact request " + uri + " " + rel)
	}
	return f.data, nil
}

func TestLoaderRemoteUsesCache(t *testing.T) {
	t.Parallel()

	cache, err := OpenBadgerArtifactCache("")
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	fetcher := &fakeFetcher{data: marshalled(t)}
	loader := NewLoader(fetcher, cache)
	src := "s3://mlflow-models-artifact-store-cmd/7/abc/artifacts/model"

	for i := 0; i < 2; i++ {
		m, err := loader.Load(context.Background(), src, "abc")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if m.Version != "abc" || m.Algorithm != ml.AlgorithmRidge || m.Source != src {
			t.Errorf("model = %+v", m)
		}
	}
	if fetcher.calls != 1 {
		t.Errorf("downloads = %d, want 1", fetcher.calls)
	}
}

func TestLoaderLocal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ModelFile), marshalled(t), 0o600); err != nil {
		t.Fatal(err)
	}
	loader := NewLoader(nil, nil)

	for _, src := range []string{dir, filepath.Join(dir, ModelFile), "file://" + dir} {
		if _, err := loader.Load(context.Background(), src, "local"); err != nil {
			t.Errorf("Load(%q) error = %v", src, err)
		}
	}
	if _, err := loader.Load(context.Background(), filepath.Join(dir, "missing"), "x"); err == nil {
		t.Error("expected error for missing source")
	}
	if _, err := loader.Load(context.Background(), "s3://b/m", "x"); err == nil {
		t.Error("expected error for remote source without fetcher")
	}
}

type countingCache struct {
	*LRUCache
	getErr error
	sets   int
}

func (c *countingCache) Get(ctx context.Context, key string) (float64, bool, error) {
	if c.getErr != nil {
		return 0, false, c.getErr
	}
	return c.LRUCache.Get(ctx, key)
}

func (c *countingCache) Set(ctx context.Context, key string, v float64) error {
	c.sets++
	return c.LRUCache.Set(ctx, key, v)
}

func TestPredictor(t *testing.T) {
	t.Parallel()

	model := &Model{Pipeline: fittedPipeline(t), Version: "abc", Algorithm: ml.AlgorithmRidge}
	cache := &countingCache{LRUCache: NewLRUCache(10, time.Minute)}
	p, err := NewPredictor(model, cache, 7)
	if err != nil {
		t.Fatal(err)
	}

	first, err := p.Predict(context.Background(), testRide())
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if first.ModelVersion != "abc" || first.Duration <= 0 {
		t.Errorf("prediction = %+v", first)
	}

	second, err := p.Predict(context.Background(), testRide())
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if second.Duration != first.Duration {
		t.Errorf("cached duration = %v, want %v", second.Duration, first.Duration)
	}
	if cache.sets != 1 {
		t.Errorf("cache sets = %d, want 1", cache.sets)
	}
}

func TestPredictorSameCellsUsesOwnFeatures(t *testing.T) {
	t.Parallel()

	model := &Model{Pipeline: fittedPipeline(t), Version: "run1", Algorithm: ml.AlgorithmRidge}
	cache := &countingCache{LRUCache: NewLRUCache(10, time.Minute)}
	p, err := NewPredictor(model, cache, 7)
	if err != nil {
		t.Fatal(err)
	}

	a, b := sameCellRides()
	if _, err := p.Predict(context.Background(), a); err != nil {
		t.Fatalf("Predict(a) error = %v", err)
	}
	got, err := p.Predict(context.Background(), b)
	if err != nil {
		t.Fatalf("Predict(b) error = %v", err)
	}

	fb, err := trip.PrepareRide(b)
	if err != nil {
		t.Fatal(err)
	}
	want, err := model.Pipeline.PredictOne(fb.Sample())
	if err != nil {
		t.Fatal(err)
	}
	if got.Duration != want {
		t.Errorf("Predict(b) = %v, want model output %v", got.Duration, want)
	}
	if cache.sets != 2 {
		t.Errorf("cache sets = %d, want 2", cache.sets)
	}
}

func TestPredictorCacheErrorIsMiss(t *testing.T) {
	t.Parallel()

	model := &Model{Pipeline: fittedPipeline(t), Version: "abc"}
	cache := &countingCache{LRUCache: NewLRUCache(10, time.Minute), getErr: errors.New("connection refused")}
	p, _ := NewPredictor(model, cache, 7)

	if _, err := p.Predict(context.Background(), testRide()); err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
}

func TestPredictorRejectsInvalidRide(t *testing.T) {
	t.Parallel()

	p, _ := NewPredictor(&Model{Pipeline: fittedPipeline(t), Version: "abc"}, nil, 7)

	ride := testRide()
	ride.StartLat = ptr(123)
	_, err := p.Predict(context.Background(), ride)
	var ve *validation.RequestValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want validation error", err)
	}

	ride = testRide()
	ride.EndLng = nil
	if _, err := p.Predict(context.Background(), ride); !errors.Is(err, trip.ErrMissingCoordinates) {
		t.Errorf("err = %v, want ErrMissingCoordinates", err)
	}
}

func TestNewPredictorRequiresModel(t *testing.T) {
	t.Parallel()

	if _, err := NewPredictor(nil, nil, 7); err == nil {
		t.Error("expected error for nil model")
	}
}
