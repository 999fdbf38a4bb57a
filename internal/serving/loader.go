// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package serving

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tomtom215/ridecast/internal/config"
	"github.com/tomtom215/ridecast/internal/logging"
	"github.com/tomtom215/ridecast/internal/metrics"
	"github.com/tomtom215/ridecast/internal/ml"
)

// ModelFile is the artifact name below a model source.
const ModelFile = "model.json"

// ErrNoModelSource is returned when neither MODEL_SOURCE nor RUN_ID and
// EXPERIMENT_ID are configured.
var ErrNoModelSource = errors.New("no model source configured")

// Model is a loaded pipeline and where it came from.
type Model struct {
	Pipeline *ml.Pipeline

	// Version is the run ID reported with predictions.
	Version   string
	Source    string
	Algorithm string
	LoadedAt  time.Time
}

// ArtifactFetcher downloads artifacts through the tracking server.
type ArtifactFetcher interface {
	DownloadArtifact(ctx context.Context, artifactURI, relPath string) ([]byte, error)
}

// ModelSource returns the configured source, or the run's model directory
// under the artifact root.
func ModelSource(cfg *config.Config) (string, error) {
	if cfg.Serving.ModelSource != "" {
		return strings.TrimSuffix(cfg.Serving.ModelSource, "/"), nil
	}
	if cfg.Serving.RunID == "" || cfg.Serving.ExperimentID == "" {
		return "", ErrNoModelSource
	}
	root := strings.TrimSuffix(cfg.Tracking.ArtifactRoot, "/")
	return fmt.Sprintf("%s/%s/%s/artifacts/model", root, cfg.Serving.ExperimentID, cfg.Serving.RunID), nil
}

// isRemote reports whether source must go through the artifact proxy.
func isRemote(source string) bool {
	if strings.HasPrefix(source, "mlflow-artifacts:") {
		return true
	}
	scheme, _, ok := strings.Cut(source, "://")
	return ok && scheme != "file"
}

// Loader reads model artifacts.
type Loader struct {
	fetcher ArtifactFetcher
	cache   ArtifactCache
	now     func() time.Time
}

// NewLoader creates a loader. fetcher may be nil when only local sources are
// used; cache may be nil to always download.
func NewLoader(fetcher ArtifactFetcher, cache ArtifactCache) *Loader {
	return &Loader{fetcher: fetcher, cache: cache, now: time.Now}
}

// Load reads and decodes the pipeline at source. version is reported with
// every prediction made by the model.
func (l *Loader) Load(ctx context.Context, source, version string) (*Model, error) {
	var (
		data []byte
		err  error
	)
	if isRemote(source) {
		data, err = l.fetchRemote(ctx, source)
	} else {
		data, err = readLocal(source)
	}
	if err != nil {
		return nil, err
	}

	pipe, err := ml.LoadPipeline(data)
	if err != nil {
		return nil, fmt.Errorf("decode model from %s: %w", source, err)
	}

	m := &Model{
		Pipeline:  pipe,
		Version:   version,
		Source:    source,
		Algorithm: pipe.Regressor.Name(),
		LoadedAt:  l.now().UTC(),
	}
	logging.Info().
		Str("source", source).
		Str("version", version).
		Str("algorithm", m.Algorithm).
		Msg("Model loaded")
	return m, nil
}

func (l *Loader) fetchRemote(ctx context.Context, source string) ([]byte, error) {
	key := source + "/" + ModelFile
	if l.cache != nil {
		data, ok, err := l.cache.Get(key)
		if err == nil {
			metrics.RecordCacheLookup("artifact", ok)
		}
		switch {
		case err != nil:
			logging.Warn().Err(err).Str("key", key).Msg("Artifact cache read failed")
		case ok:
			logging.Debug().Str("key", key).Msg("Model artifact served from cache")
			return data, nil
		}
	}

	if l.fetcher == nil {
		return nil, fmt.Errorf("remote model source %s needs a tracking client", source)
	}
	data, err := l.fetcher.DownloadArtifact(ctx, source, ModelFile)
	if err != nil {
		return nil, fmt.Errorf("download model: %w", err)
	}

	if l.cache != nil {
		if err := l.cache.Put(key, data); err != nil {
			logging.Warn().Err(err).Str("key", key).Msg("Artifact cache write failed")
		}
	}
	return data, nil
}

// readLocal accepts either the model directory or the file itself.
func readLocal(source string) ([]byte, error) {
	path := strings.TrimPrefix(source, "file://")
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("model source: %w", err)
	}
	if info.IsDir() {
		path = filepath.Join(path, ModelFile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return data, nil
}
