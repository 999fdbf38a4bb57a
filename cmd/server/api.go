// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/tomtom215/ridecast/internal/api"
	"github.com/tomtom215/ridecast/internal/config"
	"github.com/tomtom215/ridecast/internal/events"
	"github.com/tomtom215/ridecast/internal/serving"
	"github.com/tomtom215/ridecast/internal/tracking"
)

// apiComponents is the prediction API and the caches behind it.
type apiComponents struct {
	server        *http.Server
	artifactCache *serving.BadgerArtifactCache
	predCache     serving.PredictionCache
}

func newAPI(ctx context.Context, cfg *config.Config, tracker *tracking.Client, recorder *events.Recorder) (*apiComponents, error) {
	if err := cfg.ValidateServing(); err != nil {
		return nil, err
	}
	source, err := serving.ModelSource(cfg)
	if err != nil {
		return nil, err
	}

	c := &apiComponents{}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	var artifacts serving.ArtifactCache
	if cfg.Serving.ArtifactCacheDir != "" {
		c.artifactCache, err = serving.OpenBadgerArtifactCache(cfg.Serving.ArtifactCacheDir)
		if err != nil {
			return nil, fmt.Errorf("open artifact cache: %w", err)
		}
		artifacts = c.artifactCache
	}

	// MODEL_SOURCE without RUN_ID reports the source directory as version.
	version := cfg.Serving.RunID
	if version == "" {
		version = path.Base(source)
	}
	model, err := serving.NewLoader(tracker, artifacts).Load(ctx, source, version)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	c.predCache, err = serving.NewPredictionCache(ctx, &cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("open prediction cache: %w", err)
	}

	predictor, err := serving.NewPredictor(model, c.predCache, cfg.Cache.GeohashPrecision)
	if err != nil {
		return nil, err
	}

	handler := api.NewHandler(predictor, recorder, tracker)
	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFromServer(&cfg.Server))
	router := api.NewRouter(handler, mw, cfg.Server.RequestTimeout)

	c.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	ok = true
	return c, nil
}

func (c *apiComponents) Close() {
	if closer, isCloser := c.predCache.(io.Closer); isCloser {
		closeAndLog("prediction cache", closer)
	}
	if c.artifactCache != nil {
		closeAndLog("artifact cache", c.artifactCache)
	}
}
