// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tomtom215/ridecast/internal/ml"
	"github.com/tomtom215/ridecast/internal/schedule"
	"github.com/tomtom215/ridecast/internal/validation"
)

const (
	minRateLimitWindow = time.Second
	maxRateLimitWindow = time.Hour
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateData,
		c.validateTracking,
		c.validateTraining,
		c.validateStaging,
		c.validateCache,
		c.validateEvents,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.RateLimitDisabled {
		return nil
	}
	if c.Server.RateLimitRequests < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Server.RateLimitWindow < minRateLimitWindow || c.Server.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console; got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateData() error {
	if c.Data.Dir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if err := validateHTTPURL(c.Data.BaseURL, "DATA_BASE_URL"); err != nil {
		return err
	}
	if c.Data.DownloadAttempts < 1 {
		return fmt.Errorf("DOWNLOAD_ATTEMPTS must be at least 1")
	}
	if c.Data.DownloadRetryDelay < 0 {
		return fmt.Errorf("DOWNLOAD_RETRY_DELAY must not be negative")
	}
	return nil
}

func (c *Config) validateTracking() error {
	if err := validateHTTPURL(c.Tracking.URI, "TRACKING_URI"); err != nil {
		return err
	}
	if c.Tracking.RequestsPerSecond <= 0 {
		return fmt.Errorf("TRACKING_RPS must be positive")
	}
	if c.Tracking.Burst < 1 {
		return fmt.Errorf("TRACKING_BURST must be at least 1")
	}
	return nil
}

func (c *Config) validateTraining() error {
	t := &c.Training
	if err := validation.ValidateArchiveName(t.TrainFile); err != nil {
		return fmt.Errorf("TRAIN_FILE: %w", err)
	}
	if err := validation.ValidateArchiveName(t.ValidFile); err != nil {
		return fmt.Errorf("VALID_FILE: %w", err)
	}
	if len(t.Algorithms) == 0 {
		return fmt.Errorf("TRAINING_ALGORITHMS must list at least one algorithm")
	}
	known := ml.Algorithms()
	for _, a := range t.Algorithms {
		if !slices.Contains(known, a) {
			return fmt.Errorf("TRAINING_ALGORITHMS: unknown algorithm %q (known: %s)", a, strings.Join(known, ", "))
		}
	}
	if t.ScheduleEnabled && t.Interval < time.Minute {
		return fmt.Errorf("TRAINING_INTERVAL must be at least 1m")
	}
	if t.RidgeAlpha <= 0 {
		return fmt.Errorf("RIDGE_ALPHA must be positive")
	}
	if t.GBEstimators < 1 || t.RFEstimators < 1 {
		return fmt.Errorf("GB_ESTIMATORS and RF_ESTIMATORS must be at least 1")
	}
	if t.GBLearningRate <= 0 || t.GBLearningRate > 1 {
		return fmt.Errorf("GB_LEARNING_RATE must be in (0, 1]")
	}
	if t.GBMaxDepth < 1 || t.RFMaxDepth < 0 {
		return fmt.Errorf("GB_MAX_DEPTH must be at least 1 and RF_MAX_DEPTH not negative")
	}
	return nil
}

func (c *Config) validateStaging() error {
	if c.Staging.ScheduleEnabled {
		if _, err := schedule.ParseCron(c.Staging.Cron); err != nil {
			return fmt.Errorf("STAGING_CRON: %w", err)
		}
	}
	if c.Staging.ModelNamePrefix == "" {
		return fmt.Errorf("MODEL_NAME_PREFIX is required")
	}
	if c.Staging.MaxCandidates < 1 {
		return fmt.Errorf("STAGING_MAX_CANDIDATES must be at least 1")
	}
	switch c.Staging.Stage {
	case "Staging", "Production", "Archived", "None":
	default:
		return fmt.Errorf("STAGING_STAGE must be Staging, Production, Archived or None; got %q", c.Staging.Stage)
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case "none":
		return nil
	case "memory":
		if c.Cache.Capacity < 1 {
			return fmt.Errorf("CACHE_CAPACITY must be at least 1")
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be memory, redis or none; got %q", c.Cache.Backend)
	}
	if c.Cache.GeohashPrecision < 1 || c.Cache.GeohashPrecision > 12 {
		return fmt.Errorf("CACHE_GEOHASH_PRECISION must be between 1 and 12")
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case "memory":
		return nil
	case "nats":
		return validateNATSURL(c.Events.NATSURL)
	default:
		return fmt.Errorf("EVENTS_BACKEND must be memory or nats; got %q", c.Events.Backend)
	}
}

// ValidateServing checks the settings needed to load a model at startup.
// The flow CLI does not serve, so this is not part of Validate.
func (c *Config) ValidateServing() error {
	if c.Serving.ModelSource != "" {
		return nil
	}
	if c.Serving.RunID == "" || c.Serving.ExperimentID == "" {
		return fmt.Errorf("RUN_ID and EXPERIMENT_ID are required to serve a model (or set MODEL_SOURCE)")
	}
	return nil
}
