// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

/*
Package config loads and validates Ridecast configuration with koanf.

# Sources

Values are layered, later sources winning:

 1. Built-in defaults (Default)
 2. YAML file: CONFIG_PATH, else config.yaml / config.yml in the working
    directory, else /etc/ridecast/config.yaml
 3. Dotenv file: DOTENV_PATH, else .env when present
 4. Process environment

Environment and dotenv keys use flat names (TRACKING_URI, TRAIN_FILE,
STAGING_CRON, CACHE_BACKEND, ...) that envTransformFunc maps onto the nested
koanf paths; unknown variables are ignored. MLFLOW_TRACKING_URI is accepted
as an alias of TRACKING_URI. List values (CORS_ORIGINS, TRAINING_ALGORITHMS)
are comma separated.

# Sections

  - server: prediction API listener, timeouts, CORS and rate limit
  - logging: zerolog level and format
  - data: trip archive location and download retries
  - database: DuckDB used to read and clean trip CSVs
  - tracking: experiment tracking server, client rate limit and breaker
  - training: candidate algorithms, hyperparameters and interval schedule
  - staging: cron schedule and model registry naming
  - serving: model served by /predict and its artifact cache
  - cache: prediction cache backend (memory, redis, none)
  - events: flow event bus (memory or nats)

Load calls Validate. ValidateServing is separate because only the server
needs a model to serve.

# Example

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
*/
package config
