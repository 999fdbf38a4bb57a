// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ridecast/config.yaml",
	"/etc/ridecast/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPathEnvVar overrides the dotenv file path.
const DotEnvPathEnvVar = "DOTENV_PATH"

// DefaultDotEnvPath is read when present.
const DefaultDotEnvPath = ".env"

// Default returns the built-in configuration before any file or environment
// overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              9696,
			Host:              "0.0.0.0",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RequestTimeout:    30 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 600,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Data: DataConfig{
			Dir:                "./data",
			BaseURL:            "https://s3.amazonaws.com/capitalbikeshare-data",
			DownloadAttempts:   3,
			DownloadRetryDelay: 2 * time.Second,
			DownloadTimeout:    10 * time.Minute,
		},
		Database: DatabaseConfig{
			Path:      ":memory:",
			MaxMemory: "2GB",
			Threads:   0,
		},
		Tracking: TrackingConfig{
			URI:                   "http://127.0.0.1:5000",
			Timeout:               30 * time.Second,
			RequestsPerSecond:     20,
			Burst:                 10,
			ArtifactRoot:          "s3://mlflow-models-artifact-store-cmd",
			CircuitBreakerEnabled: true,
		},
		Training: TrainingConfig{
			ScheduleEnabled:  true,
			Interval:         10080 * time.Minute,
			TrainFile:        "202204-capitalbikeshare-tripdata.zip",
			ValidFile:        "202205-capitalbikeshare-tripdata.zip",
			ExperimentPrefix: "citibikes-experiment-",
			Author:           "PatrickCmd",
			Algorithms:       []string{"ridge", "gradient_boosting", "random_forest"},
			RandomState:      42,
			RidgeAlpha:       1.0,
			GBEstimators:     100,
			GBLearningRate:   0.1,
			GBMaxDepth:       3,
			RFEstimators:     100,
		},
		Staging: StagingConfig{
			ScheduleEnabled: true,
			Cron:            "0 9 1 * *",
			ModelNamePrefix: "CITIBIKESDurationModel-",
			MaxCandidates:   5,
			Stage:           "Staging",
		},
		Serving: ServingConfig{
			Enabled: true,
		},
		Cache: CacheConfig{
			Backend:          "memory",
			Capacity:         10000,
			TTL:              time.Hour,
			GeohashPrecision: 7,
			RedisAddr:        "127.0.0.1:6379",
		},
		Events: EventsConfig{
			Backend:     "memory",
			NATSURL:     "nats://127.0.0.1:4222",
			TopicPrefix: "ridecast",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file, an optional
// dotenv file and the environment, in increasing priority, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: dotenv file (optional). Keys go through the same mapping as
	// the process environment.
	if dotenvPath := findDotEnvFile(); dotenvPath != "" {
		if err := loadDotEnv(k, dotenvPath); err != nil {
			return nil, err
		}
	}

	// Layer 4: environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func findDotEnvFile() string {
	path := os.Getenv(DotEnvPathEnvVar)
	if path == "" {
		path = DefaultDotEnvPath
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func loadDotEnv(k *koanf.Koanf, path string) error {
	raw := koanf.New(".")
	if err := raw.Load(file.Provider(path), dotenv.Parser()); err != nil {
		return fmt.Errorf("failed to load dotenv file %s: %w", path, err)
	}
	for key, val := range raw.All() {
		mapped := envTransformFunc(key)
		if mapped == "" {
			continue
		}
		if err := k.Set(mapped, val); err != nil {
			return fmt.Errorf("failed to set %s from %s: %w", mapped, path, err)
		}
	}
	return nil
}

// sliceConfigPaths are comma-separated when supplied through the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"training.algorithms",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML or defaults)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf paths. Unmapped
// variables return "" and are ignored.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_port":             "server.port",
		"http_host":             "server.host",
		"http_read_timeout":     "server.read_timeout",
		"http_write_timeout":    "server.write_timeout",
		"http_idle_timeout":     "server.idle_timeout",
		"http_shutdown_timeout": "server.shutdown_timeout",
		"http_request_timeout":  "server.request_timeout",
		"cors_origins":          "server.cors_origins",
		"rate_limit_requests":   "server.rate_limit_requests",
		"rate_limit_window":     "server.rate_limit_window",
		"disable_rate_limit":    "server.rate_limit_disabled",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Data mappings
		"data_dir":             "data.dir",
		"data_base_url":        "data.base_url",
		"download_attempts":    "data.download_attempts",
		"download_retry_delay": "data.download_retry_delay",
		"download_timeout":     "data.download_timeout",

		// Database mappings
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Tracking mappings
		"mlflow_tracking_uri":      "tracking.uri",
		"tracking_uri":             "tracking.uri",
		"tracking_timeout":         "tracking.timeout",
		"tracking_rps":             "tracking.requests_per_second",
		"tracking_burst":           "tracking.burst",
		"artifact_root":            "tracking.artifact_root",
		"tracking_circuit_breaker": "tracking.circuit_breaker_enabled",

		// Training mappings
		"training_schedule_enabled": "training.schedule_enabled",
		"training_interval":         "training.interval",
		"training_run_on_startup":   "training.run_on_startup",
		"train_file":                "training.train_file",
		"valid_file":                "training.valid_file",
		"experiment_prefix":         "training.experiment_prefix",
		"training_author":           "training.author",
		"training_algorithms":       "training.algorithms",
		"random_state":              "training.random_state",
		"ridge_alpha":               "training.ridge_alpha",
		"gb_estimators":             "training.gb_estimators",
		"gb_learning_rate":          "training.gb_learning_rate",
		"gb_max_depth":              "training.gb_max_depth",
		"rf_estimators":             "training.rf_estimators",
		"rf_max_depth":              "training.rf_max_depth",
		"rf_workers":                "training.rf_workers",

		// Staging mappings
		"staging_schedule_enabled": "staging.schedule_enabled",
		"staging_cron":             "staging.cron",
		"staging_run_on_startup":   "staging.run_on_startup",
		"staging_experiment_name":  "staging.experiment_name",
		"model_name_prefix":        "staging.model_name_prefix",
		"staging_max_candidates":   "staging.max_candidates",
		"staging_stage":            "staging.stage",

		// Serving mappings
		"serving_enabled":    "serving.enabled",
		"run_id":             "serving.run_id",
		"experiment_id":      "serving.experiment_id",
		"model_source":       "serving.model_source",
		"artifact_cache_dir": "serving.artifact_cache_dir",

		// Cache mappings
		"cache_backend":           "cache.backend",
		"cache_capacity":          "cache.capacity",
		"cache_ttl":               "cache.ttl",
		"cache_geohash_precision": "cache.geohash_precision",
		"redis_addr":              "cache.redis_addr",
		"redis_password":          "cache.redis_password",
		"redis_db":                "cache.redis_db",

		// Events mappings
		"events_backend":      "events.backend",
		"nats_url":            "events.nats_url",
		"events_topic_prefix": "events.topic_prefix",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
