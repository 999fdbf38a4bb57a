// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Data     DataConfig     `koanf:"data"`
	Database DatabaseConfig `koanf:"database"`
	Tracking TrackingConfig `koanf:"tracking"`
	Training TrainingConfig `koanf:"training"`
	Staging  StagingConfig  `koanf:"staging"`
	Serving  ServingConfig  `koanf:"serving"`
	Cache    CacheConfig    `koanf:"cache"`
	Events   EventsConfig   `koanf:"events"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is json or console. Default: json
	Format string `koanf:"format"`

	// Caller adds file:line to every entry.
	Caller bool `koanf:"caller"`
}

// DataConfig holds trip archive download settings
type DataConfig struct {
	// Dir receives downloaded archives and derived Parquet files.
	Dir string `koanf:"dir"`

	// BaseURL is the object store prefix archives are fetched from.
	BaseURL string `koanf:"base_url"`

	DownloadAttempts   int           `koanf:"download_attempts"`
	DownloadRetryDelay time.Duration `koanf:"download_retry_delay"`
	DownloadTimeout    time.Duration `koanf:"download_timeout"`
}

// DatabaseConfig holds DuckDB settings
type DatabaseConfig struct {
	Path      string `koanf:"path"`       // ":memory:" keeps DuckDB purely in-process
	MaxMemory string `koanf:"max_memory"` // e.g. "2GB"
	Threads   int    `koanf:"threads"`    // 0 = use NumCPU
}

// TrackingConfig configures the experiment tracking server client.
type TrackingConfig struct {
	URI     string        `koanf:"uri"`
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond and Burst bound the request rate to the tracker.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`

	// ArtifactRoot is the default artifact store prefix, used to build
	// model sources when a run does not report an artifact URI.
	ArtifactRoot string `koanf:"artifact_root"`

	CircuitBreakerEnabled bool `koanf:"circuit_breaker_enabled"`
}

// TrainingConfig configures the training flow and its schedule.
type TrainingConfig struct {
	ScheduleEnabled bool          `koanf:"schedule_enabled"`
	Interval        time.Duration `koanf:"interval"`
	RunOnStartup    bool          `koanf:"run_on_startup"`

	TrainFile string `koanf:"train_file"`
	ValidFile string `koanf:"valid_file"`

	// ExperimentPrefix is followed by the run date (YYYY-MM-DD).
	ExperimentPrefix string `koanf:"experiment_prefix"`
	Author           string `koanf:"author"`

	// Algorithms selects and orders the candidate regressors.
	Algorithms []string `koanf:"algorithms"`

	RandomState uint64 `koanf:"random_state"`

	RidgeAlpha float64 `koanf:"ridge_alpha"`

	GBEstimators   int     `koanf:"gb_estimators"`
	GBLearningRate float64 `koanf:"gb_learning_rate"`
	GBMaxDepth     int     `koanf:"gb_max_depth"`

	RFEstimators int `koanf:"rf_estimators"`
	RFMaxDepth   int `koanf:"rf_max_depth"` // 0 = unlimited
	RFWorkers    int `koanf:"rf_workers"`   // 0 = GOMAXPROCS
}

// StagingConfig configures the staging flow and its schedule.
type StagingConfig struct {
	ScheduleEnabled bool   `koanf:"schedule_enabled"`
	Cron            string `koanf:"cron"`
	RunOnStartup    bool   `koanf:"run_on_startup"`

	// ExperimentName pins the experiment to promote from. Empty targets the
	// experiment named after the run date.
	ExperimentName string `koanf:"experiment_name"`

	ModelNamePrefix string `koanf:"model_name_prefix"`
	MaxCandidates   int    `koanf:"max_candidates"`
	Stage           string `koanf:"stage"`
}

// ServingConfig selects the model served by /predict.
type ServingConfig struct {
	Enabled bool `koanf:"enabled"`

	// RunID and ExperimentID identify the tracked run whose model is served.
	RunID        string `koanf:"run_id"`
	ExperimentID string `koanf:"experiment_id"`

	// ModelSource overrides the source derived from the IDs above. It may be
	// an s3://, mlflow-artifacts:/ or local path.
	ModelSource string `koanf:"model_source"`

	// ArtifactCacheDir holds the Badger store for fetched artifacts. Empty
	// disables the on-disk cache.
	ArtifactCacheDir string `koanf:"artifact_cache_dir"`
}

// CacheConfig configures the prediction cache.
type CacheConfig struct {
	// Backend is "memory", "redis" or "none".
	Backend  string        `koanf:"backend"`
	Capacity int           `koanf:"capacity"`
	TTL      time.Duration `koanf:"ttl"`

	// GeohashPrecision sets the cell size used in cache keys.
	GeohashPrecision uint `koanf:"geohash_precision"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

// EventsConfig configures the flow event bus.
type EventsConfig struct {
	// Backend is "memory" or "nats". The nats backend requires a binary
	// built with -tags nats.
	Backend     string `koanf:"backend"`
	NATSURL     string `koanf:"nats_url"`
	TopicPrefix string `koanf:"topic_prefix"`
}
