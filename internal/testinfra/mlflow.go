// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultMLflowImage is the upstream MLflow image.
	DefaultMLflowImage = "ghcr.io/mlflow/mlflow:v2.9.2"

	// DefaultMLflowPort is the tracking server port inside the container.
	DefaultMLflowPort = "5000"
)

// MLflowContainer is a running MLflow tracking server.
type MLflowContainer struct {
	testcontainers.Container
	URL string
}

// MLflowOption configures the MLflow container.
type MLflowOption func(*mlflowConfig)

type mlflowConfig struct {
	image        string
	startTimeout time.Duration
}

// WithMLflowImage sets a custom MLflow image.
func WithMLflowImage(image string) MLflowOption {
	return func(c *mlflowConfig) {
		c.image = image
	}
}

// WithStartTimeout sets how long to wait for the server to become healthy.
func WithStartTimeout(timeout time.Duration) MLflowOption {
	return func(c *mlflowConfig) {
		c.startTimeout = timeout
	}
}

// NewMLflowContainer starts a tracking server with a SQLite backend store
// (required by the model registry) and a local proxied artifact store.
func NewMLflowContainer(ctx context.Context, opts ...MLflowOption) (*MLflowContainer, error) {
	cfg := &mlflowConfig{
		image:        DefaultMLflowImage,
		startTimeout: 120 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultMLflowPort + "/tcp"},
		Cmd: []string{
			"mlflow", "server",
			"--host", "0.0.0.0",
			"--port", DefaultMLflowPort,
			"--backend-store-uri", "sqlite:////tmp/mlflow.db",
			"--serve-artifacts",
			"--artifacts-destination", "/tmp/mlartifacts",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(DefaultMLflowPort+"/tcp"),
			wait.ForHTTP("/health").
				WithPort(DefaultMLflowPort+"/tcp").
				WithStatusCodeMatcher(func(status int) bool { return status == http.StatusOK }),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create mlflow container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, DefaultMLflowPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &MLflowContainer{
		Container: container,
		URL:       fmt.Sprintf("http://%s:%s", host, port.Port()),
	}, nil
}
