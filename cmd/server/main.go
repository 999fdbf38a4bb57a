// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/ridecast/internal/config"
	"github.com/tomtom215/ridecast/internal/events"
	"github.com/tomtom215/ridecast/internal/logging"
	"github.com/tomtom215/ridecast/internal/supervisor"
	"github.com/tomtom215/ridecast/internal/supervisor/services"
	"github.com/tomtom215/ridecast/internal/tracking"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("tracking_uri", cfg.Tracking.URI).
		Bool("serving", cfg.Serving.Enabled).
		Bool("training_schedule", cfg.Training.ScheduleEnabled).
		Bool("staging_schedule", cfg.Staging.ScheduleEnabled).
		Str("events_backend", cfg.Events.Backend).
		Msg("Starting Ridecast")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("Ridecast stopped with error")
		os.Exit(1)
	}
	logging.Info().Msg("Ridecast stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	tracker, err := tracking.NewClient(&cfg.Tracking, &http.Client{Timeout: cfg.Tracking.Timeout})
	if err != nil {
		return err
	}

	bus, err := events.NewBus(&cfg.Events)
	if err != nil {
		return err
	}
	defer closeAndLog("event bus", bus)

	router, err := events.NewRouter(bus)
	if err != nil {
		return err
	}
	recorder := events.NewRecorder()
	recorder.Register(router)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}
	tree.AddMessagingService(services.NewEventRouterService(router))

	flows, err := newFlows(cfg, tracker, bus)
	if err != nil {
		return err
	}
	defer flows.Close()
	if err := flows.schedule(tree); err != nil {
		return err
	}

	if cfg.Serving.Enabled {
		api, err := newAPI(ctx, cfg, tracker, recorder)
		if err != nil {
			return err
		}
		defer api.Close()
		tree.AddAPIService(services.NewHTTPServerService(api.server, cfg.Server.ShutdownTimeout))
		logging.Info().Str("addr", cfg.Server.Addr()).Msg("Prediction API enabled")
	}

	errCh := tree.ServeBackground(ctx)
	<-ctx.Done()
	logging.Info().Msg("Shutdown signal received")

	err = <-errCh
	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

type closer interface {
	Close() error
}

func closeAndLog(name string, c closer) {
	if err := c.Close(); err != nil {
		logging.Error().Err(err).Str("component", name).Msg("Error during close")
	}
}
