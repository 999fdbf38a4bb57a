// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/ridecast/internal/config"
	"github.com/tomtom215/ridecast/internal/database"
	"github.com/tomtom215/ridecast/internal/events"
	"github.com/tomtom215/ridecast/internal/ingest"
	"github.com/tomtom215/ridecast/internal/logging"
	"github.com/tomtom215/ridecast/internal/schedule"
	"github.com/tomtom215/ridecast/internal/staging"
	"github.com/tomtom215/ridecast/internal/supervisor"
	"github.com/tomtom215/ridecast/internal/supervisor/services"
	"github.com/tomtom215/ridecast/internal/tracking"
	"github.com/tomtom215/ridecast/internal/training"
)

// flowSet holds the two flows and what they need to run.
type flowSet struct {
	cfg      *config.Config
	db       *database.DB
	training *training.Flow
	staging  *staging.Flow
}

func newFlows(cfg *config.Config, tracker *tracking.Client, bus *events.Bus) (*flowSet, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	downloader := ingest.NewDownloader(&cfg.Data, &http.Client{Timeout: cfg.Data.DownloadTimeout})
	processor := ingest.NewProcessor(downloader, db)

	return &flowSet{
		cfg:      cfg,
		db:       db,
		training: training.NewFlow(cfg, tracker, processor, bus),
		staging:  staging.NewFlow(cfg, tracker, bus),
	}, nil
}

func (f *flowSet) runTraining(ctx context.Context) error {
	_, err := f.training.Run(ctx, training.Params{})
	return err
}

func (f *flowSet) runStaging(ctx context.Context) error {
	_, err := f.staging.Run(ctx, staging.Params{})
	return err
}

// schedule adds the enabled flows to the flows layer of tree.
func (f *flowSet) schedule(tree *supervisor.SupervisorTree) error {
	if f.cfg.Training.ScheduleEnabled {
		every, err := schedule.NewInterval(f.cfg.Training.Interval, time.Now())
		if err != nil {
			return fmt.Errorf("training schedule: %w", err)
		}
		tree.AddFlowService(services.NewScheduledFlowService(training.FlowName, every, f.runTraining, f.cfg.Training.RunOnStartup))
		logging.Info().Str("schedule", every.String()).Msg("Training flow scheduled")
	}

	if f.cfg.Staging.ScheduleEnabled {
		cron, err := schedule.ParseCron(f.cfg.Staging.Cron)
		if err != nil {
			return fmt.Errorf("staging schedule: %w", err)
		}
		tree.AddFlowService(services.NewScheduledFlowService(staging.FlowName, cron, f.runStaging, f.cfg.Staging.RunOnStartup))
		logging.Info().Str("schedule", cron.String()).Msg("Staging flow scheduled")
	}
	return nil
}

func (f *flowSet) Close() {
	closeAndLog("database", f.db)
}
