// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

// Command flow runs a single training or staging flow and exits.
//
//	flow train --train-file 202204-capitalbikeshare-tripdata.zip \
//	           --valid-file 202205-capitalbikeshare-tripdata.zip
//	flow stage --tracking-uri http://127.0.0.1:5000 \
//	           --experiment-name citibikes-experiment-2022-06-01
//
// Flags override the matching configuration values; everything else comes
// from config.yaml, .env and the environment as for the server. The flow
// result is written to stdout as JSON. A failed flow exits with status 1.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ridecast/internal/config"
	"github.com/tomtom215/ridecast/internal/database"
	"github.com/tomtom215/ridecast/internal/ingest"
	"github.com/tomtom215/ridecast/internal/logging"
	"github.com/tomtom215/ridecast/internal/staging"
	"github.com/tomtom215/ridecast/internal/tracking"
	"github.com/tomtom215/ridecast/internal/training"
)

const usage = `usage: flow <command> [flags]

commands:
  train   train candidate models and log them to the tracking server
  stage   register the best run of an experiment and move it to Staging
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			logging.Error().Err(err).Msg("Flow failed")
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	var result interface{}
	switch args[0] {
	case "train":
		result, err = runTrain(ctx, cfg, args[1:])
	case "stage":
		result, err = runStage(ctx, cfg, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// trainOptions are the train command flags.
type trainOptions struct {
	trainFile string
	validFile string
	date      string
}

func parseTrain(cfg *config.Config, args []string) (training.Params, error) {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	var opts trainOptions
	fs.StringVar(&opts.trainFile, "train-file", cfg.Training.TrainFile, "training archive name")
	fs.StringVar(&opts.validFile, "valid-file", cfg.Training.ValidFile, "validation archive name")
	fs.StringVar(&opts.date, "date", "", "experiment date (YYYY-MM-DD), default today")
	if err := fs.Parse(args); err != nil {
		return training.Params{}, errUsage
	}

	p := training.Params{TrainFile: opts.trainFile, ValidFile: opts.validFile}
	if opts.date != "" {
		d, err := time.Parse(time.DateOnly, opts.date)
		if err != nil {
			return training.Params{}, fmt.Errorf("--date: %w", err)
		}
		p.ExpectedStart = d
	}
	return p, nil
}

func runTrain(ctx context.Context, cfg *config.Config, args []string) (*training.Result, error) {
	params, err := parseTrain(cfg, args)
	if err != nil {
		return nil, err
	}

	tracker, err := tracking.NewClient(&cfg.Tracking, &http.Client{Timeout: cfg.Tracking.Timeout})
	if err != nil {
		return nil, err
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	downloader := ingest.NewDownloader(&cfg.Data, &http.Client{Timeout: cfg.Data.DownloadTimeout})
	flow := training.NewFlow(cfg, tracker, ingest.NewProcessor(downloader, db), nil)
	return flow.Run(ctx, params)
}

// stageOptions are the stage command flags.
type stageOptions struct {
	trackingURI    string
	experimentName string
	date           string
}

func parseStage(cfg *config.Config, args []string) (staging.Params, error) {
	fs := flag.NewFlagSet("stage", flag.ContinueOnError)
	var opts stageOptions
	fs.StringVar(&opts.trackingURI, "tracking-uri", cfg.Tracking.URI, "tracking server URI")
	fs.StringVar(&opts.experimentName, "experiment-name", "", "experiment to promote from")
	fs.StringVar(&opts.date, "date", "", "derive the experiment name from this date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return staging.Params{}, errUsage
	}

	cfg.Tracking.URI = opts.trackingURI
	p := staging.Params{ExperimentName: opts.experimentName}
	if opts.date != "" {
		d, err := time.Parse(time.DateOnly, opts.date)
		if err != nil {
			return staging.Params{}, fmt.Errorf("--date: %w", err)
		}
		p.RunDate = d
	}
	return p, nil
}

func runStage(ctx context.Context, cfg *config.Config, args []string) (*staging.Result, error) {
	params, err := parseStage(cfg, args)
	if err != nil {
		return nil, err
	}

	tracker, err := tracking.NewClient(&cfg.Tracking, &http.Client{Timeout: cfg.Tracking.Timeout})
	if err != nil {
		return nil, err
	}
	return staging.NewFlow(cfg, tracker, nil).Run(ctx, params)
}
