// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

// Package logging provides the process-wide zerolog logger for Ridecast.
//
// Every component logs through the package-level helpers so that the
// prediction API, the scheduled flows and the CLI share one output format.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("file", name).Msg("Archive already present, skipping download")
//	logging.Error().Err(err).Str("run_id", id).Msg("Training run failed")
//
//	// Flow and request scoped logging
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Msg("Staging flow started")
//
// # Configuration
//
// The logger is configured from the logging section of the application
// configuration (LOG_LEVEL, LOG_FORMAT, LOG_CALLER). Format "console" is
// intended for local development; "json" is the default.
//
// # slog Interop
//
// Suture's event hook (via sutureslog) and Watermill both accept a
// *slog.Logger. NewSlogLogger returns one that writes through zerolog:
//
//	hook := (&sutureslog.Handler{Logger: logging.NewSlogLogger()}).MustHook()
//
// Always terminate event chains with Msg or Send, otherwise nothing is
// written.
package logging
