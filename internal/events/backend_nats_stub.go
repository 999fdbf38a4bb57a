// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

//go:build !nats

package events

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/ridecast/internal/config"
)

// ErrNATSUnavailable is returned for the nats backend in builds without
// the nats tag.
var ErrNATSUnavailable = errors.New("NATS events backend not available: build with -tags=nats")

func newNATSBackend(_ *config.EventsConfig, _ watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	return nil, nil, ErrNATSUnavailable
}
