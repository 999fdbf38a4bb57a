// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

//go:build !nats

package events

import (
	"errors"
	"testing"

	"github.com/tomtom215/ridecast/internal/config"
)

func TestNewBus_NATSWithoutTag(t *testing.T) {
	t.Parallel()

	_, err := NewBus(&config.EventsConfig{Backend: BackendNATS, NATSURL: "nats://127.0.0.1:4222"})
	if !errors.Is(err, ErrNATSUnavailable) {
		t.Fatalf("expected ErrNATSUnavailable, got %v", err)
	}
}
