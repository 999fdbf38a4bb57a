// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package services

import (
	"context"
	"errors"
	"fmt"
)

// EventRouter matches the run loop of *events.Router.
type EventRouter interface {
	Run(ctx context.Context) error
}

// EventRouterService runs the flow event router as a supervised service.
type EventRouterService struct {
	router EventRouter
	name   string
}

// NewEventRouterService creates a new event router service wrapper.
//
//	router, _ := events.NewRouter(bus)
//	recorder.Register(router)
//	tree.AddMessagingService(services.NewEventRouterService(router))
func NewEventRouterService(router EventRouter) *EventRouterService {
	return &EventRouterService{
		router: router,
		name:   "event-router",
	}
}

// Serve implements suture.Service. A router that stops on its own while ctx
// is still live is reported as a failure so that suture restarts it.
func (s *EventRouterService) Serve(ctx context.Context) error {
	err := s.router.Run(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("event router failed: %w", err)
	}
	return errors.New("event router stopped unexpectedly")
}

// String implements fmt.Stringer for suture's logs.
func (s *EventRouterService) String() string {
	return s.name
}
