// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/ridecast/internal/metrics"
)

// Router dispatches bus messages to consumer handlers.
type Router struct {
	router *message.Router
	bus    *Bus
}

// NewRouter creates a router reading from bus, with panic recovery and a
// short retry policy for failing handlers.
func NewRouter(bus *Bus) (*Router, error) {
	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, bus.Logger())
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	wmRouter.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2,
		Logger:          bus.Logger(),
	}
	wmRouter.AddMiddleware(retry.Middleware)

	return &Router{router: wmRouter, bus: bus}, nil
}

// AddConsumer registers handler for topic (unprefixed). name must be unique.
func (r *Router) AddConsumer(name, topic string, handler message.NoPublishHandlerFunc) {
	r.router.AddConsumerHandler(name, r.bus.Topic(topic), r.bus.Subscriber(), func(msg *message.Message) error {
		if err := handler(msg); err != nil {
			return err
		}
		metrics.EventsConsumed.WithLabelValues(topic).Inc()
		return nil
	})
}

// Run processes messages until ctx is cancelled.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running is closed once all handlers are subscribed.
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Close stops the router.
func (r *Router) Close() error {
	return r.router.Close()
}
