// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/ridecast/internal/config"
	"github.com/tomtom215/ridecast/internal/logging"
	"github.com/tomtom215/ridecast/internal/metrics"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendNATS   = "nats"
)

// ErrBusClosed is returned by Publish after Close.
var ErrBusClosed = errors.New("event bus is closed")

// Bus publishes and subscribes to flow events.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	prefix     string
	logger     watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewBus creates a bus for cfg.Backend.
func NewBus(cfg *config.EventsConfig) (*Bus, error) {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger().With("component", "events"))

	b := &Bus{prefix: strings.TrimSuffix(cfg.TopicPrefix, "."), logger: logger}
	switch cfg.Backend {
	case "", BackendMemory:
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
		b.publisher, b.subscriber = ch, ch
	case BackendNATS:
		pub, sub, err := newNATSBackend(cfg, logger)
		if err != nil {
			return nil, err
		}
		b.publisher, b.subscriber = pub, sub
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}

	logging.Info().Str("backend", cfg.Backend).Str("prefix", b.prefix).Msg("Event bus ready")
	return b, nil
}

// Topic returns the full topic name for name.
func (b *Bus) Topic(name string) string {
	if b.prefix == "" {
		return name
	}
	return b.prefix + "." + name
}

// Publish marshals event as JSON and publishes it to the prefixed topic.
func (b *Bus) Publish(ctx context.Context, topic string, event interface{}) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("event_type", topic)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}

	full := b.Topic(topic)
	err = b.publisher.Publish(full, msg)
	metrics.RecordEventPublished(topic, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", full, err)
	}
	return nil
}

// Subscribe returns a channel of raw messages for topic. Messages must be
// acknowledged.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, b.Topic(topic))
}

// Subscriber exposes the Watermill subscriber for routers.
func (b *Bus) Subscriber() message.Subscriber {
	return b.subscriber
}

// Logger returns the Watermill logger adapter used by the bus.
func (b *Bus) Logger() watermill.LoggerAdapter {
	return b.logger
}

// Close shuts down the publisher and subscriber.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	errPub := b.publisher.Close()
	var errSub error
	if any(b.subscriber) != any(b.publisher) {
		errSub = b.subscriber.Close()
	}
	return errors.Join(errPub, errSub)
}
