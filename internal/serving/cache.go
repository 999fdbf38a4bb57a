// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package serving

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/ridecast/internal/config"
	"github.com/tomtom215/ridecast/internal/geo"
	"github.com/tomtom215/ridecast/internal/trip"
)

// PredictionCache stores predicted durations by CacheKey.
type PredictionCache interface {
	// Get returns the cached duration. A miss is (0, false, nil).
	Get(ctx context.Context, key string) (float64, bool, error)

	// Set stores a duration with the cache's default TTL.
	Set(ctx context.Context, key string, minutes float64) error

	// Name labels cache metrics.
	Name() string
}

// CacheKey identifies a prediction by model version and the full prepared
// feature vector. The endpoint cells group keys by area for inspection; the
// exact distance keeps rides inside one cell apart. ride must carry all four
// coordinates.
func CacheKey(version string, ride *trip.Ride, features trip.Features, precision uint) string {
	start := geo.Cell(geo.Point{Lat: *ride.StartLat, Lng: *ride.StartLng}, precision)
	end := geo.Cell(geo.Point{Lat: *ride.EndLat, Lng: *ride.EndLng}, precision)

	var b strings.Builder
	b.WriteString("pred:")
	b.WriteString(version)
	b.WriteByte(':')
	b.WriteString(features.RideableType)
	b.WriteByte(':')
	b.WriteString(start)
	b.WriteByte(':')
	b.WriteString(end)
	b.WriteByte(':')
	b.WriteString(features.StartEndID)
	b.WriteByte(':')
	b.WriteString(strconv.FormatFloat(features.TripDistance, 'g', -1, 64))
	return b.String()
}

// NewPredictionCache creates the configured cache. Backend "none" returns
// nil, which disables caching.
func NewPredictionCache(ctx context.Context, cfg *config.CacheConfig) (PredictionCache, error) {
	switch cfg.Backend {
	case "none", "":
		return nil, nil
	case "memory":
		return NewLRUCache(cfg.Capacity, cfg.TTL), nil
	case "redis":
		rc := NewRedisPredictionCache(cfg)
		if err := rc.Ping(ctx); err != nil {
			rc.Close() //nolint:errcheck
			return nil, err
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
