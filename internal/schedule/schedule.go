// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package schedule

import (
	"fmt"
	"time"
)

// Schedule yields the next activation strictly after a given time. A zero
// time means the schedule never fires again.
type Schedule interface {
	Next(after time.Time) time.Time
	String() string
}

// Interval fires at Anchor + k*Every for integer k.
type Interval struct {
	Every  time.Duration
	Anchor time.Time
}

// NewInterval returns an interval schedule anchored at anchor.
func NewInterval(every time.Duration, anchor time.Time) (*Interval, error) {
	if every <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", every)
	}
	return &Interval{Every: every, Anchor: anchor}, nil
}

// Next implements Schedule.
func (s *Interval) Next(after time.Time) time.Time {
	if after.Before(s.Anchor) {
		return s.Anchor
	}
	k := after.Sub(s.Anchor)/s.Every + 1
	return s.Anchor.Add(k * s.Every)
}

func (s *Interval) String() string {
	return "every " + s.Every.String()
}

// Wait returns the delay from now until the next activation of s, and the
// activation time itself.
func Wait(s Schedule, now time.Time) (time.Duration, time.Time) {
	next := s.Next(now)
	if next.IsZero() {
		return -1, next
	}
	return next.Sub(now), next
}
