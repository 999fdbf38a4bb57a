// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/ridecast/internal/schedule"
)

// never is a schedule without activations.
type never struct{}

func (never) Next(time.Time) time.Time { return time.Time{} }
func (never) String() string           { return "never" }

var _ suture.Service = (*ScheduledFlowService)(nil)

// serveUntil runs svc until cond holds or the deadline passes.
func serveUntil(t *testing.T, svc *ScheduledFlowService, cond func() bool) error {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			cancel()
			<-errCh
			t.Fatal("condition not reached before deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	return <-errCh
}

func TestScheduledFlowService_RunsOnSchedule(t *testing.T) {
	t.Parallel()

	sched, err := schedule.NewInterval(10*time.Millisecond, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	var runs atomic.Int32
	svc := NewScheduledFlowService("training", sched, func(context.Context) error {
		runs.Add(1)
		return nil
	}, false)

	err = serveUntil(t, svc, func() bool { return runs.Load() >= 3 })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if svc.Executions() < 3 {
		t.Errorf("Executions() = %d, want >= 3", svc.Executions())
	}
	if svc.Failures() != 0 {
		t.Errorf("Failures() = %d, want 0", svc.Failures())
	}
}

func TestScheduledFlowService_FailuresDoNotStopSchedule(t *testing.T) {
	t.Parallel()

	sched, err := schedule.NewInterval(5*time.Millisecond, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	svc := NewScheduledFlowService("staging", sched, func(context.Context) error {
		return errors.New("no candidate runs")
	}, false)

	_ = serveUntil(t, svc, func() bool { return svc.Failures() >= 2 })
	if svc.Executions() < 2 {
		t.Errorf("Executions() = %d, want >= 2", svc.Executions())
	}
}

func TestScheduledFlowService_RunOnStartupOnce(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	svc := NewScheduledFlowService("staging", never{}, func(context.Context) error {
		runs.Add(1)
		return nil
	}, true)

	_ = serveUntil(t, svc, func() bool { return runs.Load() == 1 })
	// A restarted service must not repeat the startup run.
	_ = serveUntil(t, svc, func() bool { return true })

	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
	if got := svc.String(); got != "flow-staging" {
		t.Errorf("String() = %q", got)
	}
}

func TestScheduledFlowService_InjectedClock(t *testing.T) {
	t.Parallel()

	cron, err := schedule.ParseCronIn("0 9 1 * *", time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	var waited atomic.Int64
	fired := make(chan time.Time)
	var runs atomic.Int32

	svc := NewScheduledFlowService("staging", cron, func(context.Context) error {
		runs.Add(1)
		return nil
	}, false)
	svc.now = func() time.Time { return time.Date(2022, 6, 1, 8, 0, 0, 0, time.UTC) }
	svc.after = func(d time.Duration) <-chan time.Time {
		waited.Store(int64(d))
		return fired
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	fired <- time.Now()
	for runs.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-errCh

	if got := time.Duration(waited.Load()); got != time.Hour {
		t.Errorf("waited %v before first run, want 1h", got)
	}
}
