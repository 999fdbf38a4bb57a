// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tomtom215/ridecast/internal/logging"
	"github.com/tomtom215/ridecast/internal/schedule"
)

// FlowFunc runs one execution of a flow.
type FlowFunc func(ctx context.Context) error

// ScheduledFlowService runs a flow every time its schedule fires.
//
// A failed flow execution is logged and the service keeps waiting for the
// next activation. Flow failures are already recorded by the flow itself,
// and restarting the service would only shift the schedule. Serve returns
// only when the context is canceled.
type ScheduledFlowService struct {
	name         string
	schedule     schedule.Schedule
	run          FlowFunc
	runOnStartup bool

	// startupDone survives supervisor restarts so the startup run happens
	// once per process.
	startupDone atomic.Bool

	executions atomic.Int64
	failures   atomic.Int64

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// NewScheduledFlowService wraps run with sched. When runOnStartup is set the
// flow also runs as soon as the service first starts.
func NewScheduledFlowService(name string, sched schedule.Schedule, run FlowFunc, runOnStartup bool) *ScheduledFlowService {
	return &ScheduledFlowService{
		name:         name,
		schedule:     sched,
		run:          run,
		runOnStartup: runOnStartup,
		now:          time.Now,
		after:        time.After,
	}
}

// Serve implements suture.Service.
func (s *ScheduledFlowService) Serve(ctx context.Context) error {
	logger := logging.WithComponent("scheduler")

	if s.runOnStartup && s.startupDone.CompareAndSwap(false, true) {
		s.execute(ctx)
	}

	for {
		wait, next := schedule.Wait(s.schedule, s.now())
		if wait < 0 {
			logger.Info().Str("flow", s.name).Msg("Schedule has no further activations")
			<-ctx.Done()
			return ctx.Err()
		}

		logger.Debug().
			Str("flow", s.name).
			Str("schedule", s.schedule.String()).
			Time("next_run", next).
			Msg("Waiting for next scheduled run")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.after(wait):
		}

		s.execute(ctx)
	}
}

func (s *ScheduledFlowService) execute(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.executions.Add(1)

	start := time.Now()
	if err := s.run(ctx); err != nil {
		s.failures.Add(1)
		logging.Ctx(ctx).Error().
			Err(err).
			Str("flow", s.name).
			Dur("duration", time.Since(start)).
			Msg("Scheduled flow run failed")
		return
	}
	logging.Ctx(ctx).Info().
		Str("flow", s.name).
		Dur("duration", time.Since(start)).
		Msg("Scheduled flow run finished")
}

// Executions returns how many times the flow has been started.
func (s *ScheduledFlowService) Executions() int64 {
	return s.executions.Load()
}

// Failures returns how many flow executions returned an error.
func (s *ScheduledFlowService) Failures() int64 {
	return s.failures.Load()
}

// String implements fmt.Stringer for suture's logs.
func (s *ScheduledFlowService) String() string {
	return "flow-" + s.name
}
