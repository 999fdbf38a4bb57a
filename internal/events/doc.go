// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

/*
Package events carries flow lifecycle events over Watermill.

Topics (prefixed with events.topic_prefix, e.g. "ridecast.run.completed"):

  - run.completed   one per training run, with its validation metrics
  - model.staged    one per staging flow, with the promoted version
  - flow.finished   one per flow execution, success or failure

Backends:
  - memory (default): Watermill's gochannel pub/sub, in-process only
  - nats: core NATS through watermill-nats; requires building with -tags nats

Publishing never fails a flow: callers log publish errors and carry on.

Payloads are JSON (goccy/go-json). Consumers attach to a Router, which
applies Watermill's Recoverer and Retry middleware:

	router, _ := events.NewRouter(bus)
	recorder := events.NewRecorder()
	recorder.Register(router)
	go router.Run(ctx)
*/
package events
