// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

/*
Package services adapts Ridecast's long-running components to suture's
Serve(ctx) error contract.

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts the ListenAndServe pattern to Serve

Scheduled Flow (ScheduledFlowService):
  - Fires a flow on an interval or cron schedule
  - Optional run on first start, once per process
  - Failed flow runs are logged and do not restart the service

Event Router (EventRouterService):
  - Runs the Watermill router that feeds the flow status recorder

Each service implements fmt.Stringer so suture's event log names it.
*/
package services
