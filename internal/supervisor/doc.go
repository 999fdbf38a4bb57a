// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

/*
Package supervisor runs the long-lived parts of the Ridecast server under
suture v4.

# Overview

	RootSupervisor ("ridecast")
	├── FlowsSupervisor ("flows-layer")
	│   ├── ScheduledFlowService ("training")
	│   └── ScheduledFlowService ("staging")
	├── MessagingSupervisor ("messaging-layer")
	│   └── EventRouterService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Each layer counts failures independently, so a flow stuck in restart
backoff does not take the prediction endpoint with it.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddFlowService(services.NewScheduledFlowService("training", sched, runTraining, cfg.Training.RunOnStartup))
	tree.AddMessagingService(services.NewEventRouterService(router))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	errCh := tree.ServeBackground(ctx)
	<-ctx.Done()
	<-errCh

Supervisor events (restarts, backoff, panics) are logged through sutureslog
into the zerolog logger.
*/
package supervisor
