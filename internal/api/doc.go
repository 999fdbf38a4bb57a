// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

/*
Package api provides the HTTP layer of the prediction service.

Routes:

	POST /predict   predict the duration of one ride
	GET  /health    served model, uptime and recent flow activity
	GET  /metrics   Prometheus metrics

/predict accepts a ride:

	{
	  "start_station_id": "31117",
	  "end_station_id": "31602",
	  "start_lat": 38.9, "start_lng": -77.03,
	  "end_lat": 38.92, "end_lng": -77.01,
	  "rideable_type": "classic_bike"
	}

and answers with the bare prediction so existing clients keep working:

	{"duration": 13.7, "model_version": "<run id>"}

Errors on every route use the envelope

	{"status":"error","error":{"code","message","details"},"metadata":{"timestamp"}}

Middleware, outermost first: request ID, real IP, panic recovery, request
timeout, Prometheus instrumentation and CORS. /predict is additionally rate
limited per client IP with go-chi/httprate.
*/
package api
