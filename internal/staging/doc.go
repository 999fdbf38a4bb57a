// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

// Package staging selects the best run of an experiment and promotes its
// model to the Staging stage of the registry.
//
// Selection searches active runs ordered by validation RMSE ascending and
// takes the first. Registration is an explicit two step protocol: the
// registered model is fetched and created only when the tracker reports it
// does not exist, then a new version is always created from the run's model
// artifact. The version is transitioned without archiving existing Staging
// versions and its description records when the promotion happened.
package staging
