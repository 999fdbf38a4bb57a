// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

// Package training implements the training flow.
//
// A flow execution:
//
//  1. selects the experiment "<prefix><YYYY-MM-DD>" for the expected start
//     date, creating it when missing
//  2. prepares the training and validation archives (package ingest)
//  3. for each configured algorithm, in order, fits a
//     DictVectorizer -> MeanImputer -> regressor pipeline in its own
//     tracked run, logs tags, hyperparameters and MAE/RMSE/inference-time
//     metrics, uploads the pipeline as model/model.json and marks the run
//     FINISHED
//
// Candidates are not isolated: the first failing algorithm marks its run
// FAILED and aborts the flow.
package training
