// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

// Package ml implements the regression pipelines trained on trip features.
//
// A Pipeline chains three stages:
//
//	DictVectorizer -> MeanImputer -> Regressor
//
// # DictVectorizer
//
// Samples are keyed values. Categorical values become one-hot columns named
// "key=value"; numeric values keep the key as column name. The vocabulary is
// sorted, so the column layout is deterministic for a given training set.
// Categories not seen during Fit are ignored by Transform. Output rows are
// sparse: a trip sample has at most three non-zero entries.
//
// # MeanImputer
//
// NaN entries are replaced by the training mean of their column. Implicit
// zeros count as observed values.
//
// # Regressors
//
//   - ridge: L2-regularised least squares with an unpenalised intercept,
//     solved by conjugate gradients on the implicitly centred sparse design.
//   - gradient_boosting: least-squares boosting of shallow regression trees.
//   - random_forest: bootstrap-aggregated regression trees.
//
// Trees split one-hot columns at 0.5 and numeric columns at histogram bin
// edges (at most MaxBins bins per column), which keeps node cost linear in the
// number of samples reaching the node.
//
// All randomness is drawn from a PCG generator seeded with the configured
// random state (42 by default), so training is reproducible.
//
// # Thread Safety
//
// Fit takes an exclusive lock, Predict a shared one. A fitted pipeline can
// serve concurrent predictions.
//
// # Artifacts
//
// MarshalPipeline writes a self-describing JSON document; LoadPipeline reads
// it back and restores a ready-to-predict pipeline.
package ml
