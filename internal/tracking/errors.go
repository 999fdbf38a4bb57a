// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package tracking

import (
	"errors"
	"fmt"
	"net/http"
)

// MLflow error codes used by this client.
const (
	CodeResourceDoesNotExist  = "RESOURCE_DOES_NOT_EXIST"
	CodeResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	CodeInvalidParameterValue = "INVALID_PARAMETER_VALUE"
)

var (
	// ErrNotFound matches any APIError describing a missing resource.
	ErrNotFound = errors.New("resource does not exist")

	// ErrAlreadyExists matches any APIError describing a duplicate resource.
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrCircuitOpen is returned while the circuit breaker rejects requests.
	ErrCircuitOpen = errors.New("tracking server circuit breaker is open")

	// ErrUnsupportedArtifactURI is returned for artifact URIs the proxy cannot serve.
	ErrUnsupportedArtifactURI = errors.New("unsupported artifact URI")
)

// APIError is a non-2xx response from the tracking server.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	Endpoint   string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (HTTP %d): %s", e.Endpoint, e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// Is reports whether e matches ErrNotFound or ErrAlreadyExists.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == CodeResourceDoesNotExist ||
			(e.Code == "" && e.StatusCode == http.StatusNotFound)
	case ErrAlreadyExists:
		return e.Code == CodeResourceAlreadyExists
	}
	return false
}

// retryable reports whether err should count against the circuit breaker.
// Transport failures and 5xx responses do; client errors do not.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}
