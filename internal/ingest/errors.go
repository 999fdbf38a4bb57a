// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrDownloadFailed is returned once every download attempt has failed.
	ErrDownloadFailed = errors.New("download failed")

	// ErrNoCSVInArchive is returned when an archive has no .csv member.
	ErrNoCSVInArchive = errors.New("archive contains no CSV file")
)

// statusError reports an unexpected HTTP status from the object store.
type statusError struct {
	URL        string
	StatusCode int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}
