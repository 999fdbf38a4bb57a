// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tomtom215/ridecast/internal/config"
	"github.com/tomtom215/ridecast/internal/logging"
	"github.com/tomtom215/ridecast/internal/metrics"
	"github.com/tomtom215/ridecast/internal/validation"
)

const userAgent = "Ridecast-Ingest/1.0"

// Downloader fetches trip archives from the object store.
type Downloader struct {
	client   *http.Client
	baseURL  string
	dir      string
	attempts int
	delay    time.Duration
}

// NewDownloader creates a downloader. A nil client gets one with
// cfg.DownloadTimeout as its timeout.
func NewDownloader(cfg *config.DataConfig, client *http.Client) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: cfg.DownloadTimeout}
	}
	attempts := cfg.DownloadAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Downloader{
		client:   client,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		dir:      cfg.Dir,
		attempts: attempts,
		delay:    cfg.DownloadRetryDelay,
	}
}

// Path returns the local path an archive is stored at.
func (d *Downloader) Path(file string) string {
	return filepath.Join(d.dir, file)
}

// Fetch ensures file is present in the data directory and returns its path.
// An existing file is reused without any network call.
func (d *Downloader) Fetch(ctx context.Context, file string) (string, error) {
	if err := validation.ValidateArchiveName(file); err != nil {
		return "", err
	}

	path := d.Path(file)
	if _, err := os.Stat(path); err == nil {
		logging.Ctx(ctx).Info().Str("path", path).Msg("Archive already present, skipping download")
		metrics.RecordDownload("skipped", 0)
		return path, nil
	}

	if err := os.MkdirAll(d.dir, 0o750); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}

	url := d.baseURL + "/" + file
	var lastErr error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if attempt > 1 {
			logging.Ctx(ctx).Info().
				Int("attempt", attempt).
				Int("max_attempts", d.attempts).
				Dur("delay", d.delay).
				Msg("Retrying archive download")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(d.delay):
			}
		}

		n, err := d.download(ctx, url, path)
		if err == nil {
			metrics.RecordDownload("success", n)
			logging.Ctx(ctx).Info().
				Str("url", url).
				Str("path", path).
				Int64("bytes", n).
				Msg("Downloaded archive")
			return path, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
		}

		lastErr = err
		metrics.RecordDownload("error", 0)
		logging.Ctx(ctx).Warn().Err(err).Int("attempt", attempt).Str("url", url).Msg("Archive download attempt failed")
	}

	return "", fmt.Errorf("%w: %s after %d attempts: %w", ErrDownloadFailed, file, d.attempts, lastErr)
}

// download writes url to path through a temporary file so an interrupted
// transfer never leaves a file that Fetch would later treat as complete.
func (d *Downloader) download(ctx context.Context, url, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return 0, &statusError{URL: url, StatusCode: resp.StatusCode}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	n, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr == nil && resp.ContentLength > 0 && n != resp.ContentLength {
		copyErr = fmt.Errorf("short body: got %d of %d bytes", n, resp.ContentLength)
	}
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		if copyErr != nil {
			return 0, fmt.Errorf("write %s: %w", path, copyErr)
		}
		return 0, fmt.Errorf("close %s: %w", path, closeErr)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("rename %s: %w", path, err)
	}
	return n, nil
}
