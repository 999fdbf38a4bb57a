// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package ingest

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxCSVSize bounds a single extracted member (monthly exports are a few
// hundred MB uncompressed).
const maxCSVSize = 4 << 30

// ExtractFirstCSV writes the first .csv member of the zip at archivePath into
// destDir and returns the path of the extracted file. Members are visited in
// archive order; directory components of the member name are discarded.
func ExtractFirstCSV(archivePath, destDir string) (string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".csv") {
			continue
		}
		base := filepath.Base(f.Name)
		// macOS archives carry resource forks such as __MACOSX/._name.csv
		if strings.HasPrefix(base, "._") {
			continue
		}
		return extractMember(f, destDir)
	}
	return "", fmt.Errorf("%w: %s", ErrNoCSVInArchive, archivePath)
}

func extractMember(f *zip.File, destDir string) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open member %s: %w", f.Name, err)
	}
	defer rc.Close()

	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	out, err := os.CreateTemp(destDir, "extract-*-"+filepath.Base(f.Name))
	if err != nil {
		return "", fmt.Errorf("create extract file: %w", err)
	}

	n, err := io.Copy(out, io.LimitReader(rc, maxCSVSize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > maxCSVSize {
		err = fmt.Errorf("member %s exceeds %d bytes", f.Name, int64(maxCSVSize))
	}
	if err != nil {
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return out.Name(), nil
}
