// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package tracking

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
)

const artifactProxyPrefix = "/api/2.0/mlflow-artifacts/artifacts/"

// ArtifactPath maps an artifact URI onto the path served by the artifact
// proxy. "mlflow-artifacts:" URIs map to their path; object store URIs
// (s3, gs, wasbs) drop the scheme and bucket, as the proxy serves the
// server's default artifact root.
//
//	mlflow-artifacts:/1/abc/artifacts           -> 1/abc/artifacts
//	s3://bucket/1/abc/artifacts/model           -> 1/abc/artifacts/model
func ArtifactPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrUnsupportedArtifactURI, uri, err)
	}

	var p string
	switch u.Scheme {
	case "mlflow-artifacts":
		p = u.Path
		if p == "" {
			p = u.Opaque
		}
	case "s3", "gs", "wasbs":
		if u.Host == "" {
			return "", fmt.Errorf("%w: %q has no bucket", ErrUnsupportedArtifactURI, uri)
		}
		p = u.Path
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedArtifactURI, uri)
	}

	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return "", fmt.Errorf("%w: %q has no path", ErrUnsupportedArtifactURI, uri)
	}
	return p, nil
}

func artifactTarget(artifactURI, relPath string) (string, error) {
	base, err := ArtifactPath(artifactURI)
	if err != nil {
		return "", err
	}
	full := path.Join(base, relPath)
	if full != base && !strings.HasPrefix(full, base+"/") {
		return "", fmt.Errorf("artifact path %q escapes %q", relPath, artifactURI)
	}

	segments := strings.Split(full, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return artifactProxyPrefix + strings.Join(segments, "/"), nil
}

// UploadArtifact stores data at relPath below artifactURI.
func (c *Client) UploadArtifact(ctx context.Context, artifactURI, relPath string, data []byte) error {
	target, err := artifactTarget(artifactURI, relPath)
	if err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	_, err = c.send(ctx, "artifacts/upload", http.MethodPut, target, "application/octet-stream", data)
	return err
}

// DownloadArtifact reads relPath below artifactURI. An empty relPath reads
// artifactURI itself.
func (c *Client) DownloadArtifact(ctx context.Context, artifactURI, relPath string) ([]byte, error) {
	target, err := artifactTarget(artifactURI, relPath)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, "artifacts/download", http.MethodGet, target, "", nil)
}
