// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

// Package media stores uploaded images and releases them again.
//
// A media reference is an opaque handle produced by Save. The place and
// user records carry only the reference; the bytes live in the configured
// backend (local disk or a MinIO-compatible S3 bucket). Remove is the
// release-media side effect used both for best-effort cleanup after a
// committed delete and for mandatory cleanup when a create aborts after
// the upload already happened.
package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/placemark-app/placemark/internal/config"
)

// Store saves and removes uploaded media.
type Store interface {
	// Save persists the content and returns an opaque media reference.
	Save(ctx context.Context, ext string, content io.Reader, size int64) (string, error)

	// Remove deletes the media behind ref. Removing an already-absent ref
	// is not an error.
	Remove(ctx context.Context, ref string) error
}

// New builds the media store selected by the configuration.
func New(cfg *config.MediaConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "disk":
		return NewDiskStore(cfg.Dir)
	case "s3":
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.Backend)
	}
}

// newRef generates a collision-free object name for an upload.
func newRef(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "bin"
	}
	return uuid.New().String() + "." + ext
}
