// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps uploads in a local directory. References are bare file
// names; path traversal in a reference is rejected on every operation.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the upload directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the upload directory, used by the HTTP layer to serve
// uploads statically.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save writes the content to a fresh file and returns its name.
func (s *DiskStore) Save(ctx context.Context, ext string, content io.Reader, size int64) (string, error) {
	ref := newRef(ext)

	f, err := os.OpenFile(filepath.Join(s.dir, ref), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close media file: %w", err)
	}

	return ref, nil
}

// Remove deletes the file behind ref. A missing file is treated as
// already released.
func (s *DiskStore) Remove(ctx context.Context, ref string) error {
	if err := validateRef(ref); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(s.dir, ref))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}

// validateRef rejects references that escape the upload directory.
func validateRef(ref string) error {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return fmt.Errorf("invalid media reference %q", ref)
	}
	return nil
}
