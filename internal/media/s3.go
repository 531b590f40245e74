// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

package media

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/placemark-app/placemark/internal/config"
)

const defaultContentType = "application/octet-stream"

// S3Store keeps uploads in a MinIO-compatible object store. References
// are object names within the configured bucket.
type S3Store struct {
	client *minio.Client
	bucket string
}

// NewS3Store creates a MinIO client for the configured endpoint.
func NewS3Store(cfg *config.MediaConfig) (*S3Store, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return &S3Store{
		client: client,
		bucket: cfg.S3Bucket,
	}, nil
}

// Save uploads the content as a fresh object and returns its name.
func (s *S3Store) Save(ctx context.Context, ext string, content io.Reader, size int64) (string, error) {
	ref := newRef(ext)

	_, err := s.client.PutObject(ctx, s.bucket, ref, content, size,
		minio.PutObjectOptions{ContentType: defaultContentType})
	if err != nil {
		return "", fmt.Errorf("upload media object: %w", err)
	}

	return ref, nil
}

// Remove deletes the object behind ref. MinIO treats removing a missing
// object as success, which matches the Store contract.
func (s *S3Store) Remove(ctx context.Context, ref string) error {
	err := s.client.RemoveObject(ctx, s.bucket, ref, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("remove media object: %w", err)
	}
	return nil
}
