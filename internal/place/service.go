// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

// Package place implements the place lifecycle: creation with external
// coordinate resolution and a transactional dual-write, owner-checked
// updates, and deletion with a transactional dual-delete followed by
// best-effort media cleanup.
//
// The central guarantee: after any operation, failed or not, every user's
// OwnedPlaceIDs equals exactly the set of place IDs whose Creator is that
// user. The service never mutates one side of the relationship without
// the other; the store's transaction makes both changes visible at once.
package place

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/placemark-app/placemark/internal/geocode"
	"github.com/placemark-app/placemark/internal/logging"
	"github.com/placemark-app/placemark/internal/media"
	"github.com/placemark-app/placemark/internal/metrics"
	"github.com/placemark-app/placemark/internal/models"
	"github.com/placemark-app/placemark/internal/store"
)

// Store is the persistence surface the lifecycle service needs. It is
// satisfied by *store.Store; tests substitute failing implementations to
// exercise the abort paths.
type Store interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetPlaceByID(ctx context.Context, id string) (*models.Place, error)
	ListPlacesByOwner(ctx context.Context, userID string) ([]models.Place, error)
	CreatePlaceWithOwner(ctx context.Context, place *models.Place) error
	UpdatePlace(ctx context.Context, place *models.Place) error
	DeletePlaceWithOwner(ctx context.Context, placeID string) (*models.Place, error)
}

// Service orchestrates place create/update/delete across the store, the
// coordinate resolver and the media store.
type Service struct {
	store    Store
	resolver geocode.Resolver
	media    media.Store
	logger   zerolog.Logger
}

// NewService wires the lifecycle service.
func NewService(st Store, resolver geocode.Resolver, mediaStore media.Store) *Service {
	return &Service{
		store:    st,
		resolver: resolver,
		media:    mediaStore,
		logger:   logging.With().Str("component", "place").Logger(),
	}
}

// CreateInput carries the caller-provided fields for a new place.
// MediaRef is the reference of the already-uploaded place photo; the
// service takes ownership of it and releases it on every abort path.
type CreateInput struct {
	Title       string
	Description string
	Address     string
	MediaRef    string
}

// UpdateInput carries the mutable place fields.
type UpdateInput struct {
	Title       string
	Description string
}

// Create resolves the address, verifies the principal exists, then
// atomically inserts the place and appends it to the owner's list.
//
// Coordinate resolution completes strictly before any store mutation: a
// resolver failure (geocode.ErrNoMatch, geocode.ErrUnavailable) aborts
// with zero writes. Any abort after the caller already uploaded media
// releases that upload so it cannot leak unreferenced.
func (s *Service) Create(ctx context.Context, principalUserID string, in CreateInput) (*models.Place, error) {
	location, err := s.resolver.Resolve(ctx, in.Address)
	if err != nil {
		s.releaseMedia(ctx, in.MediaRef)
		return nil, err
	}

	if _, err := s.store.GetUserByID(ctx, principalUserID); err != nil {
		s.releaseMedia(ctx, in.MediaRef)
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrInternalConsistency, principalUserID)
		}
		return nil, fmt.Errorf("load principal: %w", err)
	}

	newPlace := &models.Place{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: in.Description,
		Address:     in.Address,
		Location:    location,
		ImageRef:    in.MediaRef,
		Creator:     principalUserID,
	}

	if err := s.store.CreatePlaceWithOwner(ctx, newPlace); err != nil {
		s.releaseMedia(ctx, in.MediaRef)
		if errors.Is(err, store.ErrUserNotFound) {
			// Principal vanished between the pre-check and the commit.
			return nil, fmt.Errorf("%w: user %s", ErrInternalConsistency, principalUserID)
		}
		return nil, fmt.Errorf("%w: %v", ErrTransaction, err)
	}

	s.logger.Info().
		Str("place_id", newPlace.ID).
		Str("creator", principalUserID).
		Msg("Place created")
	return newPlace, nil
}

// Update mutates title and description of an owned place. Address,
// location, image and creator are immutable. A single-record write; no
// dual transaction is needed.
func (s *Service) Update(ctx context.Context, principalUserID, placeID string, in UpdateInput) (*models.Place, error) {
	existing, err := s.store.GetPlaceByID(ctx, placeID)
	if err != nil {
		return nil, err
	}

	if !CanMutate(principalUserID, existing) {
		return nil, ErrForbidden
	}

	existing.Title = in.Title
	existing.Description = in.Description

	if err := s.store.UpdatePlace(ctx, existing); err != nil {
		if errors.Is(err, store.ErrPlaceNotFound) {
			// Lost the race against a concurrent delete; report it as gone.
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrTransaction, err)
	}

	return existing, nil
}

// Delete removes an owned place and its entry in the creator's list in
// one transaction, then releases the place's media best-effort. A second
// concurrent delete of the same place observes it already gone and fails
// with store.ErrPlaceNotFound; the owner's list is never shortened twice.
func (s *Service) Delete(ctx context.Context, principalUserID, placeID string) error {
	existing, err := s.store.GetPlaceByID(ctx, placeID)
	if err != nil {
		return err
	}

	if !CanMutate(principalUserID, existing) {
		return ErrForbidden
	}

	deleted, err := s.store.DeletePlaceWithOwner(ctx, placeID)
	if err != nil {
		if errors.Is(err, store.ErrPlaceNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrTransaction, err)
	}

	// The deletion is committed; a media failure from here on is logged,
	// never surfaced, and never rolls anything back.
	if deleted.ImageRef != "" {
		if err := s.media.Remove(ctx, deleted.ImageRef); err != nil {
			metrics.MediaCleanupFailures.Inc()
			s.logger.Warn().
				Err(err).
				Str("place_id", placeID).
				Str("media_ref", deleted.ImageRef).
				Msg("Best-effort media cleanup failed after delete")
		}
	}

	s.logger.Info().
		Str("place_id", placeID).
		Str("creator", principalUserID).
		Msg("Place deleted")
	return nil
}

// GetByID fetches a single place.
func (s *Service) GetByID(ctx context.Context, placeID string) (*models.Place, error) {
	return s.store.GetPlaceByID(ctx, placeID)
}

// ListByUser returns all places owned by the given user.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.Place, error) {
	return s.store.ListPlacesByOwner(ctx, userID)
}

// releaseMedia removes an upload that the aborted operation never took
// ownership of. Removal failure is logged and counted; the original abort
// error is what the caller sees.
func (s *Service) releaseMedia(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.media.Remove(ctx, ref); err != nil {
		metrics.MediaCleanupFailures.Inc()
		s.logger.Warn().
			Err(err).
			Str("media_ref", ref).
			Msg("Failed to release media after aborted create")
	}
}
