// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

package store

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/placemark-app/placemark/internal/metrics"
	"github.com/placemark-app/placemark/internal/models"
)

// GetPlaceByID retrieves a place by ID.
func (s *Store) GetPlaceByID(ctx context.Context, id string) (*models.Place, error) {
	var place models.Place
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, placeKey(id), &place, ErrPlaceNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &place, nil
}

// ListPlacesByOwner returns every place owned by the given user, resolved
// through the user's OwnedPlaceIDs list in a single read transaction. A
// list entry without a matching place record indicates store corruption
// and is surfaced as an error rather than silently skipped.
func (s *Store) ListPlacesByOwner(ctx context.Context, userID string) ([]models.Place, error) {
	places := []models.Place{}
	err := s.db.View(func(txn *badger.Txn) error {
		var user models.User
		if err := getJSON(txn, userKey(userID), &user, ErrUserNotFound); err != nil {
			return err
		}

		for _, placeID := range user.OwnedPlaceIDs {
			var place models.Place
			if err := getJSON(txn, placeKey(placeID), &place, ErrPlaceNotFound); err != nil {
				return fmt.Errorf("owned place %s of user %s: %w", placeID, userID, err)
			}
			places = append(places, place)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return places, nil
}

// CreatePlaceWithOwner atomically inserts the place and appends its ID to
// the creator's OwnedPlaceIDs. Either both records commit or neither is
// visible to any reader. A missing creator aborts the whole transaction,
// including the already-buffered place write.
func (s *Store) CreatePlaceWithOwner(ctx context.Context, place *models.Place) error {
	data, err := json.Marshal(place)
	if err != nil {
		return fmt.Errorf("marshal place: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(placeKey(place.ID), data); err != nil {
			return fmt.Errorf("set place: %w", err)
		}

		var owner models.User
		if err := getJSON(txn, userKey(place.Creator), &owner, ErrUserNotFound); err != nil {
			return err
		}

		owner.OwnedPlaceIDs = append(owner.OwnedPlaceIDs, place.ID)
		ownerData, err := json.Marshal(&owner)
		if err != nil {
			return fmt.Errorf("marshal owner: %w", err)
		}
		if err := txn.Set(userKey(owner.ID), ownerData); err != nil {
			return fmt.Errorf("set owner: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.StoreTxnsTotal.WithLabelValues("create_place", "failure").Inc()
		return mapTxnErr(err)
	}

	metrics.StoreTxnsTotal.WithLabelValues("create_place", "success").Inc()
	return nil
}

// UpdatePlace persists a modified place record. The write is conditioned
// on the place still existing, so an update racing a delete fails with
// ErrPlaceNotFound instead of resurrecting the record.
func (s *Store) UpdatePlace(ctx context.Context, place *models.Place) error {
	data, err := json.Marshal(place)
	if err != nil {
		return fmt.Errorf("marshal place: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		var existing models.Place
		if err := getJSON(txn, placeKey(place.ID), &existing, ErrPlaceNotFound); err != nil {
			return err
		}
		return txn.Set(placeKey(place.ID), data)
	})
	if err != nil {
		metrics.StoreTxnsTotal.WithLabelValues("update_place", "failure").Inc()
		return mapTxnErr(err)
	}

	metrics.StoreTxnsTotal.WithLabelValues("update_place", "success").Inc()
	return nil
}

// DeletePlaceWithOwner atomically removes the place and its entry in the
// creator's OwnedPlaceIDs. The transaction is conditioned on the place
// existing at commit time: the second of two concurrent deletes reads an
// absent key (or hits a conflict) and the owner's list is never shortened
// twice. Returns the place as read inside the transaction so the caller
// can release its media afterward.
func (s *Store) DeletePlaceWithOwner(ctx context.Context, placeID string) (*models.Place, error) {
	var place models.Place

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, placeKey(placeID), &place, ErrPlaceNotFound); err != nil {
			return err
		}

		var owner models.User
		if err := getJSON(txn, userKey(place.Creator), &owner, ErrUserNotFound); err != nil {
			return err
		}

		owner.OwnedPlaceIDs = removeID(owner.OwnedPlaceIDs, placeID)
		ownerData, err := json.Marshal(&owner)
		if err != nil {
			return fmt.Errorf("marshal owner: %w", err)
		}
		if err := txn.Set(userKey(owner.ID), ownerData); err != nil {
			return fmt.Errorf("set owner: %w", err)
		}
		if err := txn.Delete(placeKey(placeID)); err != nil {
			return fmt.Errorf("delete place: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.StoreTxnsTotal.WithLabelValues("delete_place", "failure").Inc()
		return nil, mapTxnErr(err)
	}

	metrics.StoreTxnsTotal.WithLabelValues("delete_place", "success").Inc()
	return &place, nil
}

// removeID returns ids without the first occurrence of id.
func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	removed := false
	for _, v := range ids {
		if !removed && v == id {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out
}
