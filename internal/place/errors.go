// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

package place

import "errors"

// Domain errors surfaced by the lifecycle service. Store-level not-found
// conditions (store.ErrPlaceNotFound, store.ErrUserNotFound) and resolver
// failures (geocode.ErrNoMatch, geocode.ErrUnavailable) propagate with
// their original identity so the HTTP layer can match on errors.Is.
var (
	// ErrForbidden means the authenticated principal is not the creator of
	// the place it tried to mutate. Nothing was changed.
	ErrForbidden = errors.New("principal is not the owner of this place")

	// ErrTransaction means the atomic dual-write or dual-delete failed to
	// commit. No partial state is observable.
	ErrTransaction = errors.New("place transaction failed")

	// ErrInternalConsistency means the authenticated principal's user
	// record is missing. Authentication guarantees the user existed, so
	// this indicates a consistency fault, not caller error.
	ErrInternalConsistency = errors.New("authenticated user record missing")
)
