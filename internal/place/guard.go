// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

package place

import "github.com/placemark-app/placemark/internal/models"

// CanMutate reports whether the principal may update or delete the place.
// The rule is owner-only: the place's creator ID must equal the principal
// ID, compared as plain strings. Pure function, no I/O.
//
// Create needs no guard: there is no prior owner, and the authenticated
// principal becomes the creator.
func CanMutate(principalUserID string, place *models.Place) bool {
	return place != nil && principalUserID != "" && place.Creator == principalUserID
}
