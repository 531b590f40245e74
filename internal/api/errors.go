// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

package api

import (
	"errors"
	"net/http"

	"github.com/placemark-app/placemark/internal/auth"
	"github.com/placemark-app/placemark/internal/geocode"
	"github.com/placemark-app/placemark/internal/place"
	"github.com/placemark-app/placemark/internal/store"
)

// errUnsupportedImageType rejects uploads outside the accepted image types.
var errUnsupportedImageType = errors.New("unsupported image type, expected png or jpeg")

// respondDomainError translates domain errors into HTTP status codes and
// stable error codes. Every sentinel the services can surface has a row
// here; anything unmatched is a 500.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	case errors.Is(err, place.ErrForbidden):
		respondError(w, http.StatusForbidden, "FORBIDDEN", "You do not own this place", nil)
	case errors.Is(err, store.ErrPlaceNotFound):
		respondError(w, http.StatusNotFound, "PLACE_NOT_FOUND", "Place not found", nil)
	case errors.Is(err, store.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
	case errors.Is(err, store.ErrEmailTaken):
		respondError(w, http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists", nil)
	case errors.Is(err, geocode.ErrNoMatch):
		respondError(w, http.StatusUnprocessableEntity, "ADDRESS_NOT_FOUND", "Could not find coordinates for the given address", nil)
	case errors.Is(err, geocode.ErrUnavailable):
		respondError(w, http.StatusBadGateway, "GEOCODER_UNAVAILABLE", "Geocoding service is unavailable, try again later", err)
	case errors.Is(err, errUnsupportedImageType):
		respondError(w, http.StatusUnprocessableEntity, "UNSUPPORTED_IMAGE", "Image must be png or jpeg", nil)
	case errors.Is(err, place.ErrInternalConsistency):
		respondError(w, http.StatusInternalServerError, "INTERNAL_INCONSISTENCY", "Account state is inconsistent, contact support", err)
	case errors.Is(err, place.ErrTransaction):
		respondError(w, http.StatusInternalServerError, "TRANSACTION_FAILED", "Could not complete the operation, nothing was changed", err)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", err)
	}
}
