// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

package api

import (
	"net/http"
	"strings"

	"github.com/placemark-app/placemark/internal/auth"
	"github.com/placemark-app/placemark/internal/models"
	"github.com/placemark-app/placemark/internal/place"
)

// GetPlace handles GET /api/v1/places/{placeID}.
func (h *Handler) GetPlace(w http.ResponseWriter, r *http.Request) {
	placeID := r.PathValue("placeID")

	p, err := h.places.GetByID(r.Context(), placeID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"place": p})
}

// ListUserPlaces handles GET /api/v1/users/{userID}/places. A user with no
// places gets an empty list, not a 404; only a missing user is a 404.
func (h *Handler) ListUserPlaces(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	places, err := h.places.ListByUser(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if places == nil {
		places = []models.Place{}
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"places": places,
		"count":  len(places),
	})
}

// CreatePlace handles POST /api/v1/places. Accepts multipart form data
// (title, description, address fields plus an optional "image" part) or a
// plain JSON body without an image. The authenticated principal becomes
// the creator.
func (h *Handler) CreatePlace(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	var req models.CreatePlaceRequest
	var imageRef string

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Malformed multipart form data", err)
			return
		}
		req = models.CreatePlaceRequest{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			Address:     r.FormValue("address"),
		}
		if apiErr := validateRequest(&req); apiErr != nil {
			respondValidationError(w, apiErr)
			return
		}
		ref, err := h.saveUploadedImage(r)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		imageRef = ref
	} else {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Malformed JSON body", err)
			return
		}
		if apiErr := validateRequest(&req); apiErr != nil {
			respondValidationError(w, apiErr)
			return
		}
	}

	created, err := h.places.Create(r.Context(), claims.UserID, place.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		MediaRef:    imageRef,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, map[string]interface{}{"place": created})
}

// UpdatePlace handles PATCH /api/v1/places/{placeID}. Only the creator may
// update, and only title and description are mutable.
func (h *Handler) UpdatePlace(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}
	placeID := r.PathValue("placeID")

	var req models.UpdatePlaceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Malformed JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	updated, err := h.places.Update(r.Context(), claims.UserID, placeID, place.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"place": updated})
}

// DeletePlace handles DELETE /api/v1/places/{placeID}. Only the creator
// may delete. The place and its entry in the creator's list go in one
// transaction; media cleanup afterwards is best-effort.
func (h *Handler) DeletePlace(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}
	placeID := r.PathValue("placeID")

	if err := h.places.Delete(r.Context(), claims.UserID, placeID); err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"deleted": placeID})
}
