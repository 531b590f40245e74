// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

package api

import (
	"net/http"

	"github.com/placemark-app/placemark/internal/models"
	"github.com/placemark-app/placemark/internal/user"
)

// Signup handles POST /api/v1/users/signup. The body is multipart form
// data: name, email, password fields plus an optional "image" avatar part.
// The avatar is stored before the account is created; the user service
// releases it if signup aborts.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Expected multipart form data", err)
		return
	}

	req := models.SignupRequest{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	imageRef, err := h.saveUploadedImage(r)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	newUser, session, err := h.users.Signup(r.Context(), user.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		ImageRef: imageRef,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, map[string]interface{}{
		"user": newUser,
		"auth": session,
	})
}

// Login handles POST /api/v1/users/login with a JSON email/password body.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Malformed JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	session, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, session)
}

// ListUsers handles GET /api/v1/users. Password hashes never serialize.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}
