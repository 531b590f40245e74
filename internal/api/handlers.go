// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

package api

import (
	"net/http"
	"time"

	"github.com/placemark-app/placemark/internal/config"
	"github.com/placemark-app/placemark/internal/media"
	"github.com/placemark-app/placemark/internal/place"
	"github.com/placemark-app/placemark/internal/user"
)

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct, constructor, health endpoint (this file)
//   - handlers_helpers.go: response envelope and multipart helpers
//   - handlers_users.go: signup, login, user listing
//   - handlers_places.go: place CRUD
type Handler struct {
	users     *user.Service
	places    *place.Service
	media     media.Store
	config    *config.Config
	pinger    Pinger
	startTime time.Time
}

// Pinger reports whether the backing store is reachable. Satisfied by
// *store.Store.
type Pinger interface {
	Ping() error
}

// NewHandler creates the API handler with all required dependencies.
func NewHandler(users *user.Service, places *place.Service, mediaStore media.Store, cfg *config.Config, pinger Pinger) *Handler {
	return &Handler{
		users:     users,
		places:    places,
		media:     mediaStore,
		config:    cfg,
		pinger:    pinger,
		startTime: time.Now(),
	}
}

// Health reports liveness and store readiness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	httpStatus := http.StatusOK
	if err := h.pinger.Ping(); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respondSuccess(w, httpStatus, map[string]interface{}{
		"status":         status,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	})
}
