// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// ChiMiddlewareConfig holds configuration for the Chi middleware factories.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins []string

	// General per-IP budget applied to all API routes.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Stricter budget for the login endpoint, brute force prevention.
	LoginRateLimitRequests int
	LoginRateLimitWindow   time.Duration
}

// ChiMiddleware provides Chi-compatible middleware built on the
// production-hardened go-chi ecosystem implementations.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates the middleware factory. CORS origins default to
// empty, so cross-origin access requires explicit configuration.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: config.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	})

	return &ChiMiddleware{
		config: config,
		cors:   corsHandler,
	}
}

// CORS returns the go-chi/cors handler. Global, so OPTIONS preflight works
// on every route.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns per-IP rate limiting via go-chi/httprate. A
// non-positive request budget disables it.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.limit(m.config.RateLimitRequests, m.config.RateLimitWindow)
}

// RateLimitLogin returns the stricter per-IP budget for login attempts.
func (m *ChiMiddleware) RateLimitLogin() func(http.Handler) http.Handler {
	return m.limit(m.config.LoginRateLimitRequests, m.config.LoginRateLimitWindow)
}

func (m *ChiMiddleware) limit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, slow down", nil)
		}),
	)
}
