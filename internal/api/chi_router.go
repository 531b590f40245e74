// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

// Package api provides the HTTP layer: Chi routing, the response envelope,
// and translation of domain errors to status codes.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/placemark-app/placemark/internal/auth"
	"github.com/placemark-app/placemark/internal/config"
	"github.com/placemark-app/placemark/internal/middleware"
)

// Router wires handlers and middleware into a Chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	authMW        *auth.Middleware
	config        *config.Config
}

// NewRouter creates the router from its dependencies.
func NewRouter(handler *Handler, authMW *auth.Middleware, cfg *config.Config) *Router {
	return &Router{
		handler: handler,
		chiMiddleware: NewChiMiddleware(&ChiMiddlewareConfig{
			CORSAllowedOrigins:     cfg.Server.CORSOrigins,
			RateLimitRequests:      cfg.Security.RateLimitReqs,
			RateLimitWindow:        cfg.Security.RateLimitWindow,
			LoginRateLimitRequests: cfg.Security.LoginRateLimit,
			LoginRateLimitWindow:   cfg.Security.LoginRateWindow,
		}),
		authMW: authMW,
		config: cfg,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler so it can be used with r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// chiPathValue bridges Chi URL params to r.PathValue(). Chi stores params
// in its own route context; handlers read them through the Go 1.22
// PathValue accessor.
func chiPathValue(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		if rctx != nil {
			for i, key := range rctx.URLParams.Keys {
				if i < len(rctx.URLParams.Values) {
					r.SetPathValue(key, rctx.URLParams.Values[i])
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiPathValue)

		r.Get("/health", router.handler.Health)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", router.handler.ListUsers)
			r.Post("/signup", router.handler.Signup)
			r.With(router.chiMiddleware.RateLimitLogin()).Post("/login", router.handler.Login)
			r.Get("/{userID}/places", router.handler.ListUserPlaces)
		})

		r.Route("/places", func(r chi.Router) {
			r.Get("/{placeID}", router.handler.GetPlace)

			// Mutations require a valid bearer token.
			r.Group(func(r chi.Router) {
				r.Use(chiMiddleware(router.authMW.Authenticate))
				r.Post("/", router.handler.CreatePlace)
				r.Patch("/{placeID}", router.handler.UpdatePlace)
				r.Delete("/{placeID}", router.handler.DeletePlace)
			})
		})
	})

	// Static media serving only applies to the disk backend; S3 objects are
	// served by the object store itself.
	if router.config.Media.Backend == "disk" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(router.config.Media.Dir)))
		r.Handle("/uploads/*", fs)
	}

	r.Handle("/metrics", promhttp.Handler())

	return r
}
