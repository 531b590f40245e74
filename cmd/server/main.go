// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

// Package main is the entry point for the Placemark API server.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, config.yaml, env)
//  2. Logging: zerolog global logger from config
//  3. Store: BadgerDB with the user/place key layout
//  4. Media: local disk or S3-compatible object storage
//  5. Geocoder: HTTP client with circuit breaker and rate limit
//  6. Services and HTTP router (Chi)
//
// Environment variables use the PLACEMARK_ prefix, for example
// PLACEMARK_SERVER_PORT=5000 or PLACEMARK_SECURITY_JWT_SECRET=...
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, waits for in-flight requests up to the configured
// shutdown timeout, then closes the store.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/placemark-app/placemark/internal/api"
	"github.com/placemark-app/placemark/internal/auth"
	"github.com/placemark-app/placemark/internal/config"
	"github.com/placemark-app/placemark/internal/geocode"
	"github.com/placemark-app/placemark/internal/logging"
	"github.com/placemark-app/placemark/internal/media"
	"github.com/placemark-app/placemark/internal/place"
	"github.com/placemark-app/placemark/internal/store"
	"github.com/placemark-app/placemark/internal/user"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("listen_addr", cfg.Server.ListenAddr()).
		Str("db_path", cfg.Database.Path).
		Str("media_backend", cfg.Media.Backend).
		Str("geocoder", cfg.Geocode.BaseURL).
		Msg("Configuration loaded")

	st, err := store.Open(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()
	logging.Info().Msg("Store opened")

	mediaStore, err := media.New(&cfg.Media)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize media storage")
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	hasher, err := auth.NewPasswordHasher(cfg.Security.BcryptCost)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize password hasher")
	}

	resolver := geocode.NewClient(&cfg.Geocode)

	userService := user.NewService(st, hasher, jwtManager, mediaStore)
	placeService := place.NewService(st, resolver, mediaStore)

	handler := api.NewHandler(userService, placeService, mediaStore, cfg, st)
	router := api.NewRouter(handler, auth.NewMiddleware(jwtManager), cfg)

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed, forcing close")
		if err := srv.Close(); err != nil {
			logging.Error().Err(err).Msg("Forced close failed")
		}
	}

	logging.Info().Msg("Server stopped")
}
