// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/placemark-app/placemark/internal/logging"
)

type contextKey string

// ClaimsContextKey is the context key under which validated claims are
// stored for downstream handlers.
const ClaimsContextKey contextKey = "claims"

// Middleware enforces bearer-token authentication on protected routes.
type Middleware struct {
	jwtManager *JWTManager
}

// NewMiddleware creates an authentication middleware.
func NewMiddleware(jwtManager *JWTManager) *Middleware {
	return &Middleware{jwtManager: jwtManager}
}

// Authenticate validates the bearer token and stores the claims in the
// request context. Requests without a valid token get 401 and never reach
// the wrapped handler.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := extractToken(r)
		if err != nil {
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logger := logging.Ctx(r.Context())
			logger.Warn().Err(err).Msg("Token validation failed")
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// extractToken pulls the JWT from the Authorization header, falling back
// to the "token" cookie for browser clients.
func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return "", fmt.Errorf("authorization header must use Bearer scheme")
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return "", fmt.Errorf("empty bearer token")
		}
		return token, nil
	}

	cookie, err := r.Cookie("token")
	if err != nil || cookie.Value == "" {
		return "", fmt.Errorf("authentication required")
	}
	return cookie.Value, nil
}

// ClaimsFromContext retrieves validated claims from the request context.
// Returns nil when the request did not pass through Authenticate.
func ClaimsFromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(ClaimsContextKey).(*Claims); ok {
		return claims
	}
	return nil
}
