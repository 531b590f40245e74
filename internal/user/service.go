// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

// Package user implements signup, login and user listing.
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/placemark-app/placemark/internal/auth"
	"github.com/placemark-app/placemark/internal/logging"
	"github.com/placemark-app/placemark/internal/media"
	"github.com/placemark-app/placemark/internal/models"
	"github.com/placemark-app/placemark/internal/store"
)

// Store is the persistence surface the user service needs.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Service handles account creation and authentication.
type Service struct {
	store  Store
	hasher *auth.PasswordHasher
	jwt    *auth.JWTManager
	media  media.Store
	logger zerolog.Logger
}

// NewService wires the user service.
func NewService(st Store, hasher *auth.PasswordHasher, jwt *auth.JWTManager, mediaStore media.Store) *Service {
	return &Service{
		store:  st,
		hasher: hasher,
		jwt:    jwt,
		media:  mediaStore,
		logger: logging.With().Str("component", "user").Logger(),
	}
}

// SignupInput carries the caller-provided fields for a new account.
// ImageRef is the already-uploaded avatar; the service releases it when
// signup aborts so the upload cannot leak unreferenced.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	ImageRef string
}

// Signup creates an account and returns it with a fresh token. A reused
// email fails with store.ErrEmailTaken; the uniqueness check and the user
// insert are one store transaction, so concurrent signups on the same
// email cannot both succeed.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.User, *models.LoginResponse, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.releaseMedia(ctx, in.ImageRef)
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	newUser := &models.User{
		ID:            uuid.New().String(),
		Name:          in.Name,
		Email:         in.Email,
		PasswordHash:  hash,
		ImageRef:      in.ImageRef,
		OwnedPlaceIDs: []string{},
	}

	if err := s.store.CreateUser(ctx, newUser); err != nil {
		s.releaseMedia(ctx, in.ImageRef)
		return nil, nil, err
	}

	token, expiresAt, err := s.jwt.GenerateToken(newUser.ID, newUser.Email)
	if err != nil {
		// The account exists; only token issuance failed. The caller can
		// log in normally, so do not release the avatar here.
		return nil, nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info().Str("user_id", newUser.ID).Msg("User signed up")
	return newUser, &models.LoginResponse{
		UserID:    newUser.ID,
		Email:     newUser.Email,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password both return auth.ErrInvalidCredentials so responses do not
// reveal which accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.jwt.GenerateToken(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &models.LoginResponse{
		UserID:    u.ID,
		Email:     u.Email,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// List returns all users. Password hashes never serialize (json:"-"), so
// the result is safe to serve directly.
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// releaseMedia removes an avatar upload that signup never took ownership of.
func (s *Service) releaseMedia(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.media.Remove(ctx, ref); err != nil {
		s.logger.Warn().Err(err).Str("media_ref", ref).Msg("Failed to release avatar after aborted signup")
	}
}
