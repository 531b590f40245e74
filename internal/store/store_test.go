// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/placemark-app/placemark/internal/config"
	"github.com/placemark-app/placemark/internal/models"
)

// newTestStore opens an in-memory store that runs real transactions.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(&config.DatabaseConfig{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func testUser(id, email string) *models.User {
	return &models.User{
		ID:            id,
		Name:          "Test User " + id,
		Email:         email,
		PasswordHash:  "$2a$04$notarealhash",
		OwnedPlaceIDs: []string{},
	}
}

// ===================================================================================================
// User CRUD Tests
// ===================================================================================================

func TestCreateUser_AndLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := testUser("u1", "u1@example.com")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	byID, err := s.GetUserByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if byID.Email != "u1@example.com" {
		t.Errorf("GetUserByID() email = %q, want %q", byID.Email, "u1@example.com")
	}

	byEmail, err := s.GetUserByEmail(ctx, "u1@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if byEmail.ID != "u1" {
		t.Errorf("GetUserByEmail() id = %q, want %q", byEmail.ID, "u1")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, testUser("u1", "dup@example.com")); err != nil {
		t.Fatalf("CreateUser() first error = %v", err)
	}

	err := s.CreateUser(ctx, testUser("u2", "dup@example.com"))
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("CreateUser() second error = %v, want ErrEmailTaken", err)
	}

	// The losing user record must not exist.
	if _, err := s.GetUserByID(ctx, "u2"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUserByID(u2) error = %v, want ErrUserNotFound", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetUserByID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrUserNotFound", err)
	}
	if _, err := s.GetUserByEmail(ctx, "missing@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUserByEmail() error = %v, want ErrUserNotFound", err)
	}
}

func TestListUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("ListUsers() on empty store = %d users, want 0", len(users))
	}

	for _, u := range []*models.User{
		testUser("u1", "a@example.com"),
		testUser("u2", "b@example.com"),
		testUser("u3", "c@example.com"),
	} {
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser(%s) error = %v", u.ID, err)
		}
	}

	users, err = s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 3 {
		t.Errorf("ListUsers() = %d users, want 3", len(users))
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
