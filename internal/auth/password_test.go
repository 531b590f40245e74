// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	// MinCost keeps the test fast; production cost comes from config.
	h, err := NewPasswordHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewPasswordHasher() error = %v", err)
	}

	hash, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("Hash() returned the plaintext")
	}

	if err := h.Compare(hash, "correct horse battery staple"); err != nil {
		t.Errorf("Compare() with right password error = %v", err)
	}

	err = h.Compare(hash, "wrong password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Compare() with wrong password error = %v, want ErrInvalidCredentials", err)
	}
}

func TestNewPasswordHasher_CostBounds(t *testing.T) {
	if _, err := NewPasswordHasher(bcrypt.MaxCost + 1); err == nil {
		t.Error("NewPasswordHasher() above MaxCost should fail")
	}
	if _, err := NewPasswordHasher(bcrypt.MinCost - 1); err == nil {
		t.Error("NewPasswordHasher() below MinCost should fail")
	}
}
