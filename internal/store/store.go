// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

// Package store persists users and places in BadgerDB.
//
// Key layout:
//
//	user:<id>          -> models.User JSON
//	user_email:<email> -> user id (unique index)
//	place:<id>         -> models.Place JSON
//
// The user<->place relationship is mutated only inside a single managed
// Badger transaction touching exactly one user and one place record, so
// both sides commit together or neither is visible to concurrent readers.
// Badger's SSI conflict detection rejects transactions whose reads were
// invalidated by a concurrent commit; those surface as ErrTxnConflict and
// are never retried here (retry policy belongs to the caller).
package store

import (
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/placemark-app/placemark/internal/config"
	"github.com/placemark-app/placemark/internal/logging"
)

// Key prefixes for BadgerDB storage.
const (
	userKeyPrefix      = "user:"
	userEmailKeyPrefix = "user_email:"
	placeKeyPrefix     = "place:"
)

// Sentinel errors returned by store operations.
var (
	// ErrUserNotFound is returned when a user record is absent.
	ErrUserNotFound = errors.New("user not found")

	// ErrPlaceNotFound is returned when a place record is absent, including
	// when a concurrent delete removed it before this transaction committed.
	ErrPlaceNotFound = errors.New("place not found")

	// ErrEmailTaken is returned when a signup reuses a registered email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrTxnConflict is returned when Badger detects a serialization
	// conflict. The transaction had no effect.
	ErrTxnConflict = errors.New("transaction conflict")
)

// Store is a BadgerDB-backed store for users and places.
type Store struct {
	db *badger.DB
}

// Open opens the Badger database described by cfg.
func Open(cfg *config.DatabaseConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithLogger(newBadgerLogger())
	if cfg.InMemory {
		opts = badger.DefaultOptions("").
			WithInMemory(true).
			WithLogger(newBadgerLogger())
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	logging.Info().Str("path", cfg.Path).Bool("in_memory", cfg.InMemory).Msg("Store opened")
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is usable. Used by the readiness endpoint.
func (s *Store) Ping() error {
	return s.db.View(func(txn *badger.Txn) error {
		return nil
	})
}

func userKey(id string) []byte { return []byte(userKeyPrefix + id) }

func userEmailKey(email string) []byte { return []byte(userEmailKeyPrefix + email) }

func placeKey(id string) []byte { return []byte(placeKeyPrefix + id) }

// mapTxnErr translates Badger transaction failures into store errors.
func mapTxnErr(err error) error {
	if errors.Is(err, badger.ErrConflict) {
		return ErrTxnConflict
	}
	return err
}
