// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/placemark-app/placemark/internal/metrics"
	"github.com/placemark-app/placemark/internal/models"
)

// CreateUser inserts a new user. The email uniqueness index is checked and
// written in the same transaction as the user record, so two concurrent
// signups with the same email cannot both commit.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(userEmailKey(user.Email))
		if err == nil {
			return ErrEmailTaken
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check email index: %w", err)
		}

		if err := txn.Set(userKey(user.ID), data); err != nil {
			return fmt.Errorf("set user: %w", err)
		}
		if err := txn.Set(userEmailKey(user.Email), []byte(user.ID)); err != nil {
			return fmt.Errorf("set email index: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.StoreTxnsTotal.WithLabelValues("create_user", "failure").Inc()
		return mapTxnErr(err)
	}

	metrics.StoreTxnsTotal.WithLabelValues("create_user", "success").Inc()
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(id), &user, ErrUserNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user through the email index.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userEmailKey(email))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get email index: %w", err)
		}

		var userID string
		if err := item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		}); err != nil {
			return err
		}

		return getJSON(txn, userKey(userID), &user, ErrUserNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns all users ordered by key. The caller is expected to
// strip sensitive fields before serving the result.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(userKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var user models.User
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &user)
			}); err != nil {
				return fmt.Errorf("unmarshal user %s: %w", it.Item().Key(), err)
			}
			users = append(users, user)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// getJSON reads a key into dst, mapping a missing key to notFound.
func getJSON(txn *badger.Txn, key []byte, dst interface{}, notFound error) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}
