// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

// Package models defines the persisted entities and API wire types.
package models

// Location is a WGS84 coordinate pair in decimal degrees. It is resolved
// once from the place address at creation time and never changes.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// User is an account that can own places.
//
// OwnedPlaceIDs is kept exactly in sync with the set of places whose
// Creator field equals this user's ID. Both sides of the relationship are
// only ever mutated inside a single store transaction, so a reader never
// observes one without the other.
type User struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	PasswordHash  string   `json:"-"`
	ImageRef      string   `json:"image"`
	OwnedPlaceIDs []string `json:"places"`
}

// Place is a user-submitted location record.
//
// Address, Location, ImageRef and Creator are immutable after creation;
// only Title and Description may change. Ownership cannot be transferred.
type Place struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Address     string   `json:"address"`
	Location    Location `json:"location"`
	ImageRef    string   `json:"image"`
	Creator     string   `json:"creator"`
}
