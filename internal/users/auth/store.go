// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

package auth

import (
	"context"
	"time"

	"github.com/mercato/mercato/pkg/pagination"
)

// # Persistence Contracts

// UserRepository defines the persistence boundary for user accounts.
type UserRepository interface {
	// Create persists a new user. Returns a conflict error when the
	// email address is already registered.
	Create(ctx context.Context, user *User) error

	// FindByID retrieves a user by primary key.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail retrieves a user by normalized email address.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Update persists profile changes for an existing user.
	Update(ctx context.Context, user *User) error

	// List returns a page of users ordered by creation time.
	List(ctx context.Context, params pagination.Params) ([]*User, error)

	// Count returns the total number of registered users.
	Count(ctx context.Context) (int, error)
}

// TokenDenylist records revoked token identifiers until their natural expiry.
//
// Tokens are stateless and otherwise valid until exp; logout places the
// token's unique identifier (jti) here so the auth gate can reject it early.
type TokenDenylist interface {
	// Revoke marks a token identifier as revoked for the given duration.
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error

	// IsRevoked reports whether a token identifier has been revoked.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
