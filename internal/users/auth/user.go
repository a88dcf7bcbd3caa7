// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

/*
Package auth implements the user identity and session-authorization layer.

It defines the core domain entity (User) and the logic for registration,
login, bearer-token issuance, profile management, and server-side token
revocation.

# Architecture

This layer is the "Truth" of the system. The entity defined here has no
transport dependencies and encapsulates all business rules related to
user identity.
*/
package auth

import (
	"context"
	"time"

	"github.com/mercato/mercato/internal/platform/ctxkey"
	"github.com/mercato/mercato/internal/platform/sec"
)

// # Domain Entities

// Address is the optional structured shipping address attached to an account.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

// User represents a registered account on the Mercato platform.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	Role         sec.Role  `json:"role"`
	Address      *Address  `json:"address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// # Request Context

// WithUser returns a new context carrying the resolved authenticated user.
// It is set exclusively by the auth gate after subject resolution.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ctxkey.KeyUser, user)
}

// UserFrom retrieves the resolved [*User] from the context.
// Returns nil if the request was not admitted by the auth gate.
func UserFrom(ctx context.Context) *User {
	user, ok := ctx.Value(ctxkey.KeyUser).(*User)
	if !ok {
		return nil
	}
	return user
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldStreet          = "address.street"
	FieldCity            = "address.city"
	FieldState           = "address.state"
	FieldZip             = "address.zipCode"
	FieldCountry         = "address.country"
)
