// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mercato/mercato/internal/platform/apperr"
	"github.com/mercato/mercato/internal/platform/sec"
	"github.com/mercato/mercato/pkg/pagination"
	"github.com/mercato/mercato/pkg/pointer"
	"github.com/mercato/mercato/pkg/uuid"
)

// # Contracts & Types

// TokenIssuer defines the contract for minting session tokens.
type TokenIssuer interface {
	// Issue creates a signed bearer token whose subject is the given user ID.
	Issue(userID string) (string, error)
}

// Service implements user identity use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	tokenDenylist  TokenDenylist
	tokenIssuer    TokenIssuer
}

// NewService constructs a new auth [Service] with necessary dependencies.
func NewService(userRepo UserRepository, denylist TokenDenylist, issuer TokenIssuer) *Service {
	return &Service{
		userRepository: userRepo,
		tokenDenylist:  denylist,
		tokenIssuer:    issuer,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new customer.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthSession pairs a persisted user with a freshly issued bearer token.
type AuthSession struct {
	Token string
	User  *User
}

/*
Register validates, hashes, and persists a brand new user account, then
signs the new user in by issuing a bearer token.

Description: Enrollment of a new customer. New accounts always receive the
customer role; elevation to admin happens only through operational tooling.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *AuthSession: Created entity plus signed token
  - error: Conflict (if email exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*AuthSession, error) {

	email := NormalizeEmail(input.Email)

	// Verify email uniqueness. Return a client-safe Conflict error.
	_, err := service.userRepository.FindByEmail(context, email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         sec.DefaultRole,
	}

	// Persist the user to the database. The unique index backs up the
	// pre-check above under concurrent registration.
	if err := service.userRepository.Create(context, user); err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	// Registration doubles as first login
	token, err := service.tokenIssuer.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_issue_failed: %w", err)
	}

	return &AuthSession{Token: token, User: user}, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

/*
Login validates user credentials and issues a bearer token.

Description: Verifies identity using constant-time password comparison and
returns a signed token carrying the user's ID as subject.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *AuthSession: Transport-ready token plus user
  - error: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*AuthSession, error) {

	// Look up by normalized email
	user, err := service.userRepository.FindByEmail(context, NormalizeEmail(input.Email))

	// If (err != nil) the user does not exist. Generic message to prevent enumeration.
	if err != nil {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	// Verify password hash using constant-time comparison in bcrypt to prevent timing attacks
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	// Issue the session token
	token, err := service.tokenIssuer.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_issue_failed: %w", err)
	}

	return &AuthSession{Token: token, User: user}, nil
}

/*
Logout revokes the presented token for its remaining lifetime.

Description: Places the token's unique identifier on the denylist so the
auth gate rejects it before expiry. Logout is idempotent.

Parameters:
  - context: context.Context
  - claims: *sec.TokenClaims (verified claims of the presented token)

Returns:
  - error: Revocation failures
*/
func (service *Service) Logout(context context.Context, claims *sec.TokenClaims) error {

	// No verified token on the request means nothing to revoke.
	if claims == nil || claims.ID == "" {
		return nil
	}

	// Denylist entries live only as long as the token would have.
	remaining := time.Duration(0)
	if claims.ExpiresAt != nil {
		remaining = time.Until(claims.ExpiresAt.Time)
	}

	if err := service.tokenDenylist.Revoke(context, claims.ID, remaining); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	return nil
}

// # Profile Management

// UpdateProfileInput carries partial profile changes. Nil fields are left
// untouched; non-nil fields replace the stored value.
type UpdateProfileInput struct {
	Name    *string
	Email   *string
	Address *Address
}

/*
UpdateProfile applies a partial update to the authenticated user's profile.

Description: Merges the provided deltas into the stored entity and persists
the result. Email changes are re-checked for uniqueness.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *User: Updated entity
  - error: Conflict, not-found, or storage errors
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*User, error) {

	// Fetch the current state
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	// Merge deltas
	user.Name = strings.TrimSpace(pointer.Fallback(input.Name, user.Name))
	user.Email = NormalizeEmail(pointer.Fallback(input.Email, user.Email))
	if input.Address != nil {
		user.Address = input.Address
	}

	// Persist the merged state
	if err := service.userRepository.Update(context, user); err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("auth_service_update_profile_failed: %w", err)
	}

	return user, nil
}

// # Administration

// UserPage is a single page of the user directory.
type UserPage struct {
	Users []*User
	Meta  pagination.Meta
}

/*
ListUsers returns a page of registered users for the admin directory.

Parameters:
  - context: context.Context
  - params: pagination.Params

Returns:
  - *UserPage: Users plus pagination metadata
  - error: Storage failures
*/
func (service *Service) ListUsers(context context.Context, params pagination.Params) (*UserPage, error) {

	users, err := service.userRepository.List(context, params)
	if err != nil {
		return nil, fmt.Errorf("auth_service_list_users_failed: %w", err)
	}

	total, err := service.userRepository.Count(context)
	if err != nil {
		return nil, fmt.Errorf("auth_service_count_users_failed: %w", err)
	}

	return &UserPage{
		Users: users,
		Meta:  pagination.NewMeta(params.Page, params.Limit, total),
	}, nil
}

/*
GetUser resolves one account by ID for the admin directory.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound when no such account exists
*/
func (service *Service) GetUser(context context.Context, id string) (*User, error) {

	user, err := service.userRepository.FindByID(context, id)
	if err != nil {
		// The repository speaks gate vocabulary (USER_NOT_FOUND, 401); a
		// directory lookup miss is a plain 404.
		if appError := apperr.As(err); appError != nil && appError.Code == "USER_NOT_FOUND" {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("auth_service_get_user_failed: %w", err)
	}

	return user, nil
}

// NormalizeEmail lowercases and trims an email address so lookups and the
// unique index agree on a single canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
