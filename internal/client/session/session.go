// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

/*
Package session implements the client-side authentication state machine.

# States

	Anonymous ──login/register──▶ Authenticating ──▶ Authenticated
	     ▲                              │
	     └───────── logout ◀────────────┴──▶ AuthError

Anonymous is the initial state. Login and Register pass through
Authenticating; success lands in Authenticated, failure in AuthError with
the server's message. Logout always returns to Anonymous. Restoring a
persisted token at startup moves straight to Authenticated on success with
no visible Authenticating phase.

# Concurrency

All methods are safe for concurrent use. A lifecycle operation started
while another is still in flight is rejected with [ErrOperationInFlight]
instead of queuing.
*/
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/mercato/mercato/internal/client/api"
	"github.com/mercato/mercato/internal/client/tokenstore"
	"github.com/mercato/mercato/internal/platform/validate"
	"github.com/mercato/mercato/internal/users/auth"
)

// # States & Session

// State identifies a position in the authentication lifecycle.
type State string

const (
	// StateAnonymous means no session is active.
	StateAnonymous State = "anonymous"

	// StateAuthenticating means a login or register call is in flight.
	StateAuthenticating State = "authenticating"

	// StateAuthenticated means a verified session is active.
	StateAuthenticated State = "authenticated"

	// StateAuthError means the last lifecycle operation failed.
	StateAuthError State = "auth_error"
)

// Session is an immutable snapshot of the machine's current position.
type Session struct {
	State State
	User  *auth.User
	Token string

	// Err holds the failure behind StateAuthError, nil otherwise.
	Err error
}

// ErrOperationInFlight is returned when a lifecycle operation is started
// while a previous one has not finished.
var ErrOperationInFlight = errors.New("session: operation already in flight")

// ErrNotAuthenticated is returned by operations that require an active session.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// # Manager

// Manager drives the authentication lifecycle against a Mercato API server.
//
// The bearer token lives on the injected [*api.Client], never in a process
// global, so independent managers hold independent sessions.
type Manager struct {
	client *api.Client
	store  tokenstore.Store

	mu       sync.Mutex
	current  Session
	inFlight bool
}

// NewManager constructs a [Manager] starting in [StateAnonymous].
func NewManager(client *api.Client, store tokenstore.Store) *Manager {
	return &Manager{
		client:  client,
		store:   store,
		current: Session{State: StateAnonymous},
	}
}

// Current returns a snapshot of the session.
func (manager *Manager) Current() Session {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.current
}

// # Inputs

// LoginInput carries the credentials for a login attempt.
type LoginInput struct {
	Email    string
	Password string
}

// RegisterInput carries the fields of a registration form.
//
// ConfirmPassword is checked locally and never leaves the machine; the wire
// request carries only name, email, and password.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// # Lifecycle Operations

/*
Login authenticates against the server.

Description: Invalid input fails fast without a network call and without a
state transition. Otherwise the machine enters Authenticating; success
persists the token, decorates the API client, and lands in Authenticated.
Failure lands in AuthError with the stored token untouched.

Parameters:
  - ctx: context.Context
  - input: LoginInput

Returns:
  - error: validation errors, ErrOperationInFlight, or the server failure
*/
func (manager *Manager) Login(ctx context.Context, input LoginInput) error {
	validator := &validate.Validator{}
	validator.Required("email", input.Email).
		Email("email", input.Email).
		Required("password", input.Password)
	if err := validator.Err(); err != nil {
		return err
	}

	if err := manager.begin(); err != nil {
		return err
	}

	token, user, err := manager.client.Login(ctx, api.Credentials{
		Email:    input.Email,
		Password: input.Password,
	})

	return manager.finish(token, user, err)
}

/*
Register creates a new account and signs it in.

Description: The confirm-password field is compared locally and stripped
before the request is serialized. Transitions mirror [Manager.Login].

Parameters:
  - ctx: context.Context
  - input: RegisterInput

Returns:
  - error: validation errors, ErrOperationInFlight, or the server failure
*/
func (manager *Manager) Register(ctx context.Context, input RegisterInput) error {
	validator := &validate.Validator{}
	validator.Required("name", input.Name).
		PersonName("name", input.Name).
		Required("email", input.Email).
		Email("email", input.Email).
		Required("password", input.Password).
		Password("password", input.Password).
		Custom("confirmPassword", input.Password != input.ConfirmPassword, "does not match password")
	if err := validator.Err(); err != nil {
		return err
	}

	if err := manager.begin(); err != nil {
		return err
	}

	token, user, err := manager.client.Register(ctx, api.Registration{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})

	return manager.finish(token, user, err)
}

/*
Logout ends the session locally and revokes the token server-side.

Description: The local teardown (token store, client decorator, state) is
unconditional and synchronous, so the machine is Anonymous even when the
revocation call fails. Logging out while Anonymous is a no-op.

Parameters:
  - ctx: context.Context

Returns:
  - error: best-effort revocation failure; local state is already Anonymous
*/
func (manager *Manager) Logout(ctx context.Context) error {
	manager.mu.Lock()
	hadToken := manager.current.Token != ""
	manager.current = Session{State: StateAnonymous}
	manager.inFlight = false
	manager.mu.Unlock()

	// Server-side revocation happens before the decorator is cleared so the
	// request still carries the token being revoked.
	var revokeErr error
	if hadToken {
		revokeErr = manager.client.Logout(ctx)
	}

	manager.client.ClearToken()
	if err := manager.store.Clear(); err != nil {
		return err
	}

	return revokeErr
}

/*
RefreshFromStoredToken restores a persisted session at startup.

Description: With no stored token the machine stays Anonymous. A stored
token is installed on the client and validated by fetching the profile;
success lands directly in Authenticated with no visible Authenticating
phase. Any failure clears the stored token and stays Anonymous — a stale
token is never retried.

Parameters:
  - ctx: context.Context

Returns:
  - error: storage failures; a rejected token is not an error
*/
func (manager *Manager) RefreshFromStoredToken(ctx context.Context) error {
	token, err := manager.store.Load()
	if err != nil {
		if errors.Is(err, tokenstore.ErrNoToken) {
			return nil
		}
		return err
	}

	manager.client.SetToken(token)

	user, err := manager.client.Profile(ctx)
	if err != nil {
		manager.client.ClearToken()
		if clearErr := manager.store.Clear(); clearErr != nil {
			return clearErr
		}
		return nil
	}

	manager.mu.Lock()
	manager.current = Session{State: StateAuthenticated, User: user, Token: token}
	manager.mu.Unlock()
	return nil
}

/*
UpdateProfile applies a partial profile update to the active session.

Description: Requires Authenticated. Success replaces the session's user
snapshot; a remote failure is recorded on the session so callers can surface
it later. The token and state are untouched either way.

Parameters:
  - ctx: context.Context
  - update: api.ProfileUpdate

Returns:
  - error: ErrNotAuthenticated or the server failure
*/
func (manager *Manager) UpdateProfile(ctx context.Context, update api.ProfileUpdate) error {
	manager.mu.Lock()
	if manager.current.State != StateAuthenticated {
		manager.mu.Unlock()
		return ErrNotAuthenticated
	}
	manager.mu.Unlock()

	user, err := manager.client.UpdateProfile(ctx, update)

	manager.mu.Lock()
	defer manager.mu.Unlock()

	if err != nil {
		// Keep the authenticated session; only record what went wrong.
		manager.current.Err = err
		return err
	}

	manager.current.User = user
	manager.current.Err = nil
	return nil
}

// # Transition Helpers

// begin moves the machine into Authenticating, rejecting concurrent starts.
func (manager *Manager) begin() error {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	if manager.inFlight {
		return ErrOperationInFlight
	}

	manager.inFlight = true
	manager.current = Session{State: StateAuthenticating}
	return nil
}

// finish completes a login or register attempt.
func (manager *Manager) finish(token string, user *auth.User, err error) error {
	if err != nil {
		manager.mu.Lock()
		manager.current = Session{State: StateAuthError, Err: err}
		manager.inFlight = false
		manager.mu.Unlock()
		return err
	}

	// Persist before publishing: a session the next run cannot restore is
	// worse than a failed login.
	if saveErr := manager.store.Save(token); saveErr != nil {
		manager.client.ClearToken()
		manager.mu.Lock()
		manager.current = Session{State: StateAuthError, Err: saveErr}
		manager.inFlight = false
		manager.mu.Unlock()
		return saveErr
	}

	manager.client.SetToken(token)

	manager.mu.Lock()
	manager.current = Session{State: StateAuthenticated, User: user, Token: token}
	manager.inFlight = false
	manager.mu.Unlock()
	return nil
}
