// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

/*
Package api is the typed HTTP client for the Mercato API.

It mirrors the server's JSON envelope: success payloads are unwrapped into
typed results, and error envelopes are surfaced as [*APIError] values
carrying the server's machine-readable code.

# Token Decoration

The client holds the bearer token for one logical session. SetToken and
ClearToken are safe for concurrent use; every outgoing request is decorated
with the current token, so two Client instances never share auth state.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mercato/mercato/internal/users/auth"
)

// # API Errors

// APIError is a structured error returned by the Mercato API.
type APIError struct {
	// Code is the machine-readable identifier (e.g. "UNAUTHORIZED").
	Code string

	// Message is the human-readable description from the server.
	Message string

	// Status is the HTTP status code of the response.
	Status int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (%s)", e.Message, e.Code)
}

// IsAuthError reports whether the error means the session is no longer valid.
func (e *APIError) IsAuthError() bool {
	return e.Status == http.StatusUnauthorized
}

// # Client

const defaultRequestTimeout = 15 * time.Second

// Client talks to a single Mercato API server.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// New constructs a [Client] for the given base URL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

// SetToken installs the bearer token used to decorate subsequent requests.
func (client *Client) SetToken(token string) {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.token = token
}

// ClearToken removes the bearer token.
func (client *Client) ClearToken() {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.token = ""
}

// Token returns the currently installed bearer token.
func (client *Client) Token() string {
	client.mu.RLock()
	defer client.mu.RUnlock()
	return client.token
}

// # Payloads

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register request body.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate is the partial profile update body. Nil fields are omitted
// from the JSON and left untouched by the server.
type ProfileUpdate struct {
	Name    *string       `json:"name,omitempty"`
	Email   *string       `json:"email,omitempty"`
	Address *auth.Address `json:"address,omitempty"`
}

// authResponse is the success payload of login and register.
type authResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

// userResponse is the success payload of the profile endpoints.
type userResponse struct {
	User *auth.User `json:"user"`
}

// errorResponse matches the server's error envelope.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// # Operations

/*
Login exchanges credentials for a bearer token and the user's profile.

Parameters:
  - ctx: context.Context
  - creds: Credentials

Returns:
  - string: Signed bearer token
  - *auth.User: Authenticated profile
  - error: *APIError or transport failures
*/
func (client *Client) Login(ctx context.Context, creds Credentials) (string, *auth.User, error) {
	var result authResponse
	if err := client.do(ctx, http.MethodPost, "/api/auth/login", creds, &result); err != nil {
		return "", nil, err
	}
	return result.Token, result.User, nil
}

/*
Register creates a new account and returns its first session token.

Parameters:
  - ctx: context.Context
  - reg: Registration

Returns:
  - string: Signed bearer token
  - *auth.User: Created profile
  - error: *APIError or transport failures
*/
func (client *Client) Register(ctx context.Context, reg Registration) (string, *auth.User, error) {
	var result authResponse
	if err := client.do(ctx, http.MethodPost, "/api/auth/register", reg, &result); err != nil {
		return "", nil, err
	}
	return result.Token, result.User, nil
}

/*
Profile fetches the authenticated user's profile.

Parameters:
  - ctx: context.Context

Returns:
  - *auth.User: Current profile
  - error: *APIError (401 when the token is missing, invalid, or revoked)
*/
func (client *Client) Profile(ctx context.Context) (*auth.User, error) {
	var result userResponse
	if err := client.do(ctx, http.MethodGet, "/api/auth/profile", nil, &result); err != nil {
		return nil, err
	}
	return result.User, nil
}

/*
UpdateProfile applies a partial update to the authenticated profile.

Parameters:
  - ctx: context.Context
  - update: ProfileUpdate

Returns:
  - *auth.User: Updated profile
  - error: *APIError or transport failures
*/
func (client *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*auth.User, error) {
	var result userResponse
	if err := client.do(ctx, http.MethodPut, "/api/auth/profile", update, &result); err != nil {
		return nil, err
	}
	return result.User, nil
}

/*
Logout revokes the current token server-side.

Parameters:
  - ctx: context.Context

Returns:
  - error: *APIError or transport failures
*/
func (client *Client) Logout(ctx context.Context) error {
	return client.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// # Transport

// do executes one JSON round trip, decorating the request with the current
// bearer token and decoding either the success payload or the error envelope.
func (client *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	if token := client.Token(); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("api: read response body: %w", err)
	}

	if response.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{
			Code:    "INTERNAL_ERROR",
			Message: http.StatusText(response.StatusCode),
			Status:  response.StatusCode,
		}
		var envelope errorResponse
		if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Error.Code != "" {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(payload, result); err != nil {
			return fmt.Errorf("api: decode response body: %w", err)
		}
	}

	return nil
}
