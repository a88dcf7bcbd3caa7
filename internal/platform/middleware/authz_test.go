// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercato/mercato/internal/platform/apperr"
	"github.com/mercato/mercato/internal/platform/ctxutil"
	"github.com/mercato/mercato/internal/platform/middleware"
	"github.com/mercato/mercato/internal/platform/sec"
	"github.com/mercato/mercato/internal/users/auth"
)

// # Test Doubles

type stubVerifier struct {
	claims *sec.TokenClaims
	err    error
	tokens []string
}

func (v *stubVerifier) Verify(tokenString string) (*sec.TokenClaims, error) {
	v.tokens = append(v.tokens, tokenString)
	return v.claims, v.err
}

type stubResolver struct {
	user  *auth.User
	err   error
	calls int
}

func (r *stubResolver) FindByID(_ context.Context, _ string) (*auth.User, error) {
	r.calls++
	return r.user, r.err
}

type stubDenylist struct {
	revoked bool
	err     error
}

func (d *stubDenylist) IsRevoked(_ context.Context, _ string) (bool, error) {
	return d.revoked, d.err
}

func validClaims(userID string) *sec.TokenClaims {
	return &sec.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID, ID: "jti-1"},
	}
}

// errorEnvelope mirrors the server's error response shape.
type errorEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var envelope errorEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope
}

// admitted wraps a next handler that records whether the gate let it run and
// what user it saw.
func admitted() (http.Handler, *struct {
	called bool
	user   *auth.User
	claims *sec.TokenClaims
}) {
	state := &struct {
		called bool
		user   *auth.User
		claims *sec.TokenClaims
	}{}
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		state.called = true
		state.user = auth.UserFrom(request.Context())
		state.claims = ctxutil.GetTokenClaims(request.Context())
		writer.WriteHeader(http.StatusOK)
	})
	return handler, state
}

// # Auth Gate

/*
TestRequireUser_NoToken rejects with UNAUTHORIZED and never touches the
credential store.
*/
func TestRequireUser_NoToken(t *testing.T) {
	verifier := &stubVerifier{}
	resolver := &stubResolver{}
	next, state := admitted()

	gate := middleware.RequireUser(verifier, resolver, &stubDenylist{})(next)

	request := httptest.NewRequest(http.MethodGet, "/profile", nil)
	recorder := httptest.NewRecorder()
	gate.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	envelope := decodeError(t, recorder)
	assert.False(t, envelope.Success)
	assert.Equal(t, "UNAUTHORIZED", envelope.Error.Code)
	assert.Equal(t, "Not authorized to access this route", envelope.Error.Message)

	// Neither the verifier nor the store may be consulted
	assert.Empty(t, verifier.tokens)
	assert.Equal(t, 0, resolver.calls)
	assert.False(t, state.called)
}

/*
TestRequireUser_InvalidToken rejects verification failures with INVALID_TOKEN.
*/
func TestRequireUser_InvalidToken(t *testing.T) {
	verifier := &stubVerifier{err: errors.New("sec: invalid token")}
	resolver := &stubResolver{}
	next, state := admitted()

	gate := middleware.RequireUser(verifier, resolver, &stubDenylist{})(next)

	request := httptest.NewRequest(http.MethodGet, "/profile", nil)
	request.Header.Set("Authorization", "Bearer garbage")
	recorder := httptest.NewRecorder()
	gate.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	envelope := decodeError(t, recorder)
	assert.Equal(t, "INVALID_TOKEN", envelope.Error.Code)

	assert.Equal(t, 0, resolver.calls)
	assert.False(t, state.called)
}

/*
TestRequireUser_UserNotFound rejects a valid token whose subject is gone.
*/
func TestRequireUser_UserNotFound(t *testing.T) {
	verifier := &stubVerifier{claims: validClaims("ghost")}
	resolver := &stubResolver{err: apperr.UserNotFound("User not found")}
	next, state := admitted()

	gate := middleware.RequireUser(verifier, resolver, &stubDenylist{})(next)

	request := httptest.NewRequest(http.MethodGet, "/profile", nil)
	request.Header.Set("Authorization", "Bearer valid")
	recorder := httptest.NewRecorder()
	gate.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	envelope := decodeError(t, recorder)
	assert.Equal(t, "USER_NOT_FOUND", envelope.Error.Code)
	assert.Equal(t, "User not found", envelope.Error.Message)
	assert.False(t, state.called)
}

/*
TestRequireUser_Admits attaches the resolved user and claims to the context.
*/
func TestRequireUser_Admits(t *testing.T) {
	user := &auth.User{ID: "u1", Email: "john@example.com", Role: sec.RoleCustomer}
	verifier := &stubVerifier{claims: validClaims("u1")}
	resolver := &stubResolver{user: user}
	next, state := admitted()

	gate := middleware.RequireUser(verifier, resolver, &stubDenylist{})(next)

	request := httptest.NewRequest(http.MethodGet, "/profile", nil)
	request.Header.Set("Authorization", "Bearer valid")
	recorder := httptest.NewRecorder()
	gate.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.True(t, state.called)
	assert.Equal(t, user, state.user)
	require.NotNil(t, state.claims)
	assert.Equal(t, "jti-1", state.claims.ID)
}

/*
TestRequireUser_CookieFallback accepts the token cookie when no
Authorization header is present.
*/
func TestRequireUser_CookieFallback(t *testing.T) {
	user := &auth.User{ID: "u1", Role: sec.RoleCustomer}
	verifier := &stubVerifier{claims: validClaims("u1")}
	resolver := &stubResolver{user: user}
	next, state := admitted()

	gate := middleware.RequireUser(verifier, resolver, &stubDenylist{})(next)

	request := httptest.NewRequest(http.MethodGet, "/profile", nil)
	request.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"})
	recorder := httptest.NewRecorder()
	gate.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, state.called)
	assert.Equal(t, []string{"cookie-token"}, verifier.tokens)
}

/*
TestRequireUser_HeaderBeatsCookie prefers the Authorization header, while a
non-Bearer header still lets a valid cookie admit the request.
*/
func TestRequireUser_HeaderBeatsCookie(t *testing.T) {
	verifier := &stubVerifier{claims: validClaims("u1")}
	resolver := &stubResolver{user: &auth.User{ID: "u1", Role: sec.RoleCustomer}}

	t.Run("header_preferred", func(t *testing.T) {
		next, _ := admitted()
		gate := middleware.RequireUser(verifier, resolver, &stubDenylist{})(next)

		request := httptest.NewRequest(http.MethodGet, "/profile", nil)
		request.Header.Set("Authorization", "Bearer header-token")
		request.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"})
		gate.ServeHTTP(httptest.NewRecorder(), request)

		assert.Equal(t, "header-token", verifier.tokens[len(verifier.tokens)-1])
	})

	t.Run("foreign_scheme_falls_back_to_cookie", func(t *testing.T) {
		next, state := admitted()
		gate := middleware.RequireUser(verifier, resolver, &stubDenylist{})(next)

		request := httptest.NewRequest(http.MethodGet, "/profile", nil)
		request.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		request.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"})
		recorder := httptest.NewRecorder()
		gate.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, state.called)
		assert.Equal(t, "cookie-token", verifier.tokens[len(verifier.tokens)-1])
	})

	t.Run("foreign_scheme_without_cookie_rejected", func(t *testing.T) {
		next, state := admitted()
		gate := middleware.RequireUser(verifier, resolver, &stubDenylist{})(next)

		request := httptest.NewRequest(http.MethodGet, "/profile", nil)
		request.Header.Set("Authorization", "Token header-token")
		recorder := httptest.NewRecorder()
		gate.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.False(t, state.called)
	})
}

/*
TestRequireUser_RevokedToken rejects a denylisted token before the store is
consulted.
*/
func TestRequireUser_RevokedToken(t *testing.T) {
	verifier := &stubVerifier{claims: validClaims("u1")}
	resolver := &stubResolver{user: &auth.User{ID: "u1"}}
	next, state := admitted()

	gate := middleware.RequireUser(verifier, resolver, &stubDenylist{revoked: true})(next)

	request := httptest.NewRequest(http.MethodGet, "/profile", nil)
	request.Header.Set("Authorization", "Bearer revoked")
	recorder := httptest.NewRecorder()
	gate.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	envelope := decodeError(t, recorder)
	assert.Equal(t, "INVALID_TOKEN", envelope.Error.Code)
	assert.Equal(t, 0, resolver.calls)
	assert.False(t, state.called)
}

/*
TestRequireUser_DenylistDown fails closed when the denylist is unreachable.
*/
func TestRequireUser_DenylistDown(t *testing.T) {
	verifier := &stubVerifier{claims: validClaims("u1")}
	resolver := &stubResolver{user: &auth.User{ID: "u1"}}
	next, state := admitted()

	gate := middleware.RequireUser(verifier, resolver, &stubDenylist{err: errors.New("redis: connection refused")})(next)

	request := httptest.NewRequest(http.MethodGet, "/profile", nil)
	request.Header.Set("Authorization", "Bearer valid")
	recorder := httptest.NewRecorder()
	gate.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, 0, resolver.calls)
	assert.False(t, state.called)
}

// # Role Gate

func withUser(request *http.Request, user *auth.User) *http.Request {
	return request.WithContext(auth.WithUser(request.Context(), user))
}

/*
TestRequireRole covers the allow-list matrix: admin admitted, customer
forbidden with the role named, garbage role undefined, missing user guarded.
*/
func TestRequireRole(t *testing.T) {
	tests := []struct {
		name        string
		user        *auth.User
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:       "admin_admitted",
			user:       &auth.User{ID: "u1", Role: sec.RoleAdmin},
			wantStatus: http.StatusOK,
		},
		{
			name:        "customer_forbidden",
			user:        &auth.User{ID: "u2", Role: sec.RoleCustomer},
			wantStatus:  http.StatusForbidden,
			wantCode:    "FORBIDDEN",
			wantMessage: "User role customer is not authorized to access this route",
		},
		{
			name:        "garbage_role_undefined",
			user:        &auth.User{ID: "u3", Role: sec.Role("superuser")},
			wantStatus:  http.StatusForbidden,
			wantCode:    "ROLE_UNDEFINED",
			wantMessage: "User role not defined",
		},
		{
			name:        "empty_role_undefined",
			user:        &auth.User{ID: "u4"},
			wantStatus:  http.StatusForbidden,
			wantCode:    "ROLE_UNDEFINED",
			wantMessage: "User role not defined",
		},
		{
			name:        "no_user_unauthorized",
			user:        nil,
			wantStatus:  http.StatusUnauthorized,
			wantCode:    "UNAUTHORIZED",
			wantMessage: "Authentication required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, state := admitted()
			gate := middleware.RequireRole(sec.RoleAdmin)(next)

			request := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			if tt.user != nil {
				request = withUser(request, tt.user)
			}
			recorder := httptest.NewRecorder()
			gate.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)

			if tt.wantStatus == http.StatusOK {
				assert.True(t, state.called)
				return
			}

			assert.False(t, state.called)
			envelope := decodeError(t, recorder)
			assert.Equal(t, tt.wantCode, envelope.Error.Code)
			assert.Equal(t, tt.wantMessage, envelope.Error.Message)
		})
	}
}

/*
TestRequireRole_MultipleAllowed admits any role on the allow-list.
*/
func TestRequireRole_MultipleAllowed(t *testing.T) {
	next, state := admitted()
	gate := middleware.RequireRole(sec.RoleAdmin, sec.RoleCustomer)(next)

	request := withUser(
		httptest.NewRequest(http.MethodGet, "/orders", nil),
		&auth.User{ID: "u1", Role: sec.RoleCustomer},
	)
	recorder := httptest.NewRecorder()
	gate.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, state.called)
}
