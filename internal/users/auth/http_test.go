// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercato/mercato/internal/platform/ctxutil"
	"github.com/mercato/mercato/internal/platform/sec"
	"github.com/mercato/mercato/internal/users/auth"
)

// passthroughGate stands in for the auth gate: it injects a fixed user, or
// rejects outright when user is nil.
func passthroughGate(user *auth.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if user == nil {
				writer.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(writer, request.WithContext(auth.WithUser(request.Context(), user)))
		})
	}
}

func newTestHandler(t *testing.T) (*auth.Handler, *fakeUserRepository) {
	t.Helper()
	service, repo, _, _ := newServiceParts()
	return auth.NewHandler(service), repo
}

func newServiceParts() (*auth.Service, *fakeUserRepository, *fakeDenylist, *fakeIssuer) {
	repo := newFakeUserRepository()
	denylist := newFakeDenylist()
	issuer := &fakeIssuer{}
	return auth.NewService(repo, denylist, issuer), repo, denylist, issuer
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

/*
TestHandler_Register covers the register endpoint: envelope shape, password
omission, and validation failures with field details.
*/
func TestHandler_Register(t *testing.T) {
	handler, _ := newTestHandler(t)
	routes := handler.Routes(passthroughGate(nil))

	t.Run("success", func(t *testing.T) {
		recorder := postJSON(t, routes, "/register",
			`{"name": "John Doe", "email": "john@example.com", "password": "Password123"}`)

		assert.Equal(t, http.StatusCreated, recorder.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, true, body["success"])
		assert.NotEmpty(t, body["token"])

		user, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "john@example.com", user["email"])
		assert.Equal(t, "customer", user["role"])

		// The hash must never appear in the response
		assert.NotContains(t, recorder.Body.String(), "password")
	})

	t.Run("validation_failure", func(t *testing.T) {
		recorder := postJSON(t, routes, "/register",
			`{"name": "J", "email": "nope", "password": "weak"}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		var body struct {
			Success bool `json:"success"`
			Error   struct {
				Code    string `json:"code"`
				Details []struct {
					Field string `json:"field"`
				} `json:"details"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		assert.Len(t, body.Error.Details, 3)
	})

	t.Run("malformed_json", func(t *testing.T) {
		recorder := postJSON(t, routes, "/register", `{"name": `)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("duplicate_email", func(t *testing.T) {
		recorder := postJSON(t, routes, "/register",
			`{"name": "Jane Doe", "email": "john@example.com", "password": "Password123"}`)

		assert.Equal(t, http.StatusConflict, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Email is already registered")
	})
}

/*
TestHandler_Login covers credential success and the generic failure message.
*/
func TestHandler_Login(t *testing.T) {
	handler, _ := newTestHandler(t)
	routes := handler.Routes(passthroughGate(nil))

	recorder := postJSON(t, routes, "/register",
		`{"name": "John Doe", "email": "john@example.com", "password": "Password123"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)

	t.Run("success", func(t *testing.T) {
		recorder := postJSON(t, routes, "/login",
			`{"email": "john@example.com", "password": "Password123"}`)

		assert.Equal(t, http.StatusOK, recorder.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, true, body["success"])
		assert.NotEmpty(t, body["token"])
	})

	t.Run("wrong_password", func(t *testing.T) {
		recorder := postJSON(t, routes, "/login",
			`{"email": "john@example.com", "password": "WrongPass1"}`)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Invalid credentials")
		assert.Contains(t, recorder.Body.String(), "UNAUTHORIZED")
	})
}

/*
TestHandler_Profile verifies the gate-injected user round-trips through the
profile endpoints.
*/
func TestHandler_Profile(t *testing.T) {
	service, repo, _, _ := newServiceParts()
	session, err := service.Register(context.Background(), auth.RegisterInput{
		Name: "John Doe", Email: "john@example.com", Password: "Password123",
	})
	require.NoError(t, err)

	handler := auth.NewHandler(service)
	routes := handler.Routes(passthroughGate(session.User))

	t.Run("get", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/profile", nil)
		recorder := httptest.NewRecorder()
		routes.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "john@example.com")
	})

	t.Run("update", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPut, "/profile", strings.NewReader(
			`{"name": "Johnny Doe", "address": {"street": "1 Market St", "city": "Milano", "state": "MI", "zipCode": "20121", "country": "Italy"}}`))
		request.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()
		routes.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Johnny Doe")
		assert.Contains(t, recorder.Body.String(), "Milano")

		stored, err := repo.FindByID(context.Background(), session.User.ID)
		require.NoError(t, err)
		assert.Equal(t, "Johnny Doe", stored.Name)
	})

	t.Run("update_partial_address", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPut, "/profile", strings.NewReader(
			`{"address": {"city": "Torino"}}`))
		request.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()
		routes.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Torino")
	})

	t.Run("update_bad_zip", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPut, "/profile", strings.NewReader(
			`{"address": {"street": "1 Market St", "city": "Milano", "state": "MI", "zipCode": "nope", "country": "Italy"}}`))
		recorder := httptest.NewRecorder()
		routes.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "VALIDATION_ERROR")
	})
}

/*
TestHandler_GetUser resolves one account by its URL parameter, mapping a
directory miss to 404 rather than the gate's 401 vocabulary.
*/
func TestHandler_GetUser(t *testing.T) {
	service, _, _, _ := newServiceParts()
	session, err := service.Register(context.Background(), auth.RegisterInput{
		Name: "John Doe", Email: "john@example.com", Password: "Password123",
	})
	require.NoError(t, err)

	handler := auth.NewHandler(service)
	router := chi.NewRouter()
	router.Get("/users/{id}", handler.GetUser)

	t.Run("found", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/users/"+session.User.ID, nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "john@example.com")
		assert.NotContains(t, recorder.Body.String(), "passwordHash")
	})

	t.Run("unknown_id", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/users/no-such-id", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "NOT_FOUND")
	})

	t.Run("missing_id", func(t *testing.T) {
		// Invoked outside a routed context the parameter is absent.
		request := httptest.NewRequest(http.MethodGet, "/users/", nil)
		recorder := httptest.NewRecorder()
		handler.GetUser(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "VALIDATION_ERROR")
	})
}

/*
TestHandler_Logout responds 204 with an empty body and places the token's
identifier on the denylist.
*/
func TestHandler_Logout(t *testing.T) {
	service, _, denylist, _ := newServiceParts()
	handler := auth.NewHandler(service)

	user := &auth.User{ID: "u1", Email: "john@example.com", Role: sec.RoleCustomer}
	claims := &sec.TokenClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		ID:        "jti-logout",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}

	// Gate stand-in that seeds both the user and the verified claims.
	gate := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := auth.WithUser(request.Context(), user)
			ctx = ctxutil.WithTokenClaims(ctx, claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}

	recorder := postJSON(t, handler.Routes(gate), "/logout", "")

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Empty(t, recorder.Body.String())

	revoked, err := denylist.IsRevoked(context.Background(), "jti-logout")
	require.NoError(t, err)
	assert.True(t, revoked)
}

/*
TestHandler_ListUsers checks the paginated admin directory payload.
*/
func TestHandler_ListUsers(t *testing.T) {
	service, _, _, _ := newServiceParts()
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := service.Register(context.Background(), auth.RegisterInput{
			Name: "Test User", Email: email, Password: "Password123",
		})
		require.NoError(t, err)
	}

	handler := auth.NewHandler(service)

	request := httptest.NewRequest(http.MethodGet, "/users?page=1&limit=2", nil)
	recorder := httptest.NewRecorder()
	handler.ListUsers(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Success bool             `json:"success"`
		Users   []map[string]any `json:"users"`
		Meta    struct {
			Total      int `json:"total"`
			TotalPages int `json:"total_pages"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Len(t, body.Users, 2)
	assert.Equal(t, 3, body.Meta.Total)
	assert.Equal(t, 2, body.Meta.TotalPages)
}
