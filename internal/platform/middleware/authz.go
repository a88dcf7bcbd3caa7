// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mercato/mercato/internal/platform/apperr"
	"github.com/mercato/mercato/internal/platform/constants"
	"github.com/mercato/mercato/internal/platform/ctxutil"
	"github.com/mercato/mercato/internal/platform/respond"
	"github.com/mercato/mercato/internal/platform/sec"
	"github.com/mercato/mercato/internal/users/auth"
)

// # Gate Contracts

// TokenVerifier defines the interface needed to verify bearer tokens.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the gate from [sec.TokenService],
// allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	Verify(tokenString string) (*sec.TokenClaims, error)
}

// UserResolver resolves a verified token subject against the credential store.
type UserResolver interface {
	FindByID(ctx context.Context, id string) (*auth.User, error)
}

// TokenDenylist reports whether a token ID has been revoked server-side.
type TokenDenylist interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// # Auth Gate

// RequireUser is the authentication gate for protected routes.
//
// # Flow
//
//  1. Extract a candidate token from 'Authorization: Bearer <token>', falling
//     back to the 'token' cookie. Neither present → 401 UNAUTHORIZED, and the
//     credential store is never consulted.
//  2. Verify the candidate via [TokenVerifier]. Bad signature, malformed
//     payload, or expiry → 401 INVALID_TOKEN.
//  3. Check the revocation denylist. A revoked token ID → 401 INVALID_TOKEN.
//  4. Resolve the subject via [UserResolver]. Missing → 401 USER_NOT_FOUND.
//  5. Attach the resolved user and claims to the request context and admit.
//
// # Contract
//
// Exactly one of admit-with-user / reject-with-kind happens per invocation;
// there is no anonymous pass-through.
func RequireUser(verifier TokenVerifier, users UserResolver, denylist TokenDenylist) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Token Extraction ───────────────────────────────────────────
			tokenString := extractToken(request)
			if tokenString == "" {
				respond.Error(writer, request, apperr.Unauthorized("Not authorized to access this route"))
				return
			}

			// ── 2. Token Verification ─────────────────────────────────────────
			claims, err := verifier.Verify(tokenString)
			if err != nil {
				respond.Error(writer, request, apperr.InvalidToken("Not authorized to access this route"))
				return
			}

			// ── 3. Revocation Check ───────────────────────────────────────────
			if denylist != nil {
				revoked, err := denylist.IsRevoked(request.Context(), claims.ID)
				if err != nil {
					// Fail closed: an unreachable denylist must not admit tokens
					// we cannot vouch for.
					respond.Error(writer, request, apperr.Internal(err))
					return
				}
				if revoked {
					respond.Error(writer, request, apperr.InvalidToken("Not authorized to access this route"))
					return
				}
			}

			// ── 4. Subject Resolution ─────────────────────────────────────────
			user, err := users.FindByID(request.Context(), claims.UserID())
			if err != nil || user == nil {
				respond.Error(writer, request, apperr.UserNotFound("User not found"))
				return
			}

			// ── 5. Context Injection ──────────────────────────────────────────
			ctx := auth.WithUser(request.Context(), user)
			ctx = ctxutil.WithTokenClaims(ctx, claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Role Gate

// RequireRole blocks admitted requests whose user role is outside the allow-list.
//
// # Usage
//
// Must be registered AFTER [RequireUser], so a resolved user is always present.
//
// # Flow
//
//  1. Absent or unparsable role → 403 ROLE_UNDEFINED.
//  2. Role outside the allow-list → 403 FORBIDDEN, naming the offending role.
//  3. Otherwise admit. Pure predicate: no mutation, no side effects.
func RequireRole(allowed ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			user := auth.UserFrom(request.Context())

			// Defends against misregistration: a role gate mounted without the
			// auth gate in front of it.
			if user == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			role, err := sec.ParseRole(string(user.Role))
			if err != nil {
				respond.Error(writer, request, apperr.RoleUndefined("User role not defined"))
				return
			}

			for _, candidate := range allowed {
				if role == candidate {
					next.ServeHTTP(writer, request)
					return
				}
			}

			respond.Error(writer, request, apperr.Forbidden(
				"User role "+string(role)+" is not authorized to access this route"))
		})
	}
}

// extractToken pulls the bearer token from the Authorization header, falling
// back to the token cookie.
func extractToken(request *http.Request) string {
	authHeader := request.Header.Get(constants.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], constants.BearerScheme) {
			return strings.TrimSpace(parts[1])
		}
	}

	// A non-Bearer header (e.g. Basic) does not block the cookie path.
	cookie, err := request.Cookie(constants.TokenCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}
