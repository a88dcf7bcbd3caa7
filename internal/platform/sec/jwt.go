// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via narrow interfaces.
package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mercato/mercato/pkg/uuid"
)

// TokenClaims represents the payload embedded inside a signed bearer token.
//
// The subject carries the user ID; the token ID (jti) is what the server-side
// revocation denylist keys on. Nothing else is embedded: the auth gate always
// resolves the live user record, so stale role or profile data can never be
// replayed out of a token.
type TokenClaims struct {
	jwt.RegisteredClaims
}

// UserID returns the user identifier the token was issued for.
func (c *TokenClaims) UserID() string { return c.Subject }

// TokenService issues and verifies HMAC-signed (HS256) bearer tokens with a
// fixed time-to-live.
//
// # Concurrency
//
// Both operations are pure computations over the immutable secret and the
// clock; the service is safe for unbounded concurrent use.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// minSecretLength guards against accidentally deploying with a trivial secret.
const minSecretLength = 16

// NewTokenService creates a TokenService signing with the given shared secret.
func NewTokenService(secret, issuer string, timeToLive time.Duration) (*TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("sec: JWT secret must be at least %d bytes", minSecretLength)
	}
	if timeToLive <= 0 {
		return nil, fmt.Errorf("sec: token TTL must be positive, got %s", timeToLive)
	}

	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    timeToLive,
	}, nil
}

// Issue creates a new signed bearer token for a user.
//
// The token embeds {sub: userID, jti, iat, exp: iat+TTL, iss} and nothing else.
func (service *TokenService) Issue(userID string) (string, error) {
	currentTime := time.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.New(),
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(service.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify checks the signature and validity of a bearer token string.
//
// # Contract
//
// Verification is all-or-nothing. A mismatched signature, a malformed payload,
// an unexpected signing algorithm, or a current time at or past expiry all
// fail with an error; there is no partial trust.
func (service *TokenService) Verify(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	return claims, nil
}
