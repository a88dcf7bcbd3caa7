// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/mercato/mercato/internal/platform/ctxutil"
	"github.com/mercato/mercato/internal/platform/sec"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_TokenClaims verifies that verified claims can be stored in context.
*/
func TestContext_TokenClaims(t *testing.T) {
	ctx := context.Background()
	claims := &sec.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "user-123",
			ID:      "jti-1",
		},
	}

	// 1. Initially should be nil (anonymous request)
	assert.Nil(t, ctxutil.GetTokenClaims(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithTokenClaims(ctx, claims)
	retrieved := ctxutil.GetTokenClaims(ctx)

	assert.NotNil(t, retrieved)
	assert.Equal(t, "user-123", retrieved.UserID())
	assert.Equal(t, "jti-1", retrieved.ID)
}
