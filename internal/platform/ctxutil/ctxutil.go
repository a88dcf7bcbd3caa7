// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/mercato/mercato/internal/platform/ctxkey"
	"github.com/mercato/mercato/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithTokenClaims returns a new context carrying the verified token claims the
// current request was admitted with.
func WithTokenClaims(ctx context.Context, claims *sec.TokenClaims) context.Context {
	return context.WithValue(ctx, ctxkey.KeyTokenClaims, claims)
}

// GetTokenClaims retrieves the verified [*sec.TokenClaims] from the context.
// Returns nil for anonymous requests.
func GetTokenClaims(ctx context.Context) *sec.TokenClaims {
	claims, ok := ctx.Value(ctxkey.KeyTokenClaims).(*sec.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
