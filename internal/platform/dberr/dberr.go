// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mercato/mercato/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// IsNoRows reports whether the error is pgx's no-rows sentinel.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether the error is a unique-constraint violation
// (SQLSTATE 23505), letting callers map duplicates to a client-safe Conflict.
func IsUniqueViolation(err error) bool {
	var pgError *pgconn.PgError
	if !errors.As(err, &pgError) {
		return false
	}
	return pgError.Code == pgerrcode.UniqueViolation
}

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
func Wrap(err error) error {
	if err == nil {
		return nil
	}

	if IsNoRows(err) {
		return ErrNotFound
	}

	if IsUniqueViolation(err) {
		return apperr.Conflict("Resource already exists")
	}

	return apperr.Internal(err)
}
