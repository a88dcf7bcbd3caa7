// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

package dberr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercato/mercato/internal/platform/apperr"
	"github.com/mercato/mercato/internal/platform/dberr"
)

func TestIsNoRows(t *testing.T) {
	assert.True(t, dberr.IsNoRows(pgx.ErrNoRows))
	assert.True(t, dberr.IsNoRows(fmt.Errorf("query failed: %w", pgx.ErrNoRows)))
	assert.False(t, dberr.IsNoRows(errors.New("connection reset")))
	assert.False(t, dberr.IsNoRows(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	duplicate := &pgconn.PgError{Code: pgerrcode.UniqueViolation}

	assert.True(t, dberr.IsUniqueViolation(duplicate))
	assert.True(t, dberr.IsUniqueViolation(fmt.Errorf("insert failed: %w", duplicate)))
	assert.False(t, dberr.IsUniqueViolation(&pgconn.PgError{Code: pgerrcode.NotNullViolation}))
	assert.False(t, dberr.IsUniqueViolation(errors.New("connection reset")))
}

/*
TestWrap verifies classification: no-rows becomes a 404, unique violations a
409, and everything else an opaque 500 that keeps its cause for logging.
*/
func TestWrap(t *testing.T) {
	assert.NoError(t, dberr.Wrap(nil))

	t.Run("no_rows", func(t *testing.T) {
		err := dberr.Wrap(fmt.Errorf("user_lookup_failed: %w", pgx.ErrNoRows))
		assert.ErrorIs(t, err, dberr.ErrNotFound)
	})

	t.Run("unique_violation", func(t *testing.T) {
		duplicate := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
		err := dberr.Wrap(fmt.Errorf("user_insert_failed: %w", duplicate))

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "CONFLICT", ae.Code)
	})

	t.Run("other", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := dberr.Wrap(fmt.Errorf("user_list_failed: %w", cause))

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "INTERNAL_ERROR", ae.Code)
		assert.Equal(t, http.StatusInternalServerError, ae.HTTPStatus)
		assert.ErrorIs(t, ae.Cause, cause)
	})
}
