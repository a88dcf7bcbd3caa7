// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// This package centralizes the presentation logic for HTTP responses.
// It ensures that every response (Success or Error) across the entire application
// follows a strict, predictable JSON envelope structure. This consistency is
// crucial for the SPA frontend and the CLI client to parse data robustly.
//
// # Envelope
//
// Success responses carry {"success": true, ...fields}; error responses carry
// {"success": false, "error": {"message", "code", "details?"}} with a stable
// machine-readable code.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mercato/mercato/internal/platform/apperr"
	"github.com/mercato/mercato/internal/platform/constants"
	"github.com/mercato/mercato/internal/platform/ctxutil"
	"github.com/mercato/mercato/pkg/pagination"
)

// Envelope holds the top-level fields of a success response. The "success"
// flag is injected by the writer helpers; callers only provide payload fields.
type Envelope map[string]any

// ErrorBody is the nested object of an error response.
type ErrorBody struct {
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// ErrorEnvelope is the JSON envelope for error responses.
type ErrorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response with the fields merged into the success envelope.
func OK(writer http.ResponseWriter, fields Envelope) {
	JSON(writer, http.StatusOK, withSuccess(fields))
}

// Created writes a 201 Created response with the fields merged into the success envelope.
func Created(writer http.ResponseWriter, fields Envelope) {
	JSON(writer, http.StatusCreated, withSuccess(fields))
}

// Paginated writes a 200 OK response with list fields and a metadata block.
func Paginated(writer http.ResponseWriter, fields Envelope, metadata pagination.Meta) {
	fields[constants.FieldMeta] = metadata
	JSON(writer, http.StatusOK, withSuccess(fields))
}

// NoContent writes a 204 No Content response.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// Error converts any Go error into a standardized JSON API error response.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		// Unexpected internal error: log full details but hide them from the client for security.
		logger := ctxutil.GetLogger(request.Context())
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
		)
		appError = apperr.Internal(err)
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus >= 500 {
		logger := ctxutil.GetLogger(request.Context())
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Success: false,
		Error: ErrorBody{
			Message: appError.Message,
			Code:    appError.Code,
			Details: appError.Details,
		},
	})
}

// withSuccess injects the success flag into the envelope.
func withSuccess(fields Envelope) Envelope {
	if fields == nil {
		fields = Envelope{}
	}
	fields[constants.FieldSuccess] = true
	return fields
}
