// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// # Architecture
//
// The same rule set runs in two places: the HTTP handlers (server-side request
// validation) and the client session layer (pre-flight form validation that
// suppresses the remote call entirely). Keeping one implementation guarantees
// the two can never drift apart.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mercato/mercato/internal/platform/apperr"
)

var (
	// lettersSpacesRegex matches names made of letters and spaces only.
	lettersSpacesRegex = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	// zipCodeRegex matches US ZIP and ZIP+4 formats.
	zipCodeRegex = regexp.MustCompile(`^[0-9]{5}(-[0-9]{4})?$`)

	// ErrInvalidJSON is returned when the request body cannot be decoded.
	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")
)

// Validator collects field-level validation errors via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// Email fails if the value is not a valid RFC 5322 email address.
func (v *Validator) Email(field, value string) *Validator {
	if _, err := mail.ParseAddress(value); err != nil {
		v.add(field, "Must be a valid email address")
	}
	return v
}

// PersonName fails unless the value is 2–50 characters of letters and spaces.
func (v *Validator) PersonName(field, value string) *Validator {
	length := utf8.RuneCountInString(value)
	if length < 2 || length > 50 {
		v.add(field, "Must be between 2 and 50 characters")
		return v
	}
	if !lettersSpacesRegex.MatchString(value) {
		v.add(field, "Can only contain letters and spaces")
	}
	return v
}

// LettersAndSpaces fails if the value contains anything but letters and spaces.
// Empty values pass; combine with Required when the field is mandatory.
func (v *Validator) LettersAndSpaces(field, value string) *Validator {
	if value != "" && !lettersSpacesRegex.MatchString(value) {
		v.add(field, "Can only contain letters and spaces")
	}
	return v
}

// Password fails unless the value is at least 6 characters and contains at
// least one uppercase letter, one lowercase letter, and one digit.
func (v *Validator) Password(field, value string) *Validator {
	if utf8.RuneCountInString(value) < 6 {
		v.add(field, "Must be at least 6 characters long")
		return v
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		v.add(field, "Must contain at least one uppercase letter, one lowercase letter, and one number")
	}
	return v
}

// ZipCode fails if the value is not a valid ZIP or ZIP+4 code.
// Empty values pass; combine with Required when the field is mandatory.
func (v *Validator) ZipCode(field, value string) *Validator {
	if value != "" && !zipCodeRegex.MatchString(value) {
		v.add(field, "Must be a valid ZIP code")
	}
	return v
}

// Custom adds a failure with a custom message if the condition is true.
//
// # Example
//
//	v.Custom("confirmPassword", confirm != password, "Passwords do not match")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// Err returns a [apperr.AppError] (VALIDATION_ERROR) if any rules failed,
// or nil if all rules passed.
//
// This is the only output method — call it at the end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// add appends a [apperr.FieldError] to the internal slice.
func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

// RequiredError is a shortcut to create a single-field validation error.
func RequiredError(field, message string) *apperr.AppError {
	return apperr.ValidationError("Validation failed", apperr.FieldError{
		Field:   field,
		Message: message,
	})
}
