// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package errs defines the error taxonomy shared by the store, cms and
// handler layers. Stores translate database failures into these sentinels
// and handlers translate them into HTTP status codes.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the addressed entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a uniqueness rule (slug, name) was violated.
	ErrConflict = errors.New("already exists")

	// ErrInvalidReference means a foreign reference points nowhere.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrInUse means the entity is still referenced and cannot be deleted.
	ErrInUse = errors.New("still in use")

	// ErrStorageUnavailable means object storage is required but not configured.
	ErrStorageUnavailable = errors.New("object storage is not configured")
)

// ValidationError reports a rejected input field. It is always returned
// before any write is attempted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid returns a *ValidationError for the given field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Conflict wraps ErrConflict with the entity that clashed, e.g.
// Conflict("post slug") reads "post slug already exists".
func Conflict(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrConflict)
}

// NotFound wraps ErrNotFound with the entity name.
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// InUse wraps ErrInUse with the entity name.
func InUse(entity string) error {
	return fmt.Errorf("%s is %w", entity, ErrInUse)
}
