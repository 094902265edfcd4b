package models

import (
	"errors"
	"fmt"
)

// Error codes for structured error handling.
const (
	ErrCodeValidation  = "VALIDATION_ERROR"
	ErrCodeRemoteFetch = "REMOTE_FETCH_ERROR"
	ErrCodeRemoteWrite = "REMOTE_WRITE_ERROR"
	ErrCodeGuestMode   = "GUEST_MODE_ERROR"
)

// Sentinel errors
var (
	ErrNotInGuestMode      = errors.New("not in guest mode")
	ErrRemoteFetchFailed   = errors.New("remote fetch failed")
	ErrRemoteWriteFailed   = errors.New("remote write failed")
	ErrValidationFailed    = errors.New("validation failed")
	ErrSessionNotFound     = errors.New("session not found")
	ErrExerciseNotFound    = errors.New("exercise not found")
	ErrMigrationInProgress = errors.New("migration already in progress")
	ErrInvalidStrategy     = errors.New("invalid resolution strategy")
)

// FieldError describes a single rejected field.
type FieldError struct {
	Record string
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Record != "" {
		return fmt.Sprintf("validation failed: %s: %s: %s", e.Record, e.Field, e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrValidationFailed
}

// MigrationError records a failure to migrate one record. The message
// carries the record name and the store's error, never other record fields.
type MigrationError struct {
	Code   string
	Phase  string
	Kind   ConflictKind
	Record string
	Err    error
}

func (e *MigrationError) Error() string {
	if e.Record != "" {
		return fmt.Sprintf("failed to migrate %s %q: %v", e.Kind, e.Record, e.Err)
	}
	return fmt.Sprintf("migration %s [%s]: %v", e.Phase, e.Code, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

func fieldErr(record, field, reason string) error {
	return &FieldError{Record: record, Field: field, Reason: reason}
}
