package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/roomreserve/internal/conflict"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission
	// for an operation, such as a non-owner cancelling someone else's
	// reservation or a non-admin managing rooms.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested user, room, or reservation
	// does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidCredentials is returned on failed authentication attempts.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrUserBlocked is returned when a blocked user attempts to book.
	ErrUserBlocked = errors.New("application: user is blocked")
	// ErrQuotaExceeded is returned when a user already holds the maximum
	// number of active reservations.
	ErrQuotaExceeded = errors.New("application: active reservation quota exceeded")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v.FieldErrors))
	for field, msg := range v.FieldErrors {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ConflictError reports that a candidate booking clashes with existing active
// reservations under the engine's current policy.
type ConflictError struct {
	RoomID    int64
	Date      string
	Policy    string
	Conflicts []conflict.Conflict
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil || len(e.Conflicts) == 0 {
		return "reservation conflict"
	}
	first := e.Conflicts[0]
	return fmt.Sprintf("room %d already reserved on %s from %s to %s",
		e.RoomID, e.Date, conflict.FormatMinute(first.Start), conflict.FormatMinute(first.End))
}
