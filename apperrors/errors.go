package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the service layer. Controllers map these onto HTTP
// status codes; services wrap them with context via fmt.Errorf("...: %w").
var (
	// ErrValidation covers missing or malformed input (400).
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized covers missing, invalid or expired credentials (401).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden covers authenticated actors lacking permission (403).
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound covers resources that do not resolve, or that the actor
	// is not allowed to know exist (404).
	ErrNotFound = errors.New("not found")
	// ErrConflict covers duplicate unique fields such as meter serials (400).
	ErrConflict = errors.New("conflict")
)

// Validation wraps ErrValidation with a user-facing message.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// Forbidden wraps ErrForbidden with a user-facing message.
func Forbidden(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrForbidden)...)
}

// NotFound wraps ErrNotFound with a user-facing message.
func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Conflict wraps ErrConflict with a user-facing message.
func Conflict(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

// Message strips the sentinel suffix appended by the wrap helpers so the
// original message can be returned to the client on its own.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{ErrValidation, ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict} {
		suffix := ": " + sentinel.Error()
		if len(msg) > len(suffix) && msg[len(msg)-len(suffix):] == suffix {
			return msg[:len(msg)-len(suffix)]
		}
	}
	return msg
}
