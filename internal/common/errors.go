// Package common defines shared constants and sentinel errors used across
// client and server layers of trackmeta. Callers should use errors.Is to
// match these values.
//
// Errors come in two levels: a small set of classes (ErrValidation,
// ErrConflict, ErrAuth, ErrorInternal) and concrete errors that wrap one of
// them, so both errors.Is(err, ErrWeakPassword) and
// errors.Is(err, ErrValidation) hold for the same value.
package common

import (
	"errors"
	"fmt"
)

// Error classes.
var (
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("validation error")

	// ErrConflict marks a duplicate username or email.
	ErrConflict = errors.New("conflict")

	// ErrAuth marks bad credentials and invalid, expired or missing tokens.
	ErrAuth = errors.New("authentication error")

	// ErrorInternal marks unexpected storage or crypto failures.
	ErrorInternal = errors.New("internal error")
)

// Repository-level errors.
var (
	ErrorNotFound = errors.New("not found")
)

// Validation errors.
var (
	ErrMissingFields   = fmt.Errorf("%w: all fields are required", ErrValidation)
	ErrMissingLogin    = fmt.Errorf("%w: username and password are required", ErrValidation)
	ErrWeakPassword    = fmt.Errorf("%w: password does not satisfy policy", ErrValidation)
	ErrInvalidLogLevel = fmt.Errorf("%w: invalid log level", ErrValidation)
	ErrInvalidLogEntry = fmt.Errorf("%w: level, message, sessionId and timestamp are required", ErrValidation)
)

// Conflict errors.
var (
	ErrUsernameTaken    = fmt.Errorf("%w: username is already taken", ErrConflict)
	ErrEmailTaken       = fmt.Errorf("%w: email is already registered", ErrConflict)
	ErrDuplicateAccount = fmt.Errorf("%w: email or username is already registered", ErrConflict)
)

// Auth errors.
var (
	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrAuth)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrAuth)
	ErrTokenRequired      = fmt.Errorf("%w: token required", ErrAuth)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", ErrAuth)
	ErrTokenExpired       = fmt.Errorf("%w: token expired", ErrAuth)
)

// Client-side session errors.
var (
	ErrRefreshFailed = fmt.Errorf("%w: session refresh failed", ErrAuth)
	ErrNotLoggedIn   = errors.New("not logged in")
)
