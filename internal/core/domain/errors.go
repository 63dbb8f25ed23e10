package domain

import "errors"

// Credential and token failures.
var (
	ErrDuplicateUser   = errors.New("user already exists")
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserCreation    = errors.New("user creation failed")
	ErrUserNotFound    = errors.New("user not found")
	ErrRoleNotFound    = errors.New("role not found")

	// ErrInvalidToken covers every token validation failure. It is never
	// narrowed for the caller.
	ErrInvalidToken = errors.New("invalid token")
)

// ErrForbidden means an authenticated subject lacked the role or ownership
// required for the operation.
var ErrForbidden = errors.New("access forbidden")

// ErrStoreUnavailable wraps persistence failures that must surface as server errors.
var ErrStoreUnavailable = errors.New("store unavailable")

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrDuplicateEventName = errors.New("event name already exists")
)
