package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountBlocked indicates the account's persisted block flag is set.
	ErrAccountBlocked = errors.New("account blocked")
	// ErrTooManyAttempts indicates session-scoped suppression after repeated login failures.
	ErrTooManyAttempts = errors.New("too many failed attempts")
	// ErrPermissionDenied indicates the actor lacks the required permission.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrValidationFailed indicates request payload validation failure.
	ErrValidationFailed = errors.New("validation failed")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
