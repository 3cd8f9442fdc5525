package service

import "errors"

// Business errors surfaced to the request boundary. The HTTP layer maps
// each of these to a status code in exactly one place
// (internal/handler/http.HandleServiceError); nothing below that boundary
// panics or retries, except the bounded join-code generation loop.
var (
	// ErrInvalidCodeFormat means the join code failed the syntax check.
	// It is raised before any store round trip.
	ErrInvalidCodeFormat = errors.New("join code has invalid format")

	// ErrSessionNotFound means no session (or no active session, depending
	// on the operation) matches the given code or id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionEnded means the session exists but is over. Kept distinct
	// from ErrSessionNotFound so clients can tell "never existed" from
	// "existed, now over".
	ErrSessionEnded = errors.New("session has ended")

	// ErrInvalidInput means a required field of a write body is missing or
	// mistyped.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCodeExhausted means the join-code uniqueness retry bound was hit.
	// Transient; the caller may simply retry the create.
	ErrCodeExhausted = errors.New("could not generate a unique join code")

	// ErrNotSessionOwner means a trainer-side write came from a user other
	// than the session's trainer.
	ErrNotSessionOwner = errors.New("not the session owner")

	ErrUserNotFound         = errors.New("user not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username or email already exists")

	// ErrInternalServer wraps store/collaborator failures. They are surfaced,
	// never silently swallowed.
	ErrInternalServer = errors.New("internal server error")
)
