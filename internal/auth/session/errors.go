package session

import "errors"

var (
	// ErrInvalidCredentials is returned for unknown email and wrong password
	// alike. The single message prevents account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidEmail is returned when an email fails basic format checks.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrNotActive is returned for every refresh failure: missing token,
	// failed verification, expiry, stored-value mismatch, or a lost rotation
	// race. Deliberately indistinguishable so a replayed token reveals nothing.
	ErrNotActive = errors.New("refresh token not active")

	// ErrStoreUnavailable marks a transient store failure (e.g. a timed-out
	// store call). Callers report it as an internal failure, never retry silently.
	ErrStoreUnavailable = errors.New("credential store unavailable")

	// ErrConfig is returned for invalid session configuration.
	ErrConfig = errors.New("invalid session config")
)
