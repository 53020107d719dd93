package token

import "errors"

var (
	// ErrTokenExpired is returned when a token is well-signed but past its expiry.
	// Callers use this to distinguish "refresh now" from "re-login".
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidToken is returned for every other verification failure:
	// bad signature, wrong algorithm, malformed payload, missing claims.
	ErrInvalidToken = errors.New("invalid token")

	// ErrConfig is returned for invalid codec configuration.
	ErrConfig = errors.New("invalid token codec config")
)
