package api

import (
	"errors"

	"aegis/internal/identity"
)

var (
	// ErrNoPrincipal is returned when no authenticated principal is attached.
	ErrNoPrincipal = errors.New("no authenticated principal")

	// ErrRoleForbidden is returned when the principal's role is not allowed.
	ErrRoleForbidden = errors.New("role not allowed")
)

// Authorize decides whether a principal may proceed given an allowed-role set.
//
// Pure function, no side effects. An empty or nil allowed set denies for
// every role: absent policy fails closed, never open.
func Authorize(p Principal, authenticated bool, allowed []identity.Role) error {
	if !authenticated {
		return ErrNoPrincipal
	}
	for _, role := range allowed {
		if role.Valid() && p.Role == role {
			return nil
		}
	}
	return ErrRoleForbidden
}
