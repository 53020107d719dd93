package api

import (
	"errors"
	"testing"

	"aegis/internal/identity"
)

func TestAuthorize_Unauthenticated(t *testing.T) {
	err := Authorize(Principal{}, false, []identity.Role{identity.RoleUser})
	if !errors.Is(err, ErrNoPrincipal) {
		t.Fatalf("expected ErrNoPrincipal, got %v", err)
	}
}

func TestAuthorize_EmptySetDeniesEveryRole(t *testing.T) {
	// Absent policy fails closed for all roles, admin included.
	for _, role := range []identity.Role{identity.RoleUser, identity.RoleAdmin} {
		p := Principal{ID: "u-1", Role: role}

		if err := Authorize(p, true, nil); !errors.Is(err, ErrRoleForbidden) {
			t.Fatalf("role %q with nil set: expected ErrRoleForbidden, got %v", role, err)
		}
		if err := Authorize(p, true, []identity.Role{}); !errors.Is(err, ErrRoleForbidden) {
			t.Fatalf("role %q with empty set: expected ErrRoleForbidden, got %v", role, err)
		}
	}
}

func TestAuthorize_AllowedAndDenied(t *testing.T) {
	admin := Principal{ID: "u-1", Role: identity.RoleAdmin}
	user := Principal{ID: "u-2", Role: identity.RoleUser}
	allowed := []identity.Role{identity.RoleAdmin}

	if err := Authorize(admin, true, allowed); err != nil {
		t.Fatalf("admin should pass, got %v", err)
	}
	if err := Authorize(user, true, allowed); !errors.Is(err, ErrRoleForbidden) {
		t.Fatalf("user should be denied, got %v", err)
	}
}

func TestAuthorize_IgnoresUnknownRolesInSet(t *testing.T) {
	p := Principal{ID: "u-1", Role: identity.Role("superuser")}

	// An unknown role in the allowed set never grants access, even to a
	// principal carrying that same unknown role.
	if err := Authorize(p, true, []identity.Role{identity.Role("superuser")}); !errors.Is(err, ErrRoleForbidden) {
		t.Fatalf("expected ErrRoleForbidden, got %v", err)
	}
}
