// Package identity defines Aegis's security principal and the credential
// store boundary.
//
// A User carries its password hash, role, and at most one live refresh-token
// hash. The Store interface is the only persistence surface the auth core
// depends on; Postgres, SQLite, and in-memory implementations are provided.
package identity

import (
	"context"
	"time"
)

// Role is the closed set of authorization roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a string onto the closed role set.
// Unknown values are rejected rather than defaulted.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", OpError{Op: "identity.ParseRole", Kind: ErrInvalidInput, Msg: "unknown role"}
	}
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is Aegis's canonical security principal.
//
// RefreshTokenHash holds the SHA-256 hex digest of the single currently-valid
// refresh token, or nil when no session is live. The plain token value is
// never persisted.
type User struct {
	ID           string
	Email        string
	EmailNorm    string
	PasswordHash string
	Role         Role

	RefreshTokenHash *string

	CreatedAt time.Time
}

// CreateUserInput describes a registration request.
// Password hashing happens in the session layer; the store only sees the hash.
type CreateUserInput struct {
	Email        string
	PasswordHash string
	Role         Role
	Now          time.Time
}

// Store is the credential persistence boundary.
//
// All operations are atomic single-record operations against the user keyed
// by id or normalized email. Implementations must not close over shared
// mutable state beyond their own connection handle.
type Store interface {
	// CreateUser inserts a new user. Returns ConflictError (field "email")
	// when the normalized email already exists.
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)

	// GetUserByEmail looks up a user by case-normalized email.
	GetUserByEmail(ctx context.Context, email string) (User, error)

	// GetUserByID looks up a user by id.
	GetUserByID(ctx context.Context, id string) (User, error)

	// ListUsers returns all users ordered by id.
	ListUsers(ctx context.Context) ([]User, error)

	// SetRefreshToken unconditionally replaces the stored refresh-token hash,
	// superseding any previous session for this user.
	SetRefreshToken(ctx context.Context, userID, tokenHash string) error

	// RotateRefreshToken replaces the stored hash only if it still equals
	// oldHash.
	//
	// Security contract:
	// - The compare-and-swap must be a single atomic write; two concurrent
	//   rotations racing on the same oldHash admit at most one winner.
	// - Returns ErrNotActive when the user is missing, has no live token,
	//   or the stored hash does not match (including lost races). The reason
	//   is deliberately indistinguishable to the caller.
	RotateRefreshToken(ctx context.Context, userID, oldHash, newHash string) error

	// ClearRefreshToken removes the stored refresh-token hash. Idempotent.
	ClearRefreshToken(ctx context.Context, userID string) error
}
