package identity

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process credential Store for development and tests.
// All operations hold the store mutex, so the rotation compare-and-swap is
// serialized the same way the SQL stores serialize it.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]*User
	byEmail map[string]string // email_norm -> id
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

// CreateUser inserts a new user.
func (s *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "email is required"}
	}
	if strings.TrimSpace(in.PasswordHash) == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "password hash is required"}
	}
	if !in.Role.Valid() {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "unknown role"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	norm := NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[norm]; exists {
		return User{}, ConflictError{Op: op, Field: "email"}
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	u := User{
		ID:           id,
		Email:        email,
		EmailNorm:    norm,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		CreatedAt:    now,
	}
	s.byID[id] = &u
	s.byEmail[norm] = id

	return u, nil
}

// GetUserByEmail looks up a user by normalized email.
func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return User{}, NotFoundError{Op: "identity.GetUserByEmail", Resource: "user"}
	}
	return cloneUser(s.byID[id]), nil
}

// GetUserByID looks up a user by id.
func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return User{}, NotFoundError{Op: "identity.GetUserByID", Resource: "user"}
	}
	return cloneUser(u), nil
}

// ListUsers returns all users ordered by id.
func (s *MemoryStore) ListUsers(ctx context.Context) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]User, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetRefreshToken unconditionally replaces the stored refresh-token hash.
func (s *MemoryStore) SetRefreshToken(ctx context.Context, userID, tokenHash string) error {
	const op = "identity.SetRefreshToken"

	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(tokenHash) == "" {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing token hash"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return NotFoundError{Op: op, Resource: "user"}
	}
	h := tokenHash
	u.RefreshTokenHash = &h
	return nil
}

// RotateRefreshToken performs the rotation compare-and-swap under the store mutex.
func (s *MemoryStore) RotateRefreshToken(ctx context.Context, userID, oldHash, newHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(oldHash) == "" || strings.TrimSpace(newHash) == "" {
		return OpError{Op: "identity.RotateRefreshToken", Kind: ErrInvalidInput, Msg: "missing rotation arguments"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok || u.RefreshTokenHash == nil || *u.RefreshTokenHash != oldHash {
		return notActiveRotate()
	}
	h := newHash
	u.RefreshTokenHash = &h
	return nil
}

// ClearRefreshToken removes the stored refresh-token hash. Idempotent.
func (s *MemoryStore) ClearRefreshToken(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.byID[userID]; ok {
		u.RefreshTokenHash = nil
	}
	return nil
}

func cloneUser(u *User) User {
	out := *u
	if u.RefreshTokenHash != nil {
		h := *u.RefreshTokenHash
		out.RefreshTokenHash = &h
	}
	return out
}
