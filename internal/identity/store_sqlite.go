package identity

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements the credential Store over SQLite for single-node
// and local deployments. Semantics match PostgresStore exactly; SQLite
// serializes writers, so the rotation compare-and-swap has the same
// at-most-one-winner property.
type SQLiteStore struct {
	db *sqlx.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id                 TEXT PRIMARY KEY,
	email              TEXT NOT NULL,
	email_norm         TEXT NOT NULL UNIQUE,
	password_hash      TEXT NOT NULL,
	role               TEXT NOT NULL,
	refresh_token_hash TEXT,
	created_at         TIMESTAMP NOT NULL
)`

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. Use path ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// A single connection avoids SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type sqliteUser struct {
	ID               string         `db:"id"`
	Email            string         `db:"email"`
	EmailNorm        string         `db:"email_norm"`
	PasswordHash     string         `db:"password_hash"`
	Role             string         `db:"role"`
	RefreshTokenHash sql.NullString `db:"refresh_token_hash"`
	CreatedAt        time.Time      `db:"created_at"`
}

func (r sqliteUser) toUser() User {
	u := User{
		ID:           r.ID,
		Email:        r.Email,
		EmailNorm:    r.EmailNorm,
		PasswordHash: r.PasswordHash,
		Role:         Role(r.Role),
		CreatedAt:    r.CreatedAt,
	}
	if r.RefreshTokenHash.Valid {
		h := r.RefreshTokenHash.String
		u.RefreshTokenHash = &h
	}
	return u
}

// CreateUser inserts a new user row.
func (s *SQLiteStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

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

	userID, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, email_norm, password_hash, role, refresh_token_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, NULL, $6)`,
		userID, email, NormalizeEmail(email), in.PasswordHash, string(in.Role), now)
	if err != nil {
		if sqliteIsUniqueViolation(err) {
			return User{}, ConflictError{Op: op, Field: "email"}
		}
		return User{}, err
	}

	return User{
		ID:           userID,
		Email:        email,
		EmailNorm:    NormalizeEmail(email),
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		CreatedAt:    now,
	}, nil
}

// GetUserByEmail looks up a user by normalized email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.GetUserByEmail"

	var row sqliteUser
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM users WHERE email_norm = $1`, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, err
	}
	return row.toUser(), nil
}

// GetUserByID looks up a user by id.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	var row sqliteUser
	err := s.db.GetContext(ctx, &row, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, err
	}
	return row.toUser(), nil
}

// ListUsers returns all users ordered by id.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]User, error) {
	var rows []sqliteUser
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM users ORDER BY id`); err != nil {
		return nil, err
	}
	out := make([]User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toUser())
	}
	return out, nil
}

// SetRefreshToken unconditionally replaces the stored refresh-token hash.
func (s *SQLiteStore) SetRefreshToken(ctx context.Context, userID, tokenHash string) error {
	const op = "identity.SetRefreshToken"

	if strings.TrimSpace(tokenHash) == "" {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing token hash"}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = ?2 WHERE id = ?1`, userID, tokenHash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

// RotateRefreshToken performs the rotation compare-and-swap.
func (s *SQLiteStore) RotateRefreshToken(ctx context.Context, userID, oldHash, newHash string) error {
	if strings.TrimSpace(oldHash) == "" || strings.TrimSpace(newHash) == "" {
		return OpError{Op: "identity.RotateRefreshToken", Kind: ErrInvalidInput, Msg: "missing rotation arguments"}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = ?3
		  WHERE id = ?1 AND refresh_token_hash = ?2`,
		userID, oldHash, newHash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notActiveRotate()
	}
	return nil
}

// ClearRefreshToken removes the stored refresh-token hash. Idempotent.
func (s *SQLiteStore) ClearRefreshToken(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = NULL WHERE id = $1`, userID)
	return err
}

func sqliteIsUniqueViolation(err error) bool {
	var sqErr sqlite3.Error
	if !errors.As(err, &sqErr) {
		return false
	}
	return sqErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
