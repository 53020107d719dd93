package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"aegis/internal/auth/token"
	"aegis/internal/identity"
	"aegis/internal/security/password"
)

// Service implements the high-level session operations for Aegis.
//
// It registers users, authenticates logins, issues access/refresh token
// pairs, validates access tokens, and performs mandatory refresh rotation
// against the credential store.
type Service struct {
	cfg   Config
	store identity.Store
	log   *slog.Logger

	pw      password.Config
	access  *token.Codec
	refresh *token.Codec

	// dummyHash is verified against when a login email is unknown, keeping
	// the unknown-user and wrong-password paths indistinguishable by timing.
	dummyHash string
}

// TokenPair is the result of issuing or rotating a session.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// NewService constructs a Service with the provided configuration and store.
func NewService(cfg Config, store identity.Store, log *slog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrConfig)
	}
	if log == nil {
		log = slog.Default()
	}

	access, err := token.NewCodec(cfg.AccessSecret, cfg.AccessTokenTTL, cfg.Issuer)
	if err != nil {
		return nil, err
	}
	refresh, err := token.NewCodec(cfg.RefreshSecret, cfg.RefreshTokenTTL, cfg.Issuer)
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:     cfg,
		store:   store,
		log:     log,
		pw:      password.DefaultConfig(),
		access:  access,
		refresh: refresh,
	}

	if hash, err := s.pw.Hash("dummy-password-for-timing-only"); err == nil {
		s.dummyHash = hash
	}

	return s, nil
}

// Register creates a new user with the default role.
//
// Fails with identity.ErrConflict when the normalized email already exists
// and with identity.ErrInvalidInput when email or password fail basic checks.
func (s *Service) Register(ctx context.Context, email, passwordPlain string) (identity.User, error) {
	const op = "session.Register"

	email, err := validEmail(email)
	if err != nil {
		return identity.User{}, identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: "malformed email"}
	}
	if err := s.pw.Validate(passwordPlain); err != nil {
		return identity.User{}, identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: err.Error()}
	}

	hash, err := s.pw.Hash(passwordPlain)
	if err != nil {
		return identity.User{}, err
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	u, err := s.store.CreateUser(sctx, identity.CreateUserInput{
		Email:        email,
		PasswordHash: hash,
		Role:         identity.RoleUser,
		Now:          time.Now().UTC(),
	})
	if err != nil {
		return identity.User{}, wrapStore(err)
	}

	s.log.Info("auth.register", "user_id", u.ID)
	return u, nil
}

// Login authenticates credentials and issues a fresh token pair.
//
// Unknown email and wrong password both return ErrInvalidCredentials. The
// refresh token is persisted (hashed) before the pair is returned; a store
// failure means no tokens escape.
func (s *Service) Login(ctx context.Context, email, passwordPlain string) (identity.User, TokenPair, error) {
	email, err := validEmail(email)
	if err != nil {
		return identity.User{}, TokenPair{}, ErrInvalidEmail
	}

	sctx, cancel := s.storeCtx(ctx)
	u, err := s.store.GetUserByEmail(sctx, email)
	cancel()
	if err != nil {
		if identity.IsNotFound(err) {
			// Timing resistance: burn a verify even though the user is missing.
			if s.dummyHash != "" {
				_, _ = s.pw.Verify(s.dummyHash, passwordPlain)
			}
			return identity.User{}, TokenPair{}, ErrInvalidCredentials
		}
		return identity.User{}, TokenPair{}, wrapStore(err)
	}

	ok, err := s.pw.Verify(u.PasswordHash, passwordPlain)
	if err != nil || !ok {
		return identity.User{}, TokenPair{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	pair, refreshHash, err := s.issuePair(now, u)
	if err != nil {
		return identity.User{}, TokenPair{}, err
	}

	// Persist before returning: login supersedes any previous session.
	sctx, cancel = s.storeCtx(ctx)
	err = s.store.SetRefreshToken(sctx, u.ID, refreshHash)
	cancel()
	if err != nil {
		s.log.Error("auth.login.persist.fail", "err", err, "user_id", u.ID)
		return identity.User{}, TokenPair{}, wrapStore(err)
	}

	s.log.Info("auth.login", "user_id", u.ID)
	return u, pair, nil
}

// Refresh validates a presented refresh token and rotates it.
//
// Every failure is ErrNotActive: missing/malformed token, bad signature,
// expiry, stored-value mismatch, or a concurrent rotation that already won.
// On success the old token is dead; presenting it again fails.
func (s *Service) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	presented = strings.TrimSpace(presented)
	// Basic sanity bounds to avoid pathological inputs.
	if presented == "" || len(presented) > 4096 {
		return TokenPair{}, ErrNotActive
	}

	claims, err := s.refresh.Verify(presented)
	if err != nil {
		return TokenPair{}, ErrNotActive
	}

	sctx, cancel := s.storeCtx(ctx)
	u, err := s.store.GetUserByID(sctx, claims.UserID)
	cancel()
	if err != nil {
		if identity.IsNotFound(err) {
			return TokenPair{}, ErrNotActive
		}
		return TokenPair{}, wrapStore(err)
	}

	oldHash := hashTokenHex(presented)
	if u.RefreshTokenHash == nil || !ctEqHex64(*u.RefreshTokenHash, oldHash) {
		return TokenPair{}, ErrNotActive
	}

	now := time.Now().UTC()
	pair, newHash, err := s.issuePair(now, u)
	if err != nil {
		return TokenPair{}, err
	}

	// The conditional write is the serialization point: rotation succeeds
	// only if the stored hash still equals the presented one.
	sctx, cancel = s.storeCtx(ctx)
	err = s.store.RotateRefreshToken(sctx, u.ID, oldHash, newHash)
	cancel()
	if err != nil {
		if identity.IsNotActive(err) {
			return TokenPair{}, ErrNotActive
		}
		return TokenPair{}, wrapStore(err)
	}

	s.log.Info("auth.refresh", "user_id", u.ID)
	return pair, nil
}

// Logout clears the stored refresh token. Idempotent: logging out twice, or
// without a live session, succeeds.
func (s *Service) Logout(ctx context.Context, userID string) error {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.store.ClearRefreshToken(sctx, userID); err != nil {
		return wrapStore(err)
	}
	s.log.Info("auth.logout", "user_id", userID)
	return nil
}

// Authenticate verifies an access token and loads the identity it names.
//
// Read-only: no store write happens on this path. Expiry surfaces as
// token.ErrTokenExpired so callers can signal "refresh now" distinctly;
// every other failure, including an identity that no longer exists, is
// token.ErrInvalidToken.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (identity.User, error) {
	claims, err := s.access.Verify(accessToken)
	if err != nil {
		return identity.User{}, err
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	u, err := s.store.GetUserByID(sctx, claims.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			return identity.User{}, token.ErrInvalidToken
		}
		return identity.User{}, wrapStore(err)
	}
	return u, nil
}

// Users lists all registered users.
func (s *Service) Users(ctx context.Context) ([]identity.User, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	users, err := s.store.ListUsers(sctx)
	if err != nil {
		return nil, wrapStore(err)
	}
	return users, nil
}

// issuePair signs a fresh access/refresh pair for u.
// The refresh hash is returned for the caller to persist; nothing is
// considered issued until that write succeeds.
func (s *Service) issuePair(now time.Time, u identity.User) (TokenPair, string, error) {
	accessTok, accessExp, err := s.access.Sign(now, token.Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
	})
	if err != nil {
		return TokenPair{}, "", err
	}

	refreshTok, refreshExp, err := s.refresh.Sign(now, token.Claims{UserID: u.ID})
	if err != nil {
		return TokenPair{}, "", err
	}

	pair := TokenPair{
		AccessToken:      accessTok,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshTok,
		RefreshExpiresAt: refreshExp,
	}
	return pair, hashTokenHex(refreshTok), nil
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

// wrapStore marks timed-out store calls as transient failures.
func wrapStore(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

// validEmail trims and validates an address, rejecting display-name forms.
func validEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
