package session

import (
	"crypto/subtle"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config defines all runtime configuration for the session subsystem.
//
// It controls token TTLs, the signing secrets, and the store-call timeout.
// Secrets have no defaults: startup fails without them.
type Config struct {
	// Issuer is the value set in the "iss" claim of issued tokens.
	Issuer string

	// AccessTokenTTL is short (minutes); access tokens are stateless and
	// expire on their own.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL is long (days); refresh tokens are additionally bound
	// to the stored per-user value.
	RefreshTokenTTL time.Duration

	// AccessSecret and RefreshSecret sign the two token kinds. They must be
	// at least 32 bytes each and must differ from each other.
	AccessSecret  []byte
	RefreshSecret []byte

	// StoreTimeout bounds every credential-store call.
	StoreTimeout time.Duration
}

// DefaultConfig returns defaults for everything except the secrets.
func DefaultConfig() Config {
	return Config{
		Issuer:          "aegis",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		StoreTimeout:    3 * time.Second,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - AEGIS_ACCESS_TOKEN_SECRET  (min 32 bytes)
//   - AEGIS_REFRESH_TOKEN_SECRET (min 32 bytes, distinct from the access secret)
//
// Optional (durations must be valid Go duration strings):
//   - AEGIS_AUTH_ISSUER
//   - AEGIS_ACCESS_TOKEN_TTL
//   - AEGIS_REFRESH_TOKEN_TTL
//   - AEGIS_STORE_TIMEOUT
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("AEGIS_AUTH_ISSUER"); v != "" {
		cfg.Issuer = strings.TrimSpace(v)
	}

	if v := os.Getenv("AEGIS_ACCESS_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("%w: AEGIS_ACCESS_TOKEN_TTL", ErrConfig)
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("AEGIS_REFRESH_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("%w: AEGIS_REFRESH_TOKEN_TTL", ErrConfig)
		}
		cfg.RefreshTokenTTL = d
	}

	if v := os.Getenv("AEGIS_STORE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("%w: AEGIS_STORE_TIMEOUT", ErrConfig)
		}
		cfg.StoreTimeout = d
	}

	cfg.AccessSecret = []byte(strings.TrimSpace(os.Getenv("AEGIS_ACCESS_TOKEN_SECRET")))
	cfg.RefreshSecret = []byte(strings.TrimSpace(os.Getenv("AEGIS_REFRESH_TOKEN_SECRET")))

	return cfg, cfg.Validate()
}

// Validate enforces the secret and TTL invariants.
func (c Config) Validate() error {
	if len(c.AccessSecret) < 32 {
		return fmt.Errorf("%w: access secret missing or shorter than 32 bytes", ErrConfig)
	}
	if len(c.RefreshSecret) < 32 {
		return fmt.Errorf("%w: refresh secret missing or shorter than 32 bytes", ErrConfig)
	}
	// Shared secrets would let an access token pass as a refresh token.
	if len(c.AccessSecret) == len(c.RefreshSecret) &&
		subtle.ConstantTimeCompare(c.AccessSecret, c.RefreshSecret) == 1 {
		return fmt.Errorf("%w: access and refresh secrets must differ", ErrConfig)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.StoreTimeout <= 0 {
		return fmt.Errorf("%w: non-positive duration", ErrConfig)
	}
	if c.AccessTokenTTL >= c.RefreshTokenTTL {
		return fmt.Errorf("%w: access TTL must be shorter than refresh TTL", ErrConfig)
	}
	if strings.TrimSpace(c.Issuer) == "" {
		return fmt.Errorf("%w: empty issuer", ErrConfig)
	}
	return nil
}
