package session

import (
	"errors"
	"testing"
)

const (
	testAccessSecret  = "access-secret-0123456789-0123456789-abc"
	testRefreshSecret = "refresh-secret-0123456789-0123456789-ab"
)

func TestLoadConfigFromEnv_MissingSecrets(t *testing.T) {
	t.Setenv("AEGIS_ACCESS_TOKEN_SECRET", "")
	t.Setenv("AEGIS_REFRESH_TOKEN_SECRET", "")
	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig on missing secrets, got %v", err)
	}
}

func TestLoadConfigFromEnv_ShortSecret(t *testing.T) {
	t.Setenv("AEGIS_ACCESS_TOKEN_SECRET", "too-short")
	t.Setenv("AEGIS_REFRESH_TOKEN_SECRET", testRefreshSecret)
	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig on short secret, got %v", err)
	}
}

func TestLoadConfigFromEnv_SharedSecret(t *testing.T) {
	t.Setenv("AEGIS_ACCESS_TOKEN_SECRET", testAccessSecret)
	t.Setenv("AEGIS_REFRESH_TOKEN_SECRET", testAccessSecret)
	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig on shared secret, got %v", err)
	}
}

func TestLoadConfigFromEnv_InvalidDurations(t *testing.T) {
	t.Setenv("AEGIS_ACCESS_TOKEN_SECRET", testAccessSecret)
	t.Setenv("AEGIS_REFRESH_TOKEN_SECRET", testRefreshSecret)
	t.Setenv("AEGIS_ACCESS_TOKEN_TTL", "-5m")
	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for negative duration, got %v", err)
	}
}

func TestLoadConfigFromEnv_TTLOrder(t *testing.T) {
	t.Setenv("AEGIS_ACCESS_TOKEN_SECRET", testAccessSecret)
	t.Setenv("AEGIS_REFRESH_TOKEN_SECRET", testRefreshSecret)
	t.Setenv("AEGIS_ACCESS_TOKEN_TTL", "48h")
	t.Setenv("AEGIS_REFRESH_TOKEN_TTL", "24h")
	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for ttl order, got %v", err)
	}
}

func TestLoadConfigFromEnv_Valid(t *testing.T) {
	t.Setenv("AEGIS_ACCESS_TOKEN_SECRET", "  "+testAccessSecret+"  ")
	t.Setenv("AEGIS_REFRESH_TOKEN_SECRET", testRefreshSecret)
	t.Setenv("AEGIS_AUTH_ISSUER", "aegis-test")
	t.Setenv("AEGIS_ACCESS_TOKEN_TTL", "10m")
	t.Setenv("AEGIS_REFRESH_TOKEN_TTL", "48h")
	t.Setenv("AEGIS_STORE_TIMEOUT", "2s")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.Issuer != "aegis-test" {
		t.Fatalf("issuer: %q", cfg.Issuer)
	}
	if cfg.AccessTokenTTL.Minutes() != 10 {
		t.Fatalf("access ttl: %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL.Hours() != 48 {
		t.Fatalf("refresh ttl: %v", cfg.RefreshTokenTTL)
	}
	if string(cfg.AccessSecret) != testAccessSecret {
		t.Fatalf("expected trimmed access secret, got %q", cfg.AccessSecret)
	}
}

func TestConfigValidate_EmptyIssuer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AccessSecret = []byte(testAccessSecret)
	cfg.RefreshSecret = []byte(testRefreshSecret)
	cfg.Issuer = "   "
	if err := cfg.Validate(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for empty issuer, got %v", err)
	}
}
