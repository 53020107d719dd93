package api

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

// Config controls auth API behavior and cookie attributes.
type Config struct {
	MaxBodyBytes int64

	CookiePath   string
	CookieDomain string
	CookieSecure bool
	// SameSite=None so browser clients on other origins can carry the
	// cookies; Go only emits it alongside Secure.
	CookieSameSite http.SameSite
}

// LoadConfigFromEnv loads auth API config from environment variables with
// safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		MaxBodyBytes:   envInt64("AEGIS_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB
		CookiePath:     envString("AEGIS_COOKIE_PATH", "/"),
		CookieDomain:   envString("AEGIS_COOKIE_DOMAIN", ""),
		CookieSecure:   envBool("AEGIS_COOKIE_SECURE", true),
		CookieSameSite: parseSameSite(os.Getenv("AEGIS_COOKIE_SAMESITE")),
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	// SameSite=None without Secure is rejected by browsers.
	if cfg.CookieSameSite == http.SameSiteNoneMode {
		cfg.CookieSecure = true
	}

	return cfg
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteNoneMode
	}
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
