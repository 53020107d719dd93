package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
// Session secrets and TTLs are loaded separately by the session package.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// DatabaseURL selects the Postgres store; SQLitePath the SQLite store.
	// With neither set, an in-memory store is used (dev only).
	DatabaseURL string
	SQLitePath  string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, /readyz returns 503 unless the database is configured and reachable.
	ReadinessRequireDB bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("AEGIS_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("AEGIS_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("AEGIS_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("AEGIS_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("AEGIS_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("AEGIS_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("AEGIS_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("AEGIS_DATABASE_URL", ""),
		SQLitePath:  EnvString("AEGIS_SQLITE_PATH", ""),
		DBMaxConns:  EnvInt32("AEGIS_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("AEGIS_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("AEGIS_READINESS_REQUIRE_DB", false),
	}
}
