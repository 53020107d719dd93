// Package app wires the Aegis server runtime: config, logging, the
// credential store, HTTP routes, and the run loop.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"aegis/internal/auth/api"
	"aegis/internal/auth/session"
	"aegis/internal/identity"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App is the Aegis server runtime: it owns HTTP server wiring and the
// credential store lifecycle.
type App struct {
	cfg Config
	log Logger

	store     identity.Store
	closeFn   func() error
	dbPool    *pgxpool.Pool
	dbEnabled bool

	auth *api.Handler
}

// New constructs a fully wired App instance from config and logger.
// It fails fast when the session secrets are missing or the configured
// store is unreachable.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	store, closeFn, dbPool, err := newStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		if closeFn != nil {
			_ = closeFn()
		}
		return nil, err
	}

	sessions, err := session.NewService(sessCfg, store, log)
	if err != nil {
		if closeFn != nil {
			_ = closeFn()
		}
		return nil, err
	}

	authHandler, err := api.NewHandler(log, api.LoadConfigFromEnv(), sessions)
	if err != nil {
		if closeFn != nil {
			_ = closeFn()
		}
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		store:     store,
		closeFn:   closeFn,
		dbPool:    dbPool,
		dbEnabled: dbPool != nil,
		auth:      authHandler,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.auth)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestID(WithRequestLogging(mux, a.log)),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if a.closeFn != nil {
		if err := a.closeFn(); err != nil {
			a.log.Error("store.close.fail", "err", err)
		}
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStore picks the credential store backend: Postgres when a database URL
// is configured, SQLite when a path is configured, in-memory otherwise.
func newStore(ctx context.Context, cfg Config, log Logger) (identity.Store, func() error, *pgxpool.Pool, error) {
	if cfg.DatabaseURL != "" {
		pool, err := NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}

		// Ownership model: app owns the pool lifecycle, the store must not close it.
		store, err := identity.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, nil, nil, err
		}

		log.Info("store.postgres")
		return store, func() error { pool.Close(); return nil }, pool, nil
	}

	if cfg.SQLitePath != "" {
		store, err := identity.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info("store.sqlite", "path", cfg.SQLitePath)
		return store, store.Close, nil, nil
	}

	log.Warn("store.inmemory", "note", "credentials are lost on restart")
	return identity.NewMemoryStore(), nil, nil, nil
}
