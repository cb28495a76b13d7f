// Package database owns the process-wide connection to PostgreSQL.
//
// The original deployment model for this service is a single shared,
// authenticated session created on first use and reused by every caller.
// Manager makes that explicit: construction is lazy, guarded by sync.Once
// so concurrent first callers cannot race a duplicate session, and the
// handle is injected into the stores that need it instead of living in
// package-level state.
package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/abgdnv/shopbot/pkg/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrMissingURL is reported before any network activity is attempted.
var ErrMissingURL = errors.New("database URL is not configured")

// Handle is one authenticated session: endpoint, selected database and
// schema are fixed at construction time.
type Handle struct {
	pool *pgxpool.Pool
}

// Pool exposes the underlying connection pool to the store layer.
func (h *Handle) Pool() *pgxpool.Pool {
	return h.pool
}

// Ping verifies the session is still usable.
func (h *Handle) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}

// Manager lazily creates and caches exactly one Handle for the lifetime of
// the process. Get is safe for concurrent use; every call after the first
// returns the same Handle without reconnecting or re-authenticating.
type Manager struct {
	cfg  config.DatabaseConfig
	open func(ctx context.Context, cfg config.DatabaseConfig) (*Handle, error)

	once   sync.Once
	handle *Handle
	err    error
}

// NewManager creates a Manager from the resolved database configuration.
// No connection is made until the first Get call.
func NewManager(cfg config.DatabaseConfig) *Manager {
	return &Manager{cfg: cfg, open: openPool}
}

// Get returns the shared Handle, creating it on first use. A failed first
// initialization is cached as well: the process is expected to treat it as
// fatal rather than hammer the endpoint with retries.
func (m *Manager) Get(ctx context.Context) (*Handle, error) {
	m.once.Do(func() {
		if m.cfg.URL == "" {
			m.err = ErrMissingURL
			return
		}
		m.handle, m.err = m.open(ctx, m.cfg)
	})
	return m.handle, m.err
}

// Close releases the cached handle. Safe to call more than once and safe to
// call on a Manager that never connected. Close does not clear the cache:
// a Manager is closed only at shutdown, and a later Get must not resurrect
// a fresh session behind the caller's back.
func (m *Manager) Close() {
	if m.handle != nil {
		m.handle.pool.Close()
	}
}

// openPool builds the pool configuration from the URL plus the individual
// credential keys and establishes the session. Credentials embedded in the
// URL win over the user/password keys; the configured schema is selected
// via search_path, which is the closest relational analog of picking a
// namespace on a session.
func openPool(ctx context.Context, cfg config.DatabaseConfig) (*Handle, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if u.User == nil || u.User.Username() == "" {
		poolCfg.ConnConfig.User = cfg.User
		poolCfg.ConnConfig.Password = cfg.Password
	}
	if p := u.Path; p == "" || p == "/" {
		poolCfg.ConnConfig.Database = cfg.Database
	}
	if cfg.Schema != "" {
		if poolCfg.ConnConfig.RuntimeParams == nil {
			poolCfg.ConnConfig.RuntimeParams = map[string]string{}
		}
		poolCfg.ConnConfig.RuntimeParams["search_path"] = cfg.Schema
	}

	connectCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}
	// Ping the database to ensure the connection is established (fail early if not)
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Handle{pool: pool}, nil
}
