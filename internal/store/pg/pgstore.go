package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"filmdb.org/internal/auth"
	"filmdb.org/internal/catalog"
	"filmdb.org/internal/obs"
)

// Connector opens the shared pool on first use. Concurrent first callers
// wait on the same attempt; a failed attempt is not remembered, so the next
// call tries again from scratch.
type Connector struct {
	dsn  string
	open func(dsn string) (*sql.DB, error)

	mu sync.Mutex
	db *sql.DB
}

// NewConnector returns a Connector for dsn. Nothing is dialled until DB is
// called.
func NewConnector(dsn string) *Connector {
	return &Connector{dsn: dsn, open: openPool}
}

func openPool(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// DB returns the pool, connecting and pinging it the first time.
func (c *Connector) DB(ctx context.Context) (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		return c.db, nil
	}
	db, err := c.open(c.dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", auth.ErrStoreUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		obs.Logger().Error().Err(err).Msg("database connect failed")
		return nil, fmt.Errorf("%w: ping: %v", auth.ErrStoreUnavailable, err)
	}
	obs.Logger().Info().Msg("database connected")
	c.db = db
	return db, nil
}

// Close releases the pool if it was opened.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Store implements auth.CredentialStore and catalog.Store on PostgreSQL.
type Store struct {
	conn *Connector
}

var (
	_ auth.CredentialStore = (*Store)(nil)
	_ catalog.Store        = (*Store)(nil)
)

// Open returns a Store that connects lazily to dsn.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("pg: dsn is required")
	}
	return &Store{conn: NewConnector(dsn)}, nil
}

// New wraps an already opened pool.
func New(db *sql.DB) *Store {
	return &Store{conn: &Connector{db: db, open: openPool}}
}

// Close releases the pool.
func (s *Store) Close() error { return s.conn.Close() }

// DB returns the underlying pool, connecting if needed.
func (s *Store) DB(ctx context.Context) (*sql.DB, error) { return s.conn.DB(ctx) }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return err
	}
	return mapError(db.PingContext(ctx))
}
