// Package db opens SQLite databases through sqlx. The driver is selected
// at build time: the pure-Go ncruces driver by default, mattn/go-sqlite3
// with the sqlite3_cgo tag. Both register as "sqlite3", so exactly one is
// linked in.
package db

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/pushbox/pushbox/internal/utils"
)

// Pragmas suited to a small append-mostly database written by one process.
const defaultPragma = `
PRAGMA journal_mode=WAL;
PRAGMA busy_timeout=5000;
PRAGMA synchronous=NORMAL;
PRAGMA foreign_keys=ON;
`

type config struct {
	path         string
	pragmas      string
	maxOpenConns int
}

// SqliteOption configures NewSqliteDB.
type SqliteOption func(*config)

// WithPath sets the database file path. ":memory:" keeps the database
// in memory.
func WithPath(path string) SqliteOption {
	return func(c *config) {
		c.path = path
	}
}

// WithPragmas replaces the default pragma block.
func WithPragmas(pragmas string) SqliteOption {
	return func(c *config) {
		c.pragmas = pragmas
	}
}

// WithMaxOpenConns caps the connection pool. SQLite writers should use 1.
func WithMaxOpenConns(n int) SqliteOption {
	return func(c *config) {
		c.maxOpenConns = n
	}
}

// NewSqliteDB opens (creating if needed) a SQLite database and applies
// the configured pragmas.
func NewSqliteDB(opts ...SqliteOption) (*sqlx.DB, error) {
	cfg := &config{
		path:    ":memory:",
		pragmas: defaultPragma,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	dsn := cfg.path
	if cfg.path != ":memory:" {
		if err := utils.EnsureParent(cfg.path); err != nil {
			return nil, fmt.Errorf("ensure parent directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_txlock=immediate&mode=rwc", cfg.path)
	}

	slog.Debug("sqlite open", "driver", driverID, "path", cfg.path)
	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.maxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.maxOpenConns)
	}

	if _, err := db.Exec(cfg.pragmas); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	return db, nil
}
