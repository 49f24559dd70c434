package ps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite3"
	DriverDuckDB = "duckdb"
)

// SQLite DSN parameters applied to every connection.
const (
	defaultBusyTimeout = "5000" // milliseconds
	defaultSynchronous = "NORMAL"
	defaultJournalMode = "WAL"
)

var (
	ErrClosed        = errors.New("store is closed")
	ErrUnknownDriver = errors.New("unknown driver")
)

// Options configure how a store is opened.
type Options struct {
	// Driver selects the embedded engine, DriverSQLite or DriverDuckDB.
	// Empty defaults to DriverSQLite.
	Driver string
}

func (o *Options) driver() (string, error) {
	if o == nil || o.Driver == "" {
		return DriverSQLite, nil
	}
	switch o.Driver {
	case DriverSQLite, DriverDuckDB:
		return o.Driver, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDriver, o.Driver)
}

// Store owns a single-connection handle to an embedded database. The
// database file is created on first open; a store without a path lives
// entirely in memory.
type Store struct {
	db     *sql.DB
	driver string
	path   string

	mu     sync.RWMutex
	closed bool
}

// Open opens the database file at path, creating file and parent
// directories as needed.
func Open(path string, opts *Options) (*Store, error) {
	if path == "" {
		return nil, errors.New("path is required, use OpenMemory for an in-memory store")
	}
	return open(path, opts)
}

// OpenMemory opens a store with no backing file. Its contents are lost
// on Close.
func OpenMemory(opts *Options) (*Store, error) {
	return open("", opts)
}

func open(path string, opts *Options) (*Store, error) {
	driver, err := opts.driver()
	if err != nil {
		return nil, err
	}

	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(driver, dsn(driver, path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	// Statements run sequentially on a single connection. No
	// ConnMaxLifetime: recycling the only connection would drop an
	// in-memory database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Verify the connection is usable.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return &Store{db: db, driver: driver, path: path}, nil
}

// dsn builds the driver DSN. SQLite connections are hardened with WAL
// journaling, a busy timeout, immediate write locking, and enforced
// foreign keys. DuckDB takes the bare path, empty for in-memory.
func dsn(driver, path string) string {
	if driver != DriverSQLite {
		return path
	}

	params := url.Values{}
	params.Set("_journal_mode", defaultJournalMode)
	params.Set("_busy_timeout", defaultBusyTimeout)
	params.Set("_synchronous", defaultSynchronous)
	params.Set("_foreign_keys", "on")
	params.Set("_txlock", "immediate")

	if path == "" {
		path = ":memory:"
	}
	return path + "?" + params.Encode()
}

// ensureOpen returns ErrClosed once the store has been closed.
func (s *Store) ensureOpen() error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// ExecContext runs a statement that returns no rows.
func (s *Store) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	return s.db.ExecContext(ctx, query, args...)
}

// QueryContext runs a statement and returns its rows. The caller owns
// the rows and must close them.
func (s *Store) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	return s.db.QueryContext(ctx, query, args...)
}

// BeginTx starts a transaction on the store's connection.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	return s.db.BeginTx(ctx, nil)
}

// Driver returns the driver name the store was opened with.
func (s *Store) Driver() string {
	return s.driver
}

// Path returns the database file path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// InMemory reports whether the store has no backing file.
func (s *Store) InMemory() bool {
	return s.path == ""
}

// Close releases the underlying connection. Closing twice is safe;
// every operation after Close fails with ErrClosed.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
