// Package sqlite implements db.Store on an embedded, file-backed SQLite database
// using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"github.com/kailas-cloud/reviewdex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// DefaultFileName is the database file created inside the storage directory.
const DefaultFileName = "reviews.sqlite3"

const schema = `
CREATE TABLE IF NOT EXISTS collections (
    name       TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS records (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    collection TEXT NOT NULL REFERENCES collections(name),
    id         TEXT NOT NULL,
    document   TEXT NOT NULL,
    metadata   TEXT NOT NULL,
    embedding  BLOB,
    UNIQUE (collection, id)
);
`

// Config holds the on-disk location of the store.
type Config struct {
	// Path is the storage directory. Relative paths resolve against the working directory.
	Path     string
	FileName string
}

// Store implements db.Store on a single SQLite file.
type Store struct {
	db     *sql.DB
	path   string
	closed atomic.Bool
}

// ResolvePath makes p absolute against the working directory and normalizes it
// to forward-slash separators.
func ResolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve storage path %q: %w", p, err)
	}
	return filepath.ToSlash(abs), nil
}

// NewStore opens (creating if needed) the database under cfg.Path and ensures the schema.
// Opening the same path twice attaches to the same data.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	dir, err := ResolvePath(cfg.Path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.FromSlash(dir), 0o750); err != nil {
		return nil, &db.Error{Op: db.OpOpen, Err: err}
	}

	name := cfg.FileName
	if name == "" {
		name = DefaultFileName
	}
	file := dir + "/" + name

	conn, err := sql.Open("sqlite", "file:"+file+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, &db.Error{Op: db.OpOpen, Err: err}
	}
	// One connection: writes are serialized and every caller sees the same state.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, &db.Error{Op: db.OpMigrate, Err: err}
	}

	return &Store{db: conn, path: file}, nil
}

// Path returns the absolute, slash-normalized database file path.
func (s *Store) Path() string { return s.path }

// Ping checks that the database file is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	if err := s.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases the database handle. Writes are already durable.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return &db.Error{Op: db.OpClose, Err: err}
	}
	return nil
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.Ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// GetCollection returns an existing collection.
func (s *Store) GetCollection(ctx context.Context, name string) (db.Collection, error) {
	if s.closed.Load() {
		return nil, &db.Error{Op: db.OpGetCollection, Err: db.ErrClosed}
	}
	var found string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM collections WHERE name = ?`, name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &db.Error{Op: db.OpGetCollection, Err: db.ErrCollectionNotFound}
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGetCollection, Err: err}
	}
	return &Collection{store: s, name: found}, nil
}

// CreateCollection registers a new collection. Returns db.ErrCollectionExists on duplicates.
func (s *Store) CreateCollection(ctx context.Context, name string) (db.Collection, error) {
	if name == "" {
		return nil, &db.Error{Op: db.OpCreateCollection, Err: errors.New("collection name is required")}
	}
	if s.closed.Load() {
		return nil, &db.Error{Op: db.OpCreateCollection, Err: db.ErrClosed}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO collections(name, created_at) VALUES(?, ?) ON CONFLICT(name) DO NOTHING`,
		name, time.Now().UnixMilli(),
	)
	if err != nil {
		return nil, &db.Error{Op: db.OpCreateCollection, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, &db.Error{Op: db.OpCreateCollection, Err: err}
	}
	if n == 0 {
		return nil, &db.Error{Op: db.OpCreateCollection, Err: db.ErrCollectionExists}
	}
	return &Collection{store: s, name: name}, nil
}
