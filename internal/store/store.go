// Package store provides the embedded SQLite database for offline-first
// auction research.
//
// The store is the single durable resource of the subsystem. It holds five
// collections: properties (TTL-bounded read cache), auctions (per-date
// property sets with analysis progress), decisions (durable write queue of
// user decisions), sync_queue (reserved for future write types), and
// app_state (singleton key/value pairs such as the last successful sync
// instant).
//
// The database runs in embedded mode using the ncruces/go-sqlite3 wasm
// driver with WAL for concurrent reads. Every public operation is a bounded
// transaction; the store is never locked explicitly by callers.
//
// Workflow:
//  1. The remote read API fetches property/auction payloads
//  2. Payloads are cached here with a 24h TTL
//  3. User decisions are appended to the decisions queue, offline or not
//  4. The sync orchestrator drains pending decisions to the remote endpoint
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// schemaVersion is the current schema version recorded in PRAGMA user_version.
// Bump it when adding a migration step to migrate().
const schemaVersion = 1

// Store wraps the SQLite connection with the offline cache collections.
type Store struct {
	conn *sql.DB
	path string

	// now is the clock used for cached_at/expires_at stamps.
	// Tests substitute it to exercise TTL behavior.
	now func() time.Time
}

// Open creates a database connection at the specified path.
//
// The database is opened in embedded mode with WAL for concurrent reads.
// If the database doesn't exist, it is created; call InitSchema before the
// first use to create collections and indexes.
//
// Open is owned by the process composition root: open once, pass the handle
// down, and Close on shutdown. The caller MUST call Close() when done.
//
// Example:
//
//	st, err := store.Open(".aucsync/cache.db")
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Every explicit transaction here writes, so they begin IMMEDIATE:
	// contending writers queue on busy_timeout instead of failing with a
	// stale snapshot under WAL.
	connStr := fmt.Sprintf("file:%s?_txlock=immediate", path)
	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	st := &Store{
		conn: conn,
		path: path,
		now:  time.Now,
	}

	// Enable WAL mode for concurrent reads
	if _, err := st.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Schema upgrades blocked by another open handle wait here instead of
	// failing outright.
	if _, err := st.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := st.conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return st, nil
}

// RawDB returns the underlying sql.DB connection.
// This is useful for integrating with other libraries that expect *sql.DB.
func (s *Store) RawDB() *sql.DB {
	return s.conn
}

// Path returns the filesystem path the store was opened at.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
// Performs a WAL checkpoint to ensure all changes are persisted.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.conn = nil
	return nil
}

// InitSchema creates the database schema if it doesn't exist.
//
// This creates the properties, auctions, decisions, sync_queue, and
// app_state collections along with their indexes, then records the schema
// version. This is idempotent - safe to call multiple times.
func (s *Store) InitSchema() error {
	return s.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the database schema with context support.
func (s *Store) InitSchemaContext(ctx context.Context) error {
	var version int
	if err := s.conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion)
	}

	for v := version; v < schemaVersion; v++ {
		if err := s.migrate(ctx, v+1); err != nil {
			return fmt.Errorf("failed to migrate schema to version %d: %w", v+1, err)
		}
	}

	return nil
}

// migrate applies a single schema migration step bringing the database to
// the target version. Each step runs inside its own transaction.
func (s *Store) migrate(ctx context.Context, target int) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	switch target {
	case 1:
		if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown schema version %d", target)
	}

	// PRAGMA does not accept bind parameters
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version=%d", target)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

const schemaV1 = `
-- Read cache
CREATE TABLE IF NOT EXISTS properties (
	case_number TEXT PRIMARY KEY,
	auction_date TEXT NOT NULL,
	payload TEXT NOT NULL,  -- opaque JSON from the read API
	cached_at TEXT NOT NULL,
	expires_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS auctions (
	auction_date TEXT PRIMARY KEY,
	case_numbers TEXT NOT NULL,  -- JSON array of owned case numbers
	cached_at TEXT NOT NULL,
	total_properties INTEGER NOT NULL DEFAULT 0,
	analyzed_count INTEGER NOT NULL DEFAULT 0
);

-- Durable write queue
CREATE TABLE IF NOT EXISTS decisions (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	case_number TEXT NOT NULL,
	auction_date TEXT NOT NULL,
	decision TEXT NOT NULL,  -- BID, SKIP, REVIEW
	notes TEXT,
	created_at TEXT NOT NULL,
	synced INTEGER NOT NULL DEFAULT 0,
	sync_attempts INTEGER NOT NULL DEFAULT 0,
	last_error TEXT
);

-- Reserved for future offline write types
CREATE TABLE IF NOT EXISTS sync_queue (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS app_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_properties_auction ON properties(auction_date);
CREATE INDEX IF NOT EXISTS idx_properties_expires ON properties(expires_at);
CREATE INDEX IF NOT EXISTS idx_decisions_synced ON decisions(synced);
CREATE INDEX IF NOT EXISTS idx_decisions_case ON decisions(case_number);
`
