package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/torhsd/torhsd/internal/friendserver"
)

// PeerStore is a SQLite-backed friendserver.Store: one row per accepted
// peer certificate, keyed by its fingerprint.
//
// Design decision: one file per directory passed to Open (the CLI uses
// <DataDir>/friendserver), mirroring the crawl database's
// one-file-per-session layout, since a friend requester is scoped to a
// single running instance of this daemon.
type PeerStore struct {
	db *sql.DB
}

// Open opens or creates the known-peer database at <dir>/friends.db,
// creating dir and the schema if they do not already exist.
func Open(dir string) (*PeerStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("friendserver/store: create dir: %w", err)
	}

	dsn := filepath.Join(dir, "friends.db") + "?mode=rwc"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("friendserver/store: open: %w", err)
	}
	// SQLite only supports one writer; the requester issues its writes
	// from a single goroutine anyway, but this keeps that invariant even
	// if a host application ever queries the store concurrently.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("friendserver/store: enable WAL: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS known_peers (
		certificate TEXT PRIMARY KEY,
		added_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("friendserver/store: create schema: %w", err)
	}

	return &PeerStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *PeerStore) Close() error {
	return s.db.Close()
}

// Has reports whether certificate has already been remembered.
func (s *PeerStore) Has(ctx context.Context, certificate string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM known_peers WHERE certificate = ?`, certificate).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("friendserver/store: query: %w", err)
	}
	return count > 0, nil
}

// Remember records certificate as known, so future campaigns never
// re-add it. Remembering an already-known certificate is a no-op.
func (s *PeerStore) Remember(ctx context.Context, certificate string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO known_peers (certificate) VALUES (?)`, certificate)
	if err != nil {
		return fmt.Errorf("friendserver/store: insert: %w", err)
	}
	return nil
}

// Count returns how many peers are currently remembered.
func (s *PeerStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM known_peers`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("friendserver/store: count: %w", err)
	}
	return count, nil
}

var _ friendserver.Store = (*PeerStore)(nil)
