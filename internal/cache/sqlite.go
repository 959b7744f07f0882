// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/edu-engine/pkg/types"
)

const cacheDBFile = "cache.db"

// sqliteStore keeps cache entries in a local database under DataDir.
// Expired rows are served as misses and pruned lazily on Set (R3.2).
type sqliteStore struct {
	db *sql.DB
}

func newSQLiteStore(cfg types.CacheConfig) (*sqliteStore, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("sqlite cache requires a data directory")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, cacheDBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value     []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}
	if time.Now().Unix() >= expiresAt {
		return nil, ErrMiss
	}
	return value, nil
}

func (s *sqliteStore) SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, expires_at=excluded.expires_at`,
		key, value, now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}

	// Lazy prune: drop anything already expired.
	_, err = s.db.ExecContext(ctx, `DELETE FROM entries WHERE expires_at < ?`, now.Unix())
	if err != nil {
		return fmt.Errorf("pruning cache entries: %w", err)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
