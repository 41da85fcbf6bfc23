package kvstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS kv_expires_at ON kv (expires_at);
`

// sweepInterval bounds how often Set scans for expired rows.
const sweepInterval = time.Minute

// SQLite is a persistent Store backed by a local SQLite database. A single
// connection serializes all access; WAL mode keeps concurrent readers cheap.
type SQLite struct {
	db *sql.DB

	mu        sync.Mutex
	lastSweep time.Time
}

// OpenSQLite opens (and if needed creates) the store at path.
func OpenSQLite(path string) (*SQLite, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" {
		return nil, errors.New("missing store path")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init store schema: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLite{db: db}, nil
}

// Set writes value under key, expiring ttl from now. Expired rows are swept
// opportunistically, at most once per sweepInterval.
func (s *SQLite) Set(key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	s.maybeSweep(now)

	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO kv (key, value, expires_at) VALUES (?, ?, ?)",
		key, value, now.Add(ttl).UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Get returns the value under key if it has not expired.
func (s *SQLite) Get(key string) ([]byte, bool, error) {
	var (
		value     []byte
		expiresAt int64
	)
	err := s.db.QueryRow("SELECT value, expires_at FROM kv WHERE key = ?", key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if time.Now().UnixMilli() >= expiresAt {
		_, _ = s.db.Exec("DELETE FROM kv WHERE key = ?", key)
		return nil, false, nil
	}
	return value, true, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) maybeSweep(now time.Time) {
	s.mu.Lock()
	due := now.Sub(s.lastSweep) >= sweepInterval
	if due {
		s.lastSweep = now
	}
	s.mu.Unlock()
	if due {
		_, _ = s.db.Exec("DELETE FROM kv WHERE expires_at <= ?", now.UnixMilli())
	}
}
