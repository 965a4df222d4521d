// Package cache is the sqlite-backed TTL store for marketplace agent
// profiles. Profiles are the only cached data; fee quotes, balances
// and allowances are always read live.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

type Store struct {
	db   *sql.DB
	lock *flock.Flock
}

// Entry is one cached agent profile. Stale means the TTL has passed;
// Exhausted means the entry is also past the caller's stale budget and
// must not be served even as a fallback.
type Entry struct {
	Found     bool
	Payload   []byte
	Age       time.Duration
	Stale     bool
	Exhausted bool
}

func Open(path, lockPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}

	queries := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"CREATE TABLE IF NOT EXISTS agent_profiles (agent_id TEXT PRIMARY KEY, payload BLOB NOT NULL, fetched_at INTEGER NOT NULL, ttl_seconds INTEGER NOT NULL);",
	}
	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init cache schema: %w", err)
		}
	}

	store := &Store{db: db, lock: flock.New(lockPath)}
	// Prune expired profiles on startup to prevent unbounded growth.
	_ = store.Prune()
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Prune deletes all profiles whose TTL has fully expired.
func (s *Store) Prune() error {
	if s == nil || s.db == nil {
		return nil
	}
	nowUnix := time.Now().UTC().Unix()
	_, err := s.db.Exec("DELETE FROM agent_profiles WHERE fetched_at + ttl_seconds < ?", nowUnix)
	if err != nil {
		return fmt.Errorf("prune cache: %w", err)
	}
	return nil
}

// Profile reads the cached profile for the agent. staleBudget bounds
// how long past the TTL the entry may still serve as a fallback when
// the marketplace is unreachable; pass zero to accept fresh hits only.
func (s *Store) Profile(agentID string, staleBudget time.Duration) (Entry, error) {
	var payload []byte
	var fetchedUnix int64
	var ttlSeconds int64
	err := s.db.QueryRow("SELECT payload, fetched_at, ttl_seconds FROM agent_profiles WHERE agent_id = ?", agentID).Scan(&payload, &fetchedUnix, &ttlSeconds)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, nil
		}
		return Entry{}, fmt.Errorf("cache read: %w", err)
	}

	fetched := time.Unix(fetchedUnix, 0).UTC()
	age := time.Since(fetched)
	if age < 0 {
		age = 0
	}
	ttl := time.Duration(ttlSeconds) * time.Second
	stale := age > ttl

	return Entry{
		Found:     true,
		Payload:   payload,
		Age:       age,
		Stale:     stale,
		Exhausted: stale && staleBudget >= 0 && age > ttl+staleBudget,
	}, nil
}

// PutProfile stores the fetched profile, replacing any previous entry
// for the agent. The file lock serializes writers across processes.
func (s *Store) PutProfile(agentID string, payload []byte, ttl time.Duration) error {
	locked, err := s.lock.TryLockContext(context.Background(), 5*time.Second)
	if err != nil {
		return fmt.Errorf("lock cache: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock cache: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()

	fetchedUnix := time.Now().UTC().Unix()
	ttlSeconds := int64(ttl.Seconds())
	if ttlSeconds <= 0 {
		ttlSeconds = 1
	}
	_, err = s.db.Exec(`
		INSERT INTO agent_profiles (agent_id, payload, fetched_at, ttl_seconds)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(agent_id) DO UPDATE SET
			payload=excluded.payload,
			fetched_at=excluded.fetched_at,
			ttl_seconds=excluded.ttl_seconds
	`, agentID, payload, fetchedUnix, ttlSeconds)
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}
