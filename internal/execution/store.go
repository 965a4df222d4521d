package execution

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

type Store struct {
	db   *sql.DB
	lock *flock.Flock
}

func OpenStore(path, lockPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create attempt store directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create attempt lock directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open attempt sqlite: %w", err)
	}

	queries := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		`CREATE TABLE IF NOT EXISTS attempts (
			attempt_id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			status TEXT NOT NULL,
			source_key TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_attempts_status_updated ON attempts(status, updated_at DESC);",
		"CREATE INDEX IF NOT EXISTS idx_attempts_agent ON attempts(agent_id, updated_at DESC);",
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init attempt schema: %w", err)
		}
	}
	return &Store{db: db, lock: flock.New(lockPath)}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Save(attempt Attempt) error {
	if strings.TrimSpace(attempt.AttemptID) == "" {
		return fmt.Errorf("save attempt: missing attempt id")
	}
	locked, err := s.lock.TryLockContext(context.Background(), 5*time.Second)
	if err != nil {
		return fmt.Errorf("lock attempt store: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock attempt store: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()

	payload, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	createdUnix, _ := parseRFC3339Unix(attempt.CreatedAt)
	updatedUnix, _ := parseRFC3339Unix(attempt.UpdatedAt)
	if createdUnix == 0 {
		createdUnix = time.Now().UTC().Unix()
	}
	if updatedUnix == 0 {
		updatedUnix = time.Now().UTC().Unix()
	}

	_, err = s.db.Exec(`
		INSERT INTO attempts (attempt_id, agent_id, status, source_key, created_at, updated_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(attempt_id) DO UPDATE SET
			agent_id=excluded.agent_id,
			status=excluded.status,
			source_key=excluded.source_key,
			updated_at=excluded.updated_at,
			payload=excluded.payload
	`, attempt.AttemptID, attempt.AgentID, string(attempt.Status), attempt.SourceKey, createdUnix, updatedUnix, payload)
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

func (s *Store) Get(attemptID string) (Attempt, error) {
	var payload []byte
	err := s.db.QueryRow("SELECT payload FROM attempts WHERE attempt_id = ?", attemptID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, fmt.Errorf("attempt not found: %s", attemptID)
		}
		return Attempt{}, fmt.Errorf("read attempt: %w", err)
	}
	var attempt Attempt
	if err := json.Unmarshal(payload, &attempt); err != nil {
		return Attempt{}, fmt.Errorf("decode attempt payload: %w", err)
	}
	return attempt, nil
}

func (s *Store) List(status string, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	var (
		rows *sql.Rows
		err  error
	)
	if strings.TrimSpace(status) == "" {
		rows, err = s.db.Query("SELECT payload FROM attempts ORDER BY updated_at DESC LIMIT ?", limit)
	} else {
		rows, err = s.db.Query("SELECT payload FROM attempts WHERE status = ? ORDER BY updated_at DESC LIMIT ?", status, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]Attempt, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan attempt row: %w", err)
		}
		var attempt Attempt
		if err := json.Unmarshal(payload, &attempt); err != nil {
			return nil, fmt.Errorf("decode attempt row: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempt rows: %w", err)
	}
	return attempts, nil
}

func parseRFC3339Unix(v string) (int64, bool) {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return 0, false
	}
	return t.UTC().Unix(), true
}
