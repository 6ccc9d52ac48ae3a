// Package sqlite provides a SQLite-backed session store, so persisted cache
// entries survive a process restart within the same session.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS session_items (
	session_id TEXT NOT NULL,
	item_key   TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, item_key)
)`

// Store persists items for one session in SQLite. Other sessions sharing
// the same file are invisible to it.
type Store struct {
	sqlDB     *sql.DB
	sessionID string
	now       func() time.Time
}

// Open opens the database at path, creating the schema if needed. An empty
// sessionID starts a new session.
func Open(path, sessionID string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		sessionID = uuid.NewString()
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, sessionID: sessionID, now: time.Now}, nil
}

// SessionID identifies the session this store reads and writes.
func (s *Store) SessionID() string {
	return s.sessionID
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) GetItem(key string) (string, bool, error) {
	if s == nil || s.sqlDB == nil {
		return "", false, fmt.Errorf("storage is not configured")
	}
	var value string
	err := s.sqlDB.QueryRow(
		`SELECT value FROM session_items WHERE session_id = ? AND item_key = ?`,
		s.sessionID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get item: %w", err)
	}
	return value, true, nil
}

func (s *Store) SetItem(key, value string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	_, err := s.sqlDB.Exec(
		`INSERT INTO session_items (session_id, item_key, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, item_key) DO UPDATE SET
		   value = excluded.value,
		   updated_at = excluded.updated_at`,
		s.sessionID, key, value, s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("set item: %w", err)
	}
	return nil
}

func (s *Store) RemoveItem(key string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.Exec(
		`DELETE FROM session_items WHERE session_id = ? AND item_key = ?`,
		s.sessionID, key,
	); err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	return nil
}
