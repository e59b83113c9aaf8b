// Package session stores the bearer session durably so a login survives
// restarts.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"parkeasy/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps one session row per key in a small local database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %v", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %v", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to session store: %v", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	query := `CREATE TABLE IF NOT EXISTS sessions (
        name TEXT PRIMARY KEY,
        token TEXT NOT NULL,
        username TEXT,
        role TEXT,
        updated_at DATETIME NOT NULL
    )`
	_, err := db.Exec(query)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, session models.Session) error {
	query := `INSERT INTO sessions (name, token, username, role, updated_at)
              VALUES (?, ?, ?, ?, ?)
              ON CONFLICT(name) DO UPDATE SET
                token = excluded.token,
                username = excluded.username,
                role = excluded.role,
                updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, query,
		models.SessionKey,
		session.Token,
		session.Username,
		session.Role,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the stored session, or nil when none is held.
func (s *SQLiteStore) Load(ctx context.Context) (*models.Session, error) {
	query := `SELECT token, username, role FROM sessions WHERE name = ?`

	var session models.Session
	err := s.db.QueryRowContext(ctx, query, models.SessionKey).
		Scan(&session.Token, &session.Username, &session.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE name = ?`, models.SessionKey)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
