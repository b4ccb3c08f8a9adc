package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS users (
	user_id INTEGER PRIMARY KEY,
	data TEXT,
	last_updated TEXT
)`

// SQLite keeps one JSON encoded draft per user.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Put(ctx context.Context, userID int64, data []byte, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, data, last_updated) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, last_updated = excluded.last_updated`,
		userID, string(data), at.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save user %d: %w", userID, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, userID int64) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM users WHERE user_id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return []byte(data), nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
