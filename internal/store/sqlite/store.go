// Package sqlite keeps channel stories in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"advpal/internal/store"
)

const schema = `CREATE TABLE IF NOT EXISTS channel_stories (
	channel    TEXT PRIMARY KEY,
	blob       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store implements [store.Store] with one row per channel.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	// Immediate transactions take the write lock on BEGIN, which makes each
	// Update a serialised read-modify-write across processes.
	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Load reads the channel's row.
func (s *Store) Load(ctx context.Context, channel string) ([]byte, error) {
	if err := store.ValidateChannel(channel); err != nil {
		return nil, err
	}

	var blob []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT blob FROM channel_stories WHERE channel = ?`, channel,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get story: %w", err)
	}
	return blob, nil
}

// Update runs fn inside an immediate transaction.
func (s *Store) Update(ctx context.Context, channel string, fn store.UpdateFunc) (err error) {
	if err := store.ValidateChannel(channel); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current []byte
	err = tx.QueryRowContext(ctx,
		`SELECT blob FROM channel_stories WHERE channel = ?`, channel,
	).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("get story: %w", err)
	}

	next, changed, err := fn(current)
	if err != nil {
		return err
	}
	if !changed {
		return tx.Commit()
	}

	if next == nil {
		_, err = tx.ExecContext(ctx, `DELETE FROM channel_stories WHERE channel = ?`, channel)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO channel_stories (channel, blob, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(channel) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
			channel, next, time.Now().UTC().UnixMilli(),
		)
	}
	if err != nil {
		return fmt.Errorf("put story: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

var _ store.Store = (*Store)(nil)
