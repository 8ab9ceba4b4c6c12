package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Dialect selects placeholder and upsert syntax for SQLStore.
type Dialect int

const (
	// SQLite uses ? placeholders.
	SQLite Dialect = iota
	// Postgres uses $n placeholders.
	Postgres
)

// SQLStore is a Store backed by the kv_store table.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	nowF    func() time.Time
}

// NewSQLStore returns a store over db. The kv_store table must exist (see db.OpenSQLite and the migrations).
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, nowF: func() time.Time { return time.Now().UTC() }}
}

func (s *SQLStore) placeholder(n int) string {
	if s.dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLStore) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = s.placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}

// Get returns the values for the keys that exist.
func (s *SQLStore) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	q := "SELECT key, value_json FROM kv_store WHERE key IN (" + s.placeholders(len(keys)) + ")"
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: get: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("storage: scan: %w", err)
		}
		out[k] = json.RawMessage(v)
	}
	return out, rows.Err()
}

// Set upserts each item inside a single transaction.
func (s *SQLStore) Set(ctx context.Context, items map[string]any) error {
	enc, err := encodeItems(items)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}
	q := "INSERT INTO kv_store (key, value_json, updated_at) VALUES (" + s.placeholders(3) + ") " +
		"ON CONFLICT (key) DO UPDATE SET value_json = excluded.value_json, updated_at = excluded.updated_at"
	now := s.nowF()
	for k, v := range enc {
		if _, err := tx.ExecContext(ctx, q, k, v, now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("storage: set %q: %w", k, err)
		}
	}
	return tx.Commit()
}

// Remove deletes the keys.
func (s *SQLStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	q := "DELETE FROM kv_store WHERE key IN (" + s.placeholders(len(keys)) + ")"
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("storage: remove: %w", err)
	}
	return nil
}
