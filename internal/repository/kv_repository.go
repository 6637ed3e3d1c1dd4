package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS kv_entries (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`

// KVRepository persists JSON values under string keys in SQLite or Postgres.
type KVRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewKVRepository constructs the repository.
func NewKVRepository(db *sqlx.DB) *KVRepository {
	return &KVRepository{db: db, now: time.Now}
}

// Migrate creates the backing table when missing.
func (r *KVRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, kvSchema); err != nil {
		return fmt.Errorf("migrate kv_entries: %w", err)
	}
	return nil
}

// Get unmarshals the value stored at key into dest.
func (r *KVRepository) Get(ctx context.Context, key string, dest interface{}) error {
	query := r.db.Rebind(`SELECT value FROM kv_entries WHERE key = ?`)
	var raw string
	if err := r.db.GetContext(ctx, &raw, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrKeyNotFound
		}
		return fmt.Errorf("get kv %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("unmarshal kv %s: %w", key, err)
	}
	return nil
}

// Set stores value as JSON at key, replacing any previous value.
func (r *KVRepository) Set(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal kv %s: %w", key, err)
	}
	query := r.db.Rebind(`INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if _, err := r.db.ExecContext(ctx, query, key, string(payload), r.now().UTC()); err != nil {
		return fmt.Errorf("set kv %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	query := r.db.Rebind(`DELETE FROM kv_entries WHERE key = ?`)
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete kv %s: %w", key, err)
	}
	return nil
}

// Keys lists keys starting with prefix.
func (r *KVRepository) Keys(ctx context.Context, prefix string) ([]string, error) {
	query := r.db.Rebind(`SELECT key FROM kv_entries WHERE key LIKE ? ORDER BY key ASC`)
	var keys []string
	if err := r.db.SelectContext(ctx, &keys, query, prefix+"%"); err != nil {
		return nil, fmt.Errorf("list kv keys %s: %w", prefix, err)
	}
	return keys, nil
}
