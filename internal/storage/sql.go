package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// createTableSQL backs the durable profile with a single key/value table;
// path slices are joined into a "/"-delimited key so both profiles share
// the same addressing scheme.
const createTableSQL = `
CREATE TABLE IF NOT EXISTS gateway_kv (
	key   TEXT PRIMARY KEY,
	value JSONB NOT NULL
)`

// SQLStorage is the durable Backend profile (SPEC_FULL.md §4.10), grounded
// on jackc/pgx/v5 (driver) + jmoiron/sqlx (query helpers); no non-test usage
// of either exists elsewhere in the example pack to copy from, so this
// schema and query shape is original.
type SQLStorage struct {
	db *sqlx.DB
}

// OpenSQLStorage connects to dsn via the pgx stdlib driver and ensures the
// backing table exists.
func OpenSQLStorage(ctx context.Context, dsn string) (*SQLStorage, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &SQLStorage{db: db}, nil
}

func joinKey(path []string) string {
	return strings.Join(path, "/")
}

// Get retrieves a value from the durable store.
func (s *SQLStorage) Get(ctx context.Context, path []string, v any) error {
	var raw []byte
	err := s.db.GetContext(ctx, &raw, `SELECT value FROM gateway_kv WHERE key = $1`, joinKey(path))
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("get %q: %w", joinKey(path), err)
	}
	return json.Unmarshal(raw, v)
}

// Put upserts a value in the durable store.
func (s *SQLStorage) Put(ctx context.Context, path []string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO gateway_kv (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, joinKey(path), data)
	if err != nil {
		return fmt.Errorf("put %q: %w", joinKey(path), err)
	}
	return nil
}

// Delete removes a value from the durable store.
func (s *SQLStorage) Delete(ctx context.Context, path []string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM gateway_kv WHERE key = $1`, joinKey(path)); err != nil {
		return fmt.Errorf("delete %q: %w", joinKey(path), err)
	}
	return nil
}

// List returns the immediate child names under path, matching Storage's
// one-directory-level semantics.
func (s *SQLStorage) List(ctx context.Context, path []string) ([]string, error) {
	prefix := joinKey(path)
	if prefix != "" {
		prefix += "/"
	}

	var keys []string
	if err := s.db.SelectContext(ctx, &keys, `SELECT key FROM gateway_kv WHERE key LIKE $1`, prefix+"%"); err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}

	seen := make(map[string]bool)
	var items []string
	for _, key := range keys {
		name := strings.SplitN(strings.TrimPrefix(key, prefix), "/", 2)[0]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		items = append(items, name)
	}
	return items, nil
}

// Scan iterates over every direct child item under path.
func (s *SQLStorage) Scan(ctx context.Context, path []string, fn func(key string, data json.RawMessage) error) error {
	prefix := joinKey(path)
	if prefix != "" {
		prefix += "/"
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM gateway_kv WHERE key LIKE $1`, prefix+"%")
	if err != nil {
		return fmt.Errorf("scan %q: %w", prefix, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return err
		}
		rest := strings.TrimPrefix(key, prefix)
		if strings.Contains(rest, "/") {
			continue // nested item; not a direct child
		}
		if err := fn(rest, json.RawMessage(data)); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Exists reports whether path has a stored value.
func (s *SQLStorage) Exists(ctx context.Context, path []string) bool {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM gateway_kv WHERE key = $1)`, joinKey(path))
	return err == nil && exists
}

// Close releases the underlying connection pool.
func (s *SQLStorage) Close() error {
	return s.db.Close()
}

var _ Backend = (*SQLStorage)(nil)
