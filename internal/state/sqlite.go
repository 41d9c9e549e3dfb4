package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
	CREATE TABLE IF NOT EXISTS storage (
		namespace TEXT NOT NULL,
		key BLOB NOT NULL,
		value BLOB NOT NULL,
		PRIMARY KEY (namespace, key)
	);
`

const (
	queryGet      = `SELECT value FROM storage WHERE namespace = ? AND key = ?`
	queryContains = `SELECT 1 FROM storage WHERE namespace = ? AND key = ?`
	queryInsert   = `INSERT INTO storage (namespace, key, value) VALUES (?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value`
	queryRemove = `DELETE FROM storage WHERE namespace = ? AND key = ?`
	queryLen    = `SELECT COUNT(*) FROM storage WHERE namespace = ?`
)

// DB is a SQLite database holding every module namespace in one table.
type DB struct {
	db *sql.DB
}

// OpenDB opens (or creates) the SQLite database at path and ensures the schema.
// Use ":memory:" for a throwaway database.
func OpenDB(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and writes serialized
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// KeyEncoder turns a typed key into the raw bytes that get hashed into storage.
type KeyEncoder[K comparable] func(K) []byte

// SQLiteMap is a Map persisted in a DB namespace. Keys are stored with the
// Blake2_128Concat hasher, values as JSON.
type SQLiteMap[K comparable, V any] struct {
	db        *DB
	namespace string
	encodeKey KeyEncoder[K]
}

// NewSQLiteMap returns a map over namespace in db.
func NewSQLiteMap[K comparable, V any](db *DB, namespace string, encodeKey KeyEncoder[K]) *SQLiteMap[K, V] {
	return &SQLiteMap[K, V]{
		db:        db,
		namespace: namespace,
		encodeKey: encodeKey,
	}
}

func (m *SQLiteMap[K, V]) key(k K) []byte {
	return Blake2128Concat(m.encodeKey(k))
}

func (m *SQLiteMap[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V

	var raw []byte
	err := m.db.db.QueryRowContext(ctx, queryGet, m.namespace, m.key(key)).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("unable to read %s entry: %w", m.namespace, err)
	}

	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false, fmt.Errorf("unable to decode %s entry: %w", m.namespace, err)
	}
	return v, true, nil
}

func (m *SQLiteMap[K, V]) Insert(ctx context.Context, key K, value V) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("unable to encode %s entry: %w", m.namespace, err)
	}

	if _, err := m.db.db.ExecContext(ctx, queryInsert, m.namespace, m.key(key), raw); err != nil {
		return fmt.Errorf("unable to write %s entry: %w", m.namespace, err)
	}
	return nil
}

func (m *SQLiteMap[K, V]) Remove(ctx context.Context, key K) error {
	if _, err := m.db.db.ExecContext(ctx, queryRemove, m.namespace, m.key(key)); err != nil {
		return fmt.Errorf("unable to remove %s entry: %w", m.namespace, err)
	}
	return nil
}

func (m *SQLiteMap[K, V]) Contains(ctx context.Context, key K) (bool, error) {
	var one int
	err := m.db.db.QueryRowContext(ctx, queryContains, m.namespace, m.key(key)).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("unable to check %s entry: %w", m.namespace, err)
	}
	return true, nil
}

func (m *SQLiteMap[K, V]) Len(ctx context.Context) (int, error) {
	var n int
	if err := m.db.db.QueryRowContext(ctx, queryLen, m.namespace).Scan(&n); err != nil {
		return 0, fmt.Errorf("unable to count %s entries: %w", m.namespace, err)
	}
	return n, nil
}

var _ Map[string, int] = (*SQLiteMap[string, int])(nil)
