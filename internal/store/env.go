// Package store backs all six KV environments of spec §4.9 with SQLite,
// substituting for the LMDB environments the source gateway used — no Go
// LMDB or bbolt binding exists in the reference material this module was
// built from, and mattn/go-sqlite3 is already the teacher's own dependency
// (see DESIGN.md). Each environment is a distinct database file under its
// own directory, matching the filesystem surface of spec §6.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Env wraps one SQLite-backed KV environment: a generic key/value table
// plus whatever narrow additional tables that environment needs. Writes
// are serialized by mu, mirroring the source gateway's single-writer
// discipline per environment.
type Env struct {
	conn *sql.DB
	mu   sync.Mutex
	name string
}

// OpenEnv opens or creates the environment at dir/<name>.sqlite, creating
// dir if needed, and ensures the generic kv table exists.
func OpenEnv(dir, name string) (*Env, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create environment dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name+".sqlite")
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open environment %s: %w", name, err)
	}
	e := &Env{conn: conn, name: name}
	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL DEFAULT (unixepoch())
	)`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate environment %s: %w", name, err)
	}
	return e, nil
}

// Close closes the underlying connection.
func (e *Env) Close() error { return e.conn.Close() }

// Conn exposes the raw connection for store files that need additional
// tables beyond the generic kv one.
func (e *Env) Conn() *sql.DB { return e.conn }

// Get retrieves a value by key from the generic kv table.
func (e *Env) Get(key string) (string, bool) {
	var value string
	err := e.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

// Put upserts a key/value pair, serialized against concurrent writers.
func (e *Env) Put(key, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.conn.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, unixepoch())
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	return err
}

// Delete removes a key, reporting whether it existed.
func (e *Env) Delete(key string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.conn.Exec(`DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// EntryCount returns the number of rows in the generic kv table.
func (e *Env) EntryCount() (int64, error) {
	var n int64
	err := e.conn.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&n)
	return n, err
}

// ListByPrefix returns every key with the given prefix, in key order —
// used by the Virtual FS's rm_rf and prefix-scan listing operations.
func (e *Env) ListByPrefix(prefix string) ([]string, error) {
	rows, err := e.conn.Query(`SELECT key FROM kv WHERE key LIKE ? ORDER BY key`, prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// WithLock runs fn while holding the environment's write mutex, for
// callers that need several Conn() statements to appear atomic (e.g. the
// Virtual FS's write-then-bump-version sequence).
func (e *Env) WithLock(fn func(*sql.DB) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.conn)
}
