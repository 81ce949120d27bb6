package store

import (
	"database/sql"
	"fmt"
)

// TmpAccessEntry is one row of the TMP environment's access log: every
// touch of a TMP-scoped resource, ordered by timestamp (spec §3.1, §4.9).
type TmpAccessEntry struct {
	Timestamp int64  `json:"timestamp"`
	Path      string `json:"path"`
	Tool      string `json:"tool"`
}

// TmpResource is one row of the TMP environment's per-project resource
// ledger: a scratch file or directory created under <root>/LIVE/TMP/TMP/
// while a project is active.
type TmpResource struct {
	Project   string `json:"project"`
	Path      string `json:"path"`
	CreatedAt int64  `json:"created_at"`
	Bytes     uint64 `json:"bytes"`
}

// TmpStore is the TMP KV environment: the generic kv table plus an access
// log and a resource ledger, both append-only and queried by prefix/order
// rather than by single-key lookup.
type TmpStore struct{ env *Env }

// OpenTmpStore opens the TMP environment at dir.
func OpenTmpStore(dir string) (*TmpStore, error) {
	env, err := OpenEnv(dir, "TMP")
	if err != nil {
		return nil, err
	}
	if _, err := env.Conn().Exec(`CREATE TABLE IF NOT EXISTS access_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		path TEXT NOT NULL,
		tool TEXT NOT NULL
	)`); err != nil {
		env.Close()
		return nil, fmt.Errorf("migrate access_log: %w", err)
	}
	if _, err := env.Conn().Exec(`CREATE TABLE IF NOT EXISTS resources (
		project TEXT NOT NULL,
		path TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		bytes INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (project, path)
	)`); err != nil {
		env.Close()
		return nil, fmt.Errorf("migrate resources: %w", err)
	}
	return &TmpStore{env: env}, nil
}

func (t *TmpStore) Close() error { return t.env.Close() }

const activeTmpProjectKey = "active_project"

// SetActiveProject records which project the TMP scratch area currently
// belongs to — TMP is shared scratch space, reassigned as the active
// project changes (spec §3.1).
func (t *TmpStore) SetActiveProject(project string) error {
	return t.env.Put(activeTmpProjectKey, project)
}

// ActiveProject returns the project TMP is currently scoped to, if any.
func (t *TmpStore) ActiveProject() (string, bool) {
	return t.env.Get(activeTmpProjectKey)
}

// LogAccess appends one access-log entry.
func (t *TmpStore) LogAccess(e TmpAccessEntry) error {
	return t.env.WithLock(func(conn *sql.DB) error {
		_, err := conn.Exec(`INSERT INTO access_log (timestamp, path, tool) VALUES (?, ?, ?)`,
			e.Timestamp, e.Path, e.Tool)
		return err
	})
}

// RecentAccess returns the most recent access-log entries, newest first,
// bounded to limit rows.
func (t *TmpStore) RecentAccess(limit int) ([]TmpAccessEntry, error) {
	rows, err := t.env.Conn().Query(
		`SELECT timestamp, path, tool FROM access_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TmpAccessEntry
	for rows.Next() {
		var e TmpAccessEntry
		if err := rows.Scan(&e.Timestamp, &e.Path, &e.Tool); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PutResource records or updates a TMP scratch resource for project.
func (t *TmpStore) PutResource(r TmpResource) error {
	return t.env.WithLock(func(conn *sql.DB) error {
		_, err := conn.Exec(
			`INSERT INTO resources (project, path, created_at, bytes) VALUES (?, ?, ?, ?)
			 ON CONFLICT(project, path) DO UPDATE SET bytes = excluded.bytes`,
			r.Project, r.Path, r.CreatedAt, r.Bytes)
		return err
	})
}

// ResourcesForProject lists every TMP resource belonging to project.
func (t *TmpStore) ResourcesForProject(project string) ([]TmpResource, error) {
	rows, err := t.env.Conn().Query(
		`SELECT project, path, created_at, bytes FROM resources WHERE project = ? ORDER BY path`, project)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TmpResource
	for rows.Next() {
		var r TmpResource
		if err := rows.Scan(&r.Project, &r.Path, &r.CreatedAt, &r.Bytes); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RemoveResource deletes one resource row, reporting whether it existed.
func (t *TmpStore) RemoveResource(project, path string) (bool, error) {
	var existed bool
	err := t.env.WithLock(func(conn *sql.DB) error {
		res, err := conn.Exec(`DELETE FROM resources WHERE project = ? AND path = ?`, project, path)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		existed = n > 0
		return nil
	})
	return existed, err
}
