package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// VfsNodeKind distinguishes a Virtual FS entry's shape.
type VfsNodeKind string

const (
	VfsFile VfsNodeKind = "file"
	VfsDir  VfsNodeKind = "dir"
)

// VfsMetadata is the Virtual FS View's per-path metadata record (spec
// §4.10): everything needed to serve a stat() without touching content.
type VfsMetadata struct {
	Path      string      `json:"path"`
	Kind      VfsNodeKind `json:"kind"`
	Size      uint64      `json:"size"`
	Checksum  string      `json:"checksum"`
	Version   uint64      `json:"version"`
	Inline    bool        `json:"inline"`
	CreatedAt int64       `json:"created_at"`
	UpdatedAt int64       `json:"updated_at"`
}

// VfsStore is the Virtual FS KV environment (4 GiB budget): metadata by
// path, inline content by path for entries at or under the 1 MiB threshold,
// and a vector-index id→path table for the handful of tools that address
// blobs by an opaque index id instead of by path.
type VfsStore struct{ env *Env }

// OpenVfsStore opens the Virtual FS environment at dir.
func OpenVfsStore(dir string) (*VfsStore, error) {
	env, err := OpenEnv(dir, "SPF_FS")
	if err != nil {
		return nil, err
	}
	if _, err := env.Conn().Exec(`CREATE TABLE IF NOT EXISTS vector_index (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE
	)`); err != nil {
		env.Close()
		return nil, fmt.Errorf("migrate vector_index: %w", err)
	}
	return &VfsStore{env: env}, nil
}

func (v *VfsStore) Close() error { return v.env.Close() }

const (
	vfsMetaPrefix   = "meta:"
	vfsInlinePrefix = "inline:"
)

// PutMetadata writes a path's metadata record.
func (v *VfsStore) PutMetadata(m VfsMetadata) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode vfs metadata: %w", err)
	}
	return v.env.Put(vfsMetaPrefix+m.Path, string(raw))
}

// GetMetadata reads a path's metadata record, if present.
func (v *VfsStore) GetMetadata(path string) (*VfsMetadata, error) {
	raw, ok := v.env.Get(vfsMetaPrefix + path)
	if !ok {
		return nil, nil
	}
	var m VfsMetadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decode vfs metadata: %w", err)
	}
	return &m, nil
}

// DeleteMetadata removes a path's metadata record.
func (v *VfsStore) DeleteMetadata(path string) (bool, error) {
	return v.env.Delete(vfsMetaPrefix + path)
}

// ListMetadataByPrefix enumerates every metadata record whose path starts
// with prefix, in path order — the backing operation for directory
// listing and rm_rf.
func (v *VfsStore) ListMetadataByPrefix(prefix string) ([]VfsMetadata, error) {
	keys, err := v.env.ListByPrefix(vfsMetaPrefix + prefix)
	if err != nil {
		return nil, err
	}
	out := make([]VfsMetadata, 0, len(keys))
	for _, k := range keys {
		raw, ok := v.env.Get(k)
		if !ok {
			continue
		}
		var m VfsMetadata
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("decode vfs metadata %s: %w", k, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// PutInline stores content inline for a path at or under the 1 MiB
// threshold.
func (v *VfsStore) PutInline(path, content string) error {
	return v.env.Put(vfsInlinePrefix+path, content)
}

// GetInline reads back inline content for a path.
func (v *VfsStore) GetInline(path string) (string, bool) {
	return v.env.Get(vfsInlinePrefix + path)
}

// DeleteInline removes inline content for a path.
func (v *VfsStore) DeleteInline(path string) (bool, error) {
	return v.env.Delete(vfsInlinePrefix + path)
}

// IndexBlob assigns the next vector-index id to path, returning it.
func (v *VfsStore) IndexBlob(path string) (int64, error) {
	var id int64
	err := v.env.WithLock(func(conn *sql.DB) error {
		res, err := conn.Exec(`INSERT OR IGNORE INTO vector_index (path) VALUES (?)`, path)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			id, err = res.LastInsertId()
			return err
		}
		return conn.QueryRow(`SELECT id FROM vector_index WHERE path = ?`, path).Scan(&id)
	})
	return id, err
}

// PathForIndex resolves a vector-index id back to its path.
func (v *VfsStore) PathForIndex(id int64) (string, bool) {
	var path string
	err := v.env.Conn().QueryRow(`SELECT path FROM vector_index WHERE id = ?`, id).Scan(&path)
	return path, err == nil
}

// RemoveIndex drops a path's vector-index entry, if any.
func (v *VfsStore) RemoveIndex(path string) error {
	return v.env.WithLock(func(conn *sql.DB) error {
		_, err := conn.Exec(`DELETE FROM vector_index WHERE path = ?`, path)
		return err
	})
}
