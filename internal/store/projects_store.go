package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// TrustLevel is a project's operator-assigned trust tier (spec §3.1,
// §4.11).
type TrustLevel string

const (
	TrustUntrusted TrustLevel = "untrusted"
	TrustLow       TrustLevel = "low"
	TrustMedium    TrustLevel = "medium"
	TrustHigh      TrustLevel = "high"
	TrustFull      TrustLevel = "full"
)

// ProjectMetadata is keyed by project root path (spec §3.1).
type ProjectMetadata struct {
	Name              string     `json:"name"`
	Trust             TrustLevel `json:"trust"`
	Active            bool       `json:"active"`
	CreatedAt         int64      `json:"created_at"`
	LastAccessAt      int64      `json:"last_access_at"`
	ReadCount         uint64     `json:"read_count"`
	WriteCount        uint64     `json:"write_count"`
	SessionWriteCount uint64     `json:"session_write_count"`
	MaxSessionWrites  uint64     `json:"max_session_writes"`
	MaxWriteSize      uint64     `json:"max_write_size"`
	TotalBytesRead    uint64     `json:"total_bytes_read"`
	TotalBytesWritten uint64     `json:"total_bytes_written"`
	TotalComplexity   uint64     `json:"total_complexity"`
	ProtectedPaths    []string   `json:"protected_paths"`
	AllowedExtensions []string   `json:"allowed_extensions"`
	Notes             string     `json:"notes"`
}

// DefaultProjectMetadata seeds a freshly-touched project root.
func DefaultProjectMetadata(name string, now time.Time) ProjectMetadata {
	return ProjectMetadata{
		Name:             name,
		Trust:            TrustUntrusted,
		CreatedAt:        now.Unix(),
		LastAccessAt:     now.Unix(),
		MaxSessionWrites: 1000,
		MaxWriteSize:     10 * 1024 * 1024,
	}
}

// ProjectsStore is the Projects KV environment: opaque string→string per
// spec §4.9, here specialized to JSON-encoded ProjectMetadata values keyed
// by project root path.
type ProjectsStore struct{ env *Env }

// OpenProjectsStore opens the Projects environment at dir.
func OpenProjectsStore(dir string) (*ProjectsStore, error) {
	env, err := OpenEnv(dir, "PROJECTS")
	if err != nil {
		return nil, err
	}
	return &ProjectsStore{env: env}, nil
}

func (p *ProjectsStore) Close() error { return p.env.Close() }

const projectKeyPrefix = "project:"
const activeProjectKey = "active_project"

// Get returns the metadata for a project root path, if present.
func (p *ProjectsStore) Get(rootPath string) (*ProjectMetadata, error) {
	raw, ok := p.env.Get(projectKeyPrefix + rootPath)
	if !ok {
		return nil, nil
	}
	var m ProjectMetadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decode project metadata: %w", err)
	}
	return &m, nil
}

// Set writes project metadata, keyed by its root path.
func (p *ProjectsStore) Set(rootPath string, m ProjectMetadata) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode project metadata: %w", err)
	}
	return p.env.Put(projectKeyPrefix+rootPath, string(raw))
}

// SetActive marks rootPath as the sole active project, clearing any
// previous active project's flag — "at most one project is active at a
// time" (spec §3.1).
func (p *ProjectsStore) SetActive(rootPath string) error {
	if prev, _ := p.env.Get(activeProjectKey); prev != "" {
		if m, err := p.Get(prev); err == nil && m != nil {
			m.Active = false
			_ = p.Set(prev, *m)
		}
	}
	if m, err := p.Get(rootPath); err == nil && m != nil {
		m.Active = true
		if err := p.Set(rootPath, *m); err != nil {
			return err
		}
	}
	return p.env.Put(activeProjectKey, rootPath)
}

// Active returns the currently-active project's root path, if any.
func (p *ProjectsStore) Active() (string, bool) {
	return p.env.Get(activeProjectKey)
}

// List enumerates every known project root path.
func (p *ProjectsStore) List() ([]string, error) {
	keys, err := p.env.ListByPrefix(projectKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k[len(projectKeyPrefix):])
	}
	return out, nil
}
