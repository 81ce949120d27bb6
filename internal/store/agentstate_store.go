package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MemoryKind is one of the six kinds of Agent Memory Entry (glossary
// authoritative naming — see DESIGN.md for the mapping from the source
// gateway's Context/Working kinds to Observation/Temporary here).
type MemoryKind string

const (
	MemoryFact        MemoryKind = "fact"
	MemoryInstruction MemoryKind = "instruction"
	MemoryPreference  MemoryKind = "preference"
	MemoryObservation MemoryKind = "observation"
	MemoryTemporary   MemoryKind = "temporary"
	MemoryPinned      MemoryKind = "pinned"
)

// AgentMemory is one Agent Memory Entry (spec §3.1).
type AgentMemory struct {
	ID        string     `json:"id"`
	Kind      MemoryKind `json:"kind"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags"`
	CreatedAt int64      `json:"created_at"`
	UpdatedAt int64      `json:"updated_at"`
}

// AgentSession is one Agent Session Context entry (spec §3.1): a durable
// record distinct from the process-lifetime session.Session, keyed by its
// own UUID rather than tied to one enforcement process.
type AgentSession struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	State     map[string]any `json:"state"`
	CreatedAt int64          `json:"created_at"`
	UpdatedAt int64          `json:"updated_at"`
}

// AgentStateStore is the Agent state KV environment (100 MiB budget): memory
// entries by UUID, session contexts by UUID, arbitrary namespaced state
// (including file:<rel> keys), and a tag index for memory lookup.
type AgentStateStore struct{ env *Env }

// OpenAgentStateStore opens the Agent state environment at dir.
func OpenAgentStateStore(dir string) (*AgentStateStore, error) {
	env, err := OpenEnv(dir, "AGENT")
	if err != nil {
		return nil, err
	}
	if _, err := env.Conn().Exec(`CREATE TABLE IF NOT EXISTS memory_tags (
		memory_id TEXT NOT NULL,
		tag TEXT NOT NULL,
		PRIMARY KEY (memory_id, tag)
	)`); err != nil {
		env.Close()
		return nil, fmt.Errorf("migrate memory_tags: %w", err)
	}
	return &AgentStateStore{env: env}, nil
}

func (a *AgentStateStore) Close() error { return a.env.Close() }

const (
	memoryKeyPrefix  = "memory:"
	sessionKeyPrefix = "agentsession:"
	stateKeyPrefix   = "state:"
	fileKeyPrefix    = "state:file:"
)

// PutMemory creates or updates a memory entry, assigning a UUID if id is
// empty, and mirrors its tags into the tag index.
func (a *AgentStateStore) PutMemory(m AgentMemory) (AgentMemory, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return AgentMemory{}, fmt.Errorf("encode memory: %w", err)
	}
	if err := a.env.Put(memoryKeyPrefix+m.ID, string(raw)); err != nil {
		return AgentMemory{}, err
	}
	if err := a.env.WithLock(func(conn *sql.DB) error {
		if _, err := conn.Exec(`DELETE FROM memory_tags WHERE memory_id = ?`, m.ID); err != nil {
			return err
		}
		for _, tag := range m.Tags {
			if _, err := conn.Exec(`INSERT OR IGNORE INTO memory_tags (memory_id, tag) VALUES (?, ?)`, m.ID, tag); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return AgentMemory{}, err
	}
	return m, nil
}

// GetMemory returns the memory with the given UUID, if present.
func (a *AgentStateStore) GetMemory(id string) (*AgentMemory, error) {
	raw, ok := a.env.Get(memoryKeyPrefix + id)
	if !ok {
		return nil, nil
	}
	var m AgentMemory
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decode memory: %w", err)
	}
	return &m, nil
}

// DeleteMemory removes a memory entry and its tag index rows.
func (a *AgentStateStore) DeleteMemory(id string) (bool, error) {
	existed, err := a.env.Delete(memoryKeyPrefix + id)
	if err != nil {
		return false, err
	}
	if err := a.env.WithLock(func(conn *sql.DB) error {
		_, err := conn.Exec(`DELETE FROM memory_tags WHERE memory_id = ?`, id)
		return err
	}); err != nil {
		return existed, err
	}
	return existed, nil
}

// ListMemoriesByKind enumerates every memory of the given kind.
func (a *AgentStateStore) ListMemoriesByKind(kind MemoryKind) ([]AgentMemory, error) {
	keys, err := a.env.ListByPrefix(memoryKeyPrefix)
	if err != nil {
		return nil, err
	}
	var out []AgentMemory
	for _, k := range keys {
		raw, ok := a.env.Get(k)
		if !ok {
			continue
		}
		var m AgentMemory
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("decode memory %s: %w", k, err)
		}
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListMemoriesByTag enumerates every memory UUID indexed under tag.
func (a *AgentStateStore) ListMemoriesByTag(tag string) ([]string, error) {
	rows, err := a.env.Conn().Query(`SELECT memory_id FROM memory_tags WHERE tag = ? ORDER BY memory_id`, tag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PutSession creates or updates a durable agent session context.
func (a *AgentStateStore) PutSession(s AgentSession) (AgentSession, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return AgentSession{}, fmt.Errorf("encode agent session: %w", err)
	}
	return s, a.env.Put(sessionKeyPrefix+s.ID, string(raw))
}

// GetSession returns the durable agent session context with the given
// UUID, if present.
func (a *AgentStateStore) GetSession(id string) (*AgentSession, error) {
	raw, ok := a.env.Get(sessionKeyPrefix + id)
	if !ok {
		return nil, nil
	}
	var s AgentSession
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode agent session: %w", err)
	}
	return &s, nil
}

// SetState writes an arbitrary namespaced value, e.g. "notes" or "scratch".
func (a *AgentStateStore) SetState(key, value string) error {
	return a.env.Put(stateKeyPrefix+key, value)
}

// GetState reads an arbitrary namespaced value.
func (a *AgentStateStore) GetState(key string) (string, bool) {
	return a.env.Get(stateKeyPrefix + key)
}

// SetFile writes the file:<rel> namespaced content for a relative path
// tracked outside the Virtual FS proper (spec §3.1's file-scoped state).
func (a *AgentStateStore) SetFile(relPath, content string) error {
	return a.env.Put(fileKeyPrefix+relPath, content)
}

// GetFile reads back file-scoped state for a relative path.
func (a *AgentStateStore) GetFile(relPath string) (string, bool) {
	return a.env.Get(fileKeyPrefix + relPath)
}

// ListFiles enumerates every relative path tracked under file:<rel>.
func (a *AgentStateStore) ListFiles() ([]string, error) {
	keys, err := a.env.ListByPrefix(fileKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, fileKeyPrefix))
	}
	return out, nil
}
