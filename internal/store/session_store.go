package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf-labs/spfsmartgate/internal/session"
)

// sessionKey is the single entry the Session environment ever holds,
// matching the source gateway's SESSION_KEY constant.
const sessionKey = "current_session"

// SessionStore is the Session KV environment (spec §4.9, 50 MiB budget —
// advisory only under SQLite, which grows on demand).
type SessionStore struct{ env *Env }

// OpenSessionStore opens the Session environment at dir.
func OpenSessionStore(dir string) (*SessionStore, error) {
	env, err := OpenEnv(dir, "SESSION")
	if err != nil {
		return nil, err
	}
	return &SessionStore{env: env}, nil
}

// Close closes the underlying environment.
func (s *SessionStore) Close() error { return s.env.Close() }

// Load returns the persisted Session, or nil if none has been saved yet.
func (s *SessionStore) Load() (*session.Session, error) {
	raw, ok := s.env.Get(sessionKey)
	if !ok {
		return nil, nil
	}
	var sess session.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	sess.AfterLoad()
	return &sess, nil
}

// Save persists sess as the single current_session entry. Must complete
// before the calling handler returns success, per spec §5's durability
// requirement.
func (s *SessionStore) Save(sess *session.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.env.Put(sessionKey, string(raw))
}

// LoadOrNew loads the persisted Session, creating a fresh one at now if
// none exists — the "created on process start if absent" lifecycle rule of
// spec §3.2.
func (s *SessionStore) LoadOrNew(now time.Time) (*session.Session, error) {
	sess, err := s.Load()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = session.New(now)
	}
	return sess, nil
}
