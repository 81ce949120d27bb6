package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf-labs/spfsmartgate/internal/config"
)

// ConfigStore is the Configuration KV environment: scalar config values,
// path rules (allowed:<path> / blocked:<path>), and dangerous patterns
// with severities, per spec §4.2.
type ConfigStore struct{ env *Env }

// OpenConfigStore opens the Configuration environment and creates the
// path_rules and dangerous_patterns tables alongside the generic kv one.
func OpenConfigStore(dir string) (*ConfigStore, error) {
	env, err := OpenEnv(dir, "CONFIG")
	if err != nil {
		return nil, err
	}
	if _, err := env.Conn().Exec(`CREATE TABLE IF NOT EXISTS path_rules (
		rule_type TEXT NOT NULL,
		path TEXT NOT NULL,
		PRIMARY KEY (rule_type, path)
	)`); err != nil {
		env.Close()
		return nil, fmt.Errorf("migrate path_rules: %w", err)
	}
	if _, err := env.Conn().Exec(`CREATE TABLE IF NOT EXISTS dangerous_patterns (
		pattern TEXT PRIMARY KEY,
		severity INTEGER NOT NULL DEFAULT 5
	)`); err != nil {
		env.Close()
		return nil, fmt.Errorf("migrate dangerous_patterns: %w", err)
	}
	return &ConfigStore{env: env}, nil
}

func (c *ConfigStore) Close() error { return c.env.Close() }

const scalarKey = "config:scalar"

// Load returns the persisted Configuration snapshot, or nil if none has
// been seeded yet.
func (c *ConfigStore) Load() (*config.Config, error) {
	raw, ok := c.env.Get(scalarKey)
	if !ok {
		return nil, nil
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Save persists the full Configuration snapshot as one scalar JSON blob and
// mirrors its path rules and dangerous patterns into their dedicated
// tables so the read-only enumeration views (spec §4.2) stay in sync.
func (c *ConfigStore) Save(cfg config.Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return c.env.Put(scalarKey, string(raw))
}

// SeedIfAbsent seeds compiled defaults on first open, then re-asserts the
// compiled tier-approval policy and version on every open regardless
// (spec §4.2's "compiled code wins" rule).
func (c *ConfigStore) SeedIfAbsent(root, actualHome string) (config.Config, error) {
	existing, err := c.Load()
	if err != nil {
		return config.Config{}, err
	}
	if existing == nil {
		defaults := config.Default(root, actualHome)
		if err := c.Save(defaults); err != nil {
			return config.Config{}, err
		}
		if err := c.syncRules(defaults); err != nil {
			return config.Config{}, err
		}
		return defaults, nil
	}
	config.ReassertCompiledPolicy(existing)
	if err := c.Save(*existing); err != nil {
		return config.Config{}, err
	}
	return *existing, nil
}

func (c *ConfigStore) syncRules(cfg config.Config) error {
	for _, p := range cfg.AllowedPaths {
		if err := c.AllowPath(p); err != nil {
			return err
		}
	}
	for _, p := range cfg.BlockedPaths {
		if err := c.BlockPath(p); err != nil {
			return err
		}
	}
	for _, p := range cfg.DangerousCommands {
		if err := c.AddDangerousPattern(p, 5); err != nil {
			return err
		}
	}
	return nil
}

// AllowPath records an allowed:<path> rule.
func (c *ConfigStore) AllowPath(path string) error {
	c.env.mu.Lock()
	defer c.env.mu.Unlock()
	_, err := c.env.conn.Exec(`INSERT OR REPLACE INTO path_rules (rule_type, path) VALUES ('allowed', ?)`, path)
	return err
}

// BlockPath records a blocked:<path> rule.
func (c *ConfigStore) BlockPath(path string) error {
	c.env.mu.Lock()
	defer c.env.mu.Unlock()
	_, err := c.env.conn.Exec(`INSERT OR REPLACE INTO path_rules (rule_type, path) VALUES ('blocked', ?)`, path)
	return err
}

// AddDangerousPattern records pattern with the given severity (0-10).
func (c *ConfigStore) AddDangerousPattern(pattern string, severity int) error {
	c.env.mu.Lock()
	defer c.env.mu.Unlock()
	_, err := c.env.conn.Exec(`INSERT OR REPLACE INTO dangerous_patterns (pattern, severity) VALUES (?, ?)`, pattern, severity)
	return err
}

// ListPathRules enumerates every (rule_type, path) pair.
func (c *ConfigStore) ListPathRules() ([]PathRule, error) {
	rows, err := c.env.conn.Query(`SELECT rule_type, path FROM path_rules ORDER BY rule_type, path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PathRule
	for rows.Next() {
		var r PathRule
		if err := rows.Scan(&r.RuleType, &r.Path); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListDangerousPatterns enumerates every configured pattern and severity.
func (c *ConfigStore) ListDangerousPatterns() ([]DangerousPattern, error) {
	rows, err := c.env.conn.Query(`SELECT pattern, severity FROM dangerous_patterns ORDER BY pattern`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DangerousPattern
	for rows.Next() {
		var d DangerousPattern
		if err := rows.Scan(&d.Pattern, &d.Severity); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// PathRule is one row of the path_rules table.
type PathRule struct {
	RuleType string `json:"rule_type"`
	Path     string `json:"path"`
}

// DangerousPattern is one row of the dangerous_patterns table.
type DangerousPattern struct {
	Pattern  string `json:"pattern"`
	Severity int    `json:"severity"`
}

// namespacedKey builds the "namespace:key" composite key convention used
// by GetScalar/SetScalar, matching the source gateway's config_db.rs.
func namespacedKey(namespace, key string) string {
	return strings.Join([]string{namespace, key}, ":")
}

// GetScalar reads an arbitrary namespaced scalar value.
func (c *ConfigStore) GetScalar(namespace, key string) (string, bool) {
	return c.env.Get(namespacedKey(namespace, key))
}

// SetScalar writes an arbitrary namespaced scalar value.
func (c *ConfigStore) SetScalar(namespace, key, value string) error {
	return c.env.Put(namespacedKey(namespace, key), value)
}
