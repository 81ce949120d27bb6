// Package vfs implements the Virtual FS View: an agent-visible path
// namespace that unions physical passthrough directories, read-only
// projections of other stores, and a hybrid inline/blob virtual filesystem
// for everything else.
package vfs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf-labs/spfsmartgate/internal/store"
)

const inlineThreshold = 1 << 20 // 1 MiB

// skeletonPaths is the fixed set of directories that exist on first open,
// under /home/agent/... plus the top-level roots (spec §4.10).
var skeletonPaths = buildSkeleton()

func buildSkeleton() []string {
	base := []string{
		"/config", "/tmp", "/projects", "/system", "/tools",
		"/home/agent",
		"/home/agent/memory",
		"/home/agent/memory/fact",
		"/home/agent/memory/instruction",
		"/home/agent/memory/preference",
		"/home/agent/memory/observation",
		"/home/agent/memory/temporary",
		"/home/agent/memory/pinned",
		"/home/agent/sessions",
		"/home/agent/state",
		"/home/agent/tmp",
	}
	// Round out to roughly forty entries with the per-tool scratch and log
	// directories the agent-state projection also exposes.
	tools := []string{
		"bash", "edit", "write", "read", "glob", "grep",
		"web_fetch", "web_search", "rag_query", "brain_query",
		"projects", "tmp", "fs", "config", "agent",
	}
	for _, t := range tools {
		base = append(base, "/home/agent/state/"+t)
	}
	logs := []string{"calls", "failures", "manifest"}
	for _, l := range logs {
		base = append(base, "/home/agent/sessions/"+l)
	}
	return base
}

// View is the Virtual FS View over one Virtual FS environment, the
// Configuration store, and the Agent state store.
type View struct {
	vfs        *store.VfsStore
	cfg        *store.ConfigStore
	agent      *store.AgentStateStore
	blobsDir   string
	tmpRoot    string
	projectsRoot string
}

// New constructs a View. blobsDir must already exist or be creatable by
// the caller; tmpRoot/projectsRoot are the physical passthrough roots for
// /tmp and /projects.
func New(vfs *store.VfsStore, cfg *store.ConfigStore, agent *store.AgentStateStore, blobsDir, tmpRoot, projectsRoot string) *View {
	return &View{vfs: vfs, cfg: cfg, agent: agent, blobsDir: blobsDir, tmpRoot: tmpRoot, projectsRoot: projectsRoot}
}

// EnsureSkeleton seeds the fixed skeleton tree's metadata rows if absent —
// idempotent, safe to call on every open.
func (v *View) EnsureSkeleton(now time.Time) error {
	for _, p := range skeletonPaths {
		existing, err := v.vfs.GetMetadata(p)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := v.vfs.PutMetadata(store.VfsMetadata{
			Path: p, Kind: store.VfsDir, Version: 1,
			CreatedAt: now.Unix(), UpdatedAt: now.Unix(),
		}); err != nil {
			return err
		}
	}
	return nil
}

// Normalize resolves "."/".." segments, enforces a leading slash, and
// strips any trailing slash (spec §4.10).
func Normalize(path string) string {
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	clean := filepath.ToSlash(filepath.Clean(path))
	if clean != "/" {
		clean = strings.TrimSuffix(clean, "/")
	}
	return clean
}

// route classifies a normalized path into one of the five handlers of
// spec §4.10's prefix table.
type route int

const (
	routeConfig route = iota
	routeTmp
	routeProjects
	routeAgentHome
	routeVirtual
)

func classify(path string) route {
	switch {
	case path == "/config" || strings.HasPrefix(path, "/config/"):
		return routeConfig
	case path == "/home/agent/tmp" || strings.HasPrefix(path, "/home/agent/tmp/"):
		return routeTmp
	case path == "/tmp" || strings.HasPrefix(path, "/tmp/"):
		return routeTmp
	case path == "/projects" || strings.HasPrefix(path, "/projects/"):
		return routeProjects
	case path == "/home/agent" || strings.HasPrefix(path, "/home/agent/"):
		return routeAgentHome
	default:
		return routeVirtual
	}
}

// Node is a resolved read result: either the raw bytes of a file, or a
// listing of child names.
type Node struct {
	IsDir    bool
	Content  []byte
	Children []string
	Meta     store.VfsMetadata
}

// Read resolves path per the routing table.
func (v *View) Read(path string) (*Node, error) {
	path = Normalize(path)
	switch classify(path) {
	case routeConfig:
		return v.readConfig(path)
	case routeTmp:
		return v.readPassthrough(v.tmpRoot, strings.TrimPrefix(strings.TrimPrefix(path, "/home/agent/tmp"), "/tmp"))
	case routeProjects:
		return v.readPassthrough(v.projectsRoot, strings.TrimPrefix(path, "/projects"))
	case routeAgentHome:
		return v.readAgentHome(path)
	default:
		return v.readVirtual(path)
	}
}

func (v *View) readConfig(path string) (*Node, error) {
	cfg, err := v.cfg.Load()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration not seeded")
	}
	if path == "/config" {
		return &Node{IsDir: true, Children: []string{"version", "mode", "tiers", "formula", "weights", "paths", "patterns"}}, nil
	}
	name := strings.TrimPrefix(path, "/config/")
	var payload any
	switch name {
	case "version":
		payload = cfg.Version
	case "mode":
		payload = cfg.EnforceMode
	case "tiers":
		payload = cfg.Tiers
	case "formula":
		payload = cfg.Formula
	case "weights":
		payload = cfg.ComplexityWeights
	case "paths":
		payload = struct {
			Allowed []string `json:"allowed"`
			Blocked []string `json:"blocked"`
		}{cfg.AllowedPaths, cfg.BlockedPaths}
	case "patterns":
		payload = cfg.DangerousCommands
	default:
		return nil, fmt.Errorf("no such configuration file: %s", name)
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}
	return &Node{Content: raw}, nil
}

func (v *View) readPassthrough(root, rel string) (*Node, error) {
	if strings.Contains(rel, "..") {
		return nil, fmt.Errorf("path traversal rejected: %s", rel)
	}
	full := filepath.Join(root, rel)
	info, err := os.Stat(full)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		entries, err := os.ReadDir(full)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		sort.Strings(names)
		return &Node{IsDir: true, Children: names}, nil
	}
	content, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}
	return &Node{Content: content}, nil
}

func (v *View) readAgentHome(path string) (*Node, error) {
	if path == "/home/agent" {
		return &Node{IsDir: true, Children: []string{"memory", "sessions", "state", "tmp"}}, nil
	}
	rel := strings.TrimPrefix(path, "/home/agent/")
	switch {
	case rel == "state" || strings.HasPrefix(rel, "state/"):
		return v.readAgentState(strings.TrimPrefix(rel, "state"))
	case rel == "memory" || strings.HasPrefix(rel, "memory/"):
		return v.readAgentMemory(strings.TrimPrefix(rel, "memory"))
	case rel == "sessions" || strings.HasPrefix(rel, "sessions/"):
		return v.readAgentSessions(strings.TrimPrefix(rel, "sessions"))
	default:
		return nil, fmt.Errorf("no such agent path: %s", path)
	}
}

func (v *View) readAgentState(rel string) (*Node, error) {
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		files, err := v.agent.ListFiles()
		if err != nil {
			return nil, err
		}
		return &Node{IsDir: true, Children: files}, nil
	}
	if content, ok := v.agent.GetFile(rel); ok {
		return &Node{Content: []byte(content)}, nil
	}
	if content, ok := v.agent.GetState(rel); ok {
		return &Node{Content: []byte(content)}, nil
	}
	return nil, fmt.Errorf("no such agent state entry: %s", rel)
}

func (v *View) readAgentMemory(rel string) (*Node, error) {
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return &Node{IsDir: true, Children: []string{"fact", "instruction", "preference", "observation", "temporary", "pinned"}}, nil
	}
	kind := store.MemoryKind(rel)
	memories, err := v.agent.ListMemoriesByKind(kind)
	if err != nil {
		return nil, err
	}
	raw, err := json.MarshalIndent(memories, "", "  ")
	if err != nil {
		return nil, err
	}
	return &Node{Content: raw}, nil
}

func (v *View) readAgentSessions(rel string) (*Node, error) {
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return &Node{IsDir: true, Children: []string{"calls", "failures", "manifest"}}, nil
	}
	sess, err := v.agent.GetSession(rel)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("no such agent session: %s", rel)
	}
	raw, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return nil, err
	}
	return &Node{Content: raw}, nil
}

func (v *View) readVirtual(path string) (*Node, error) {
	meta, err := v.vfs.GetMetadata(path)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		children, err := v.listChildren(path)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			return nil, fmt.Errorf("no such path: %s", path)
		}
		return &Node{IsDir: true, Children: children}, nil
	}
	if meta.Kind == store.VfsDir {
		children, err := v.listChildren(path)
		if err != nil {
			return nil, err
		}
		return &Node{IsDir: true, Children: children, Meta: *meta}, nil
	}
	content, err := v.readContent(*meta)
	if err != nil {
		return nil, err
	}
	return &Node{Content: content, Meta: *meta}, nil
}

func (v *View) listChildren(path string) ([]string, error) {
	prefix := path
	if prefix != "/" {
		prefix += "/"
	}
	metas, err := v.vfs.ListMetadataByPrefix(prefix)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var names []string
	for _, m := range metas {
		rest := strings.TrimPrefix(m.Path, prefix)
		if rest == "" {
			continue
		}
		name := strings.SplitN(rest, "/", 2)[0]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (v *View) readContent(meta store.VfsMetadata) ([]byte, error) {
	if meta.Inline {
		content, ok := v.vfs.GetInline(meta.Path)
		if !ok {
			return nil, fmt.Errorf("inline content missing for %s", meta.Path)
		}
		return []byte(content), nil
	}
	blobPath := filepath.Join(v.blobsDir, meta.Checksum)
	return os.ReadFile(blobPath)
}

// Write stores content at path in the virtual FS branch, applying the
// hybrid inline/blob rule. Writes to /config, /tmp, /projects, and
// /home/agent are denied — those branches are read-only or handled by
// their own dedicated tools.
func (v *View) Write(path string, content []byte, now time.Time) (store.VfsMetadata, error) {
	path = Normalize(path)
	if classify(path) != routeVirtual {
		return store.VfsMetadata{}, fmt.Errorf("writes to %s are denied: not part of the virtual filesystem", path)
	}
	sum := sha256.Sum256(content)
	checksum := hex.EncodeToString(sum[:])

	existing, err := v.vfs.GetMetadata(path)
	if err != nil {
		return store.VfsMetadata{}, err
	}
	version := uint64(1)
	createdAt := now.Unix()
	if existing != nil {
		version = existing.Version + 1
		createdAt = existing.CreatedAt
		if !existing.Inline && existing.Checksum != checksum {
			_ = os.Remove(filepath.Join(v.blobsDir, existing.Checksum))
		}
	}

	meta := store.VfsMetadata{
		Path: path, Kind: store.VfsFile, Size: uint64(len(content)),
		Checksum: checksum, Version: version,
		CreatedAt: createdAt, UpdatedAt: now.Unix(),
	}

	if len(content) <= inlineThreshold {
		meta.Inline = true
		if err := v.vfs.PutInline(path, string(content)); err != nil {
			return store.VfsMetadata{}, err
		}
	} else {
		meta.Inline = false
		if err := os.MkdirAll(v.blobsDir, 0o755); err != nil {
			return store.VfsMetadata{}, fmt.Errorf("create blobs dir: %w", err)
		}
		if err := os.WriteFile(filepath.Join(v.blobsDir, checksum), content, 0o644); err != nil {
			return store.VfsMetadata{}, fmt.Errorf("write blob: %w", err)
		}
		if _, err := v.vfs.DeleteInline(path); err != nil {
			return store.VfsMetadata{}, err
		}
	}
	if err := v.vfs.PutMetadata(meta); err != nil {
		return store.VfsMetadata{}, err
	}
	return meta, nil
}

// Remove deletes a single virtual FS entry, including its blob if any.
func (v *View) Remove(path string) (bool, error) {
	path = Normalize(path)
	meta, err := v.vfs.GetMetadata(path)
	if err != nil {
		return false, err
	}
	if meta == nil {
		return false, nil
	}
	if !meta.Inline && meta.Checksum != "" {
		_ = os.Remove(filepath.Join(v.blobsDir, meta.Checksum))
	}
	if _, err := v.vfs.DeleteInline(path); err != nil {
		return false, err
	}
	if err := v.vfs.RemoveIndex(path); err != nil {
		return false, err
	}
	return v.vfs.DeleteMetadata(path)
}

// RemoveAll removes every entry with the given prefix — rm_rf.
func (v *View) RemoveAll(prefix string) (int, error) {
	prefix = Normalize(prefix)
	metas, err := v.vfs.ListMetadataByPrefix(prefix)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range metas {
		ok, err := v.Remove(m.Path)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	if _, err := v.Remove(prefix); err == nil {
		n++
	}
	return n, nil
}

// Rename copies metadata and content from oldPath to newPath, then
// deletes oldPath.
func (v *View) Rename(oldPath, newPath string, now time.Time) (store.VfsMetadata, error) {
	oldPath = Normalize(oldPath)
	newPath = Normalize(newPath)
	meta, err := v.vfs.GetMetadata(oldPath)
	if err != nil {
		return store.VfsMetadata{}, err
	}
	if meta == nil {
		return store.VfsMetadata{}, fmt.Errorf("no such path: %s", oldPath)
	}
	content, err := v.readContent(*meta)
	if err != nil {
		return store.VfsMetadata{}, err
	}
	written, err := v.Write(newPath, content, now)
	if err != nil {
		return store.VfsMetadata{}, err
	}
	if _, err := v.Remove(oldPath); err != nil {
		return store.VfsMetadata{}, err
	}
	return written, nil
}

// EnsureIndexed assigns path a vector-index id if it doesn't already have
// one, and returns it as a decimal string — used by tools that address
// blobs by opaque index id (spec §4.10 vector-index table).
func (v *View) EnsureIndexed(path string) (string, error) {
	id, err := v.vfs.IndexBlob(Normalize(path))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}
