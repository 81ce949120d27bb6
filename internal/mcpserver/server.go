// Package mcpserver wires the compiled security gateway to the outside
// world over the Model Context Protocol: every registered handler runs
// its call through the Gate Pipeline before performing (or refusing) the
// underlying effect.
package mcpserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/spf-labs/spfsmartgate/internal/bootstrap"
	"github.com/spf-labs/spfsmartgate/internal/config"
	"github.com/spf-labs/spfsmartgate/internal/gate"
	"github.com/spf-labs/spfsmartgate/internal/gatelog"
	"github.com/spf-labs/spfsmartgate/internal/session"
	"github.com/spf-labs/spfsmartgate/internal/store"
	"github.com/spf-labs/spfsmartgate/internal/vfs"
)

// Version is set by the caller before calling Serve.
var Version = "dev"

// Server bundles every store the gateway's handlers touch, plus the live
// in-memory Session, guarded by a single mutex — spec §5's single-threaded
// dispatch model means this lock is never contended in practice, but the
// stdio transport does not itself guarantee callers serialize requests.
type Server struct {
	mu sync.Mutex

	cfg          config.Config
	sess         *session.Session
	projectsRoot string
	tmpRoot      string

	sessionStore *store.SessionStore
	configStore  *store.ConfigStore
	projects     *store.ProjectsStore
	tmp          *store.TmpStore
	agent        *store.AgentStateStore
	vfsStore     *store.VfsStore
	fsview       *vfs.View
	log          *gatelog.Logger
	watcher      *bootstrap.Watcher
}

// Deps bundles the opened stores Serve needs. Root, ActualHome,
// ProjectsRoot, and TmpRoot come from internal/rootpath.
type Deps struct {
	Root         string
	ActualHome   string
	ProjectsRoot string
	TmpRoot      string
	BlobsDir     string
	LogDir       string

	SessionStore *store.SessionStore
	ConfigStore  *store.ConfigStore
	Projects     *store.ProjectsStore
	Tmp          *store.TmpStore
	Agent        *store.AgentStateStore
	Vfs          *store.VfsStore
}

// NewServer seeds configuration and session state, layers the optional
// TOML/env overlay onto it, and constructs the Virtual FS View over the
// opened stores.
func NewServer(d Deps) (*Server, error) {
	cfg, err := d.ConfigStore.SeedIfAbsent(d.Root, d.ActualHome)
	if err != nil {
		return nil, fmt.Errorf("seed configuration: %w", err)
	}
	fc, err := bootstrap.LoadFile(bootstrap.ConfigFilePath(d.Root))
	if err != nil {
		return nil, fmt.Errorf("load config overlay: %w", err)
	}
	cfg = bootstrap.ApplyOverlay(cfg, fc)

	sess, err := d.SessionStore.LoadOrNew(now())
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	view := vfs.New(d.Vfs, d.ConfigStore, d.Agent, d.BlobsDir, d.TmpRoot, d.ProjectsRoot)
	if err := view.EnsureSkeleton(now()); err != nil {
		return nil, fmt.Errorf("seed virtual fs skeleton: %w", err)
	}
	logger, err := gatelog.Open(d.LogDir)
	if err != nil {
		return nil, fmt.Errorf("open call log: %w", err)
	}
	srv := &Server{
		cfg: cfg, sess: sess,
		projectsRoot: d.ProjectsRoot, tmpRoot: d.TmpRoot,
		sessionStore: d.SessionStore, configStore: d.ConfigStore,
		projects: d.Projects, tmp: d.Tmp, agent: d.Agent, vfsStore: d.Vfs,
		fsview: view, log: logger,
	}

	watcher, err := bootstrap.Watch(bootstrap.ConfigFilePath(d.Root), srv.reloadOverlay(d.Root))
	if err != nil {
		return nil, fmt.Errorf("watch config overlay: %w", err)
	}
	srv.watcher = watcher

	return srv, nil
}

// reloadOverlay returns a callback that re-reads the TOML overlay and
// re-applies it to the live Configuration, invoked whenever
// bootstrap.Watch observes a write to spfgate.toml.
func (s *Server) reloadOverlay(root string) func() {
	return func() {
		fc, err := bootstrap.LoadFile(bootstrap.ConfigFilePath(root))
		if err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.cfg = bootstrap.ApplyOverlay(s.cfg, fc)
	}
}

func now() time.Time { return time.Now() }

// gateCall runs one tool call through the Gate Pipeline and persists the
// resulting session state, returning the Decision for the handler to act
// on. Every registered handler must call this before performing its
// effect (spec §4.8).
func (s *Server) gateCall(tool string, params map[string]any) gate.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := now()
	d := gate.Process(s.cfg, s.sess, s.projectsRoot, s.tmpRoot, tool, params, t)
	gate.RecordOutcome(s.sess, d, t)
	if err := s.sessionStore.Save(s.sess); err != nil {
		d.Warnings = append(d.Warnings, fmt.Sprintf("session persistence failed: %v", err))
	}
	_ = s.log.Record(t, d.Allowed, d.Tool, d.Message)
	return d
}

func (s *Server) trackRead(path string, tainted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.TrackRead(path, tainted)
	_ = s.sessionStore.Save(s.sess)
}

func (s *Server) trackWrite(path string, tainted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.TrackWrite(path, tainted)
	_ = s.sessionStore.Save(s.sess)
}

// Serve starts the gateway on stdio.
func Serve(d Deps) error {
	srv, err := NewServer(d)
	if err != nil {
		return err
	}
	defer srv.watcher.Close()
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "spfsmartgate",
		Version: Version,
	}, nil)
	srv.registerTools(server)
	return server.Run(context.Background(), &mcp.StdioTransport{})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func deniedResult(d gate.Decision) *mcp.CallToolResult {
	return textResult(d.Message)
}
