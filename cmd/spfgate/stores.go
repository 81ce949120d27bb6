package main

import (
	"fmt"

	"github.com/spf-labs/spfsmartgate/internal/bootstrap"
	"github.com/spf-labs/spfsmartgate/internal/config"
	"github.com/spf-labs/spfsmartgate/internal/rootpath"
	"github.com/spf-labs/spfsmartgate/internal/store"
)

// stores bundles every opened KV environment plus the resolved root paths,
// shared by every subcommand that needs more than a stateless calculation.
type stores struct {
	root         string
	actualHome   string
	projectsRoot string
	tmpRoot      string
	blobsDir     string
	logDir       string

	session  *store.SessionStore
	cfg      *store.ConfigStore
	projects *store.ProjectsStore
	tmp      *store.TmpStore
	agent    *store.AgentStateStore
	vfs      *store.VfsStore
}

// openStores resolves the install root, opens all six KV environments, and
// layers the optional spfgate.toml / environment overlay onto the
// persisted Configuration (spec §10's bootstrap sequence).
func openStores() (*stores, config.Config, error) {
	root, err := rootpath.Root()
	if err != nil {
		return nil, config.Config{}, err
	}
	home, err := rootpath.ActualHome()
	if err != nil {
		return nil, config.Config{}, err
	}

	s := &stores{
		root:         root,
		actualHome:   home,
		projectsRoot: rootpath.ProjectsDir(root),
		tmpRoot:      rootpath.TmpDir(root),
		blobsDir:     rootpath.BlobsDir(root),
		logDir:       rootpath.LogDir(root),
	}

	if s.session, err = store.OpenSessionStore(rootpath.SessionDBDir(root)); err != nil {
		return nil, config.Config{}, fmt.Errorf("open session store: %w", err)
	}
	if s.cfg, err = store.OpenConfigStore(rootpath.ConfigDBDir(root)); err != nil {
		return nil, config.Config{}, fmt.Errorf("open config store: %w", err)
	}
	if s.projects, err = store.OpenProjectsStore(rootpath.ProjectsDBDir(root)); err != nil {
		return nil, config.Config{}, fmt.Errorf("open projects store: %w", err)
	}
	if s.tmp, err = store.OpenTmpStore(rootpath.TmpDBDir(root)); err != nil {
		return nil, config.Config{}, fmt.Errorf("open tmp store: %w", err)
	}
	if s.agent, err = store.OpenAgentStateStore(rootpath.AgentStateDBDir(root)); err != nil {
		return nil, config.Config{}, fmt.Errorf("open agent state store: %w", err)
	}
	if s.vfs, err = store.OpenVfsStore(rootpath.VfsDBDir(root)); err != nil {
		return nil, config.Config{}, fmt.Errorf("open vfs store: %w", err)
	}

	cfg, err := s.cfg.SeedIfAbsent(root, home)
	if err != nil {
		s.Close()
		return nil, config.Config{}, fmt.Errorf("seed config: %w", err)
	}

	fc, err := bootstrap.LoadFile(bootstrap.ConfigFilePath(root))
	if err != nil {
		s.Close()
		return nil, config.Config{}, fmt.Errorf("load config overlay: %w", err)
	}
	cfg = bootstrap.ApplyOverlay(cfg, fc)

	return s, cfg, nil
}

// Close closes every opened environment. Safe to call when some
// environments failed to open (openStores bails out on the first error,
// leaving the rest nil).
func (s *stores) Close() {
	if s.session != nil {
		_ = s.session.Close()
	}
	if s.cfg != nil {
		_ = s.cfg.Close()
	}
	if s.projects != nil {
		_ = s.projects.Close()
	}
	if s.tmp != nil {
		_ = s.tmp.Close()
	}
	if s.agent != nil {
		_ = s.agent.Close()
	}
	if s.vfs != nil {
		_ = s.vfs.Close()
	}
}
