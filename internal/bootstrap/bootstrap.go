// Package bootstrap assembles the gateway's runtime configuration in
// layers — compiled defaults, an optional TOML file, environment
// variables, then CLI flags — and watches the TOML file for out-of-band
// edits so a running process can reload without a restart.
package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"

	"github.com/spf-labs/spfsmartgate/internal/config"
	"github.com/spf-labs/spfsmartgate/internal/rootpath"
)

// FileConfig is the optional on-disk overlay, e.g. spfgate.toml at the
// root. Every field is a pointer so "unset" is distinguishable from
// "explicitly zero" during layering.
type FileConfig struct {
	EnforceMode *string `toml:"enforce_mode"`
	MaxWriteSize *uint64 `toml:"max_write_size"`
	RagPath     *string `toml:"rag_path"`
}

// Env holds the environment-variable layer.
type Env struct {
	Root       string
	RagPath    string
	BraveAPIKey string
}

// LoadEnv reads the three environment variables the original gateway
// consults: $SPF_ROOT (root override), $SPF_RAG_PATH (external RAG
// subprocess location), $BRAVE_API_KEY (web search provider selection).
func LoadEnv() Env {
	return Env{
		Root:        os.Getenv("SPF_ROOT"),
		RagPath:     os.Getenv("SPF_RAG_PATH"),
		BraveAPIKey: os.Getenv("BRAVE_API_KEY"),
	}
}

// ConfigFilePath returns the conventional location of the optional
// TOML overlay, <root>/spfgate.toml.
func ConfigFilePath(root string) string {
	return filepath.Join(root, "spfgate.toml")
}

// LoadFile reads the TOML overlay if present, returning a zero FileConfig
// (no error) if the file does not exist.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fc, nil
	}
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fc, fmt.Errorf("decode %s: %w", path, err)
	}
	return fc, nil
}

// ApplyOverlay layers the optional TOML file's settings onto cfg, then
// re-asserts the compiled tier-approval policy so the overlay can never
// weaken the CRITICAL tier's requires_approval invariant (spec §4.2's
// "compiled code wins" rule).
func ApplyOverlay(cfg config.Config, fc FileConfig) config.Config {
	if fc.EnforceMode != nil {
		switch *fc.EnforceMode {
		case "soft":
			cfg.EnforceMode = config.Soft
		case "max":
			cfg.EnforceMode = config.Max
		}
	}
	if fc.MaxWriteSize != nil {
		cfg.MaxWriteSize = *fc.MaxWriteSize
	}
	config.ReassertCompiledPolicy(&cfg)
	return cfg
}

// RagSubprocessPath resolves the external RAG/brain subprocess location
// per the original's priority order: $SPF_RAG_PATH, then the TOML
// overlay's rag_path, then the conventional <root>/LIVE/BIN/ location.
func RagSubprocessPath(env Env, fc FileConfig, root string) string {
	if env.RagPath != "" {
		return env.RagPath
	}
	if fc.RagPath != nil {
		return *fc.RagPath
	}
	return filepath.Join(rootpath.LiveBinDir(root), "spf-rag")
}

// Watcher watches the TOML overlay file for writes and invokes onReload,
// debounce-free since config reloads are rare and idempotent to re-run.
type Watcher struct {
	w *fsnotify.Watcher
}

// Watch starts watching path (the TOML overlay's directory, since
// fsnotify on some platforms misses events on the file itself after an
// editor's atomic rename-over-write) and invokes onReload on every Write
// or Create event for that exact file. It blocks until the watcher is
// closed; run it in its own goroutine.
func Watch(path string, onReload func()) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Name == path && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					onReload()
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return &Watcher{w: w}, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error { return w.w.Close() }
