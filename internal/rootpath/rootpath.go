// Package rootpath resolves the gateway's install root and the actual
// (non-gateway) user home directory. It never trusts $HOME as the primary
// signal: the root is found by walking up from the running binary looking
// for the module's own build marker, exactly as a compiled tool must be
// able to locate its own tree regardless of the caller's environment.
package rootpath

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const marker = "go.mod"

var (
	rootOnce sync.Once
	rootVal  string
	rootErr  error

	homeOnce sync.Once
	homeVal  string
	homeErr  error
)

// AppName is used to build the last-resort $HOME/<app> fallback.
const AppName = "SPFsmartGATE"

// RootOverride bypasses resolveRoot's cached lookup when set, the same way
// the --vault-style flag overrides a registry lookup elsewhere in this
// codebase's lineage. Production code never sets it; tests that need an
// isolated install root do.
var RootOverride string

// HomeOverride is RootOverride's counterpart for ActualHome.
var HomeOverride string

// Root returns the gateway's install root.
//
// Resolution order:
//  1. Walk up from the running binary's canonical location looking for go.mod.
//  2. $SPF_ROOT environment variable, if it exists on disk.
//  3. $HOME/SPFsmartGATE.
//
// Failing all three is unrecoverable: the gateway cannot enforce its
// write-allowlist without a known root, so this returns an error rather
// than guessing.
func Root() (string, error) {
	if RootOverride != "" {
		return RootOverride, nil
	}
	rootOnce.Do(func() {
		rootVal, rootErr = resolveRoot()
	})
	return rootVal, rootErr
}

// MustRoot is Root, but exits the process on failure. Reserved for command
// entry points, mirroring the source gateway's fatal-on-boot behavior when
// the root cannot be determined — this is a boot precondition, not a
// per-call error.
func MustRoot() string {
	root, err := Root()
	if err != nil {
		fmt.Fprintln(os.Stderr, "spfgate: fatal:", err)
		os.Exit(1)
	}
	return root
}

func resolveRoot() (string, error) {
	if exe, err := os.Executable(); err == nil {
		if canonical, err := filepath.EvalSymlinks(exe); err == nil {
			dir := filepath.Dir(canonical)
			for {
				if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
					return dir, nil
				}
				parent := filepath.Dir(dir)
				if parent == dir {
					break
				}
				dir = parent
			}
		}
	}

	if root := os.Getenv("SPF_ROOT"); root != "" {
		if _, err := os.Stat(root); err == nil {
			return root, nil
		}
	}

	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}

	return "", fmt.Errorf("cannot determine gateway root: binary walk-up failed, SPF_ROOT unset, HOME unset")
}

// ActualHome is the real user home directory — the parent of Root(), falling
// back to $HOME. It is deliberately distinct from Root(): the gateway's own
// tree must never be mistaken for the directory it is meant to be reasoning
// about on the user's behalf.
func ActualHome() (string, error) {
	if HomeOverride != "" {
		return HomeOverride, nil
	}
	homeOnce.Do(func() {
		homeVal, homeErr = resolveHome()
	})
	return homeVal, homeErr
}

func resolveHome() (string, error) {
	root, err := Root()
	if err == nil {
		if parent := filepath.Dir(root); parent != root {
			return parent, nil
		}
	}
	if home := os.Getenv("HOME"); home != "" {
		return home, nil
	}
	return "", fmt.Errorf("cannot determine home directory: root has no parent and HOME unset")
}

// SystemPkgPath is the platform package-manager root that is always
// blocked. Termux (Android) publishes it via $PREFIX; everything else uses
// /usr.
func SystemPkgPath() string {
	if prefix := os.Getenv("PREFIX"); prefix != "" && filepath.Base(prefix) == "usr" {
		return prefix
	}
	return "/usr"
}

// LiveDir is <root>/LIVE, the parent of every KV environment and writable
// root defined by the filesystem surface.
func LiveDir(root string) string { return filepath.Join(root, "LIVE") }

// ProjectsDir is the physical writable root for project files.
func ProjectsDir(root string) string {
	return filepath.Join(root, "LIVE", "PROJECTS", "PROJECTS")
}

// TmpDir is the physical writable root for scratch files.
func TmpDir(root string) string {
	return filepath.Join(root, "LIVE", "TMP", "TMP")
}

// SessionDBDir is the Session KV environment's directory.
func SessionDBDir(root string) string {
	return filepath.Join(root, "LIVE", "SESSION", "SESSION.DB")
}

// ConfigDBDir is the Configuration KV environment's directory.
func ConfigDBDir(root string) string {
	return filepath.Join(root, "LIVE", "CONFIG", "CONFIG.DB")
}

// ProjectsDBDir is the Projects KV environment's directory.
func ProjectsDBDir(root string) string {
	return filepath.Join(root, "LIVE", "PROJECTS", "PROJECTS.DB")
}

// TmpDBDir is the TMP-metadata KV environment's directory.
func TmpDBDir(root string) string {
	return filepath.Join(root, "LIVE", "TMP", "TMP.DB")
}

// AgentStateDBDir is the Agent-state KV environment's directory.
func AgentStateDBDir(root string) string {
	return filepath.Join(root, "LIVE", "LMDB5", "LMDB5.DB")
}

// VfsDBDir is the Virtual FS KV environment's directory.
func VfsDBDir(root string) string {
	return filepath.Join(root, "LIVE", "SPF_FS", "SPF_FS.DB")
}

// BlobsDir is the virtual FS's content-addressed overflow storage for files
// larger than the inline threshold.
func BlobsDir(root string) string {
	return filepath.Join(root, "LIVE", "SPF_FS", "blobs")
}

// LiveBinDir holds the gateway's own compiled binaries and any external
// subprocess binaries it shells out to (e.g. the RAG collector).
func LiveBinDir(root string) string {
	return filepath.Join(root, "LIVE", "BIN")
}

// LogDir holds the plain-text call log (cmd.log) alongside the other
// LIVE-scoped state.
func LogDir(root string) string {
	return filepath.Join(root, "LIVE")
}
