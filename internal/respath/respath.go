// Package respath canonicalizes caller-supplied paths and classifies them
// against configured allow/block prefixes. It is the single choke point
// through which every filesystem-touching tool call's path argument passes
// before the Rule Validator ever sees it.
package respath

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolved is the outcome of canonicalizing a path.
type Resolved struct {
	// Canonical is the absolute, symlink-resolved path, valid only when
	// Tainted is false.
	Canonical string
	// Tainted marks a path whose final or parent component contained an
	// unresolvable ".." — it must always be treated as blocked and never
	// as allowed, regardless of any configured prefix.
	Tainted bool
}

// Resolve canonicalizes path per the contract:
//
//  1. If it exists on disk, return its canonical absolute form.
//  2. Otherwise, canonicalize the parent directory and re-append the
//     trailing component.
//  3. Reject (mark Tainted) any result whose final component contains
//     "..", or whose parent is itself unresolvable and contains "..".
func Resolve(path string) Resolved {
	if path == "" {
		return Resolved{Tainted: true}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Resolved{Tainted: true}
	}

	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return Resolved{Canonical: real}
	}

	parent := filepath.Dir(abs)
	base := filepath.Base(abs)

	if strings.Contains(base, "..") {
		return Resolved{Tainted: true}
	}

	realParent, err := filepath.EvalSymlinks(parent)
	if err != nil {
		if strings.Contains(parent, "..") {
			return Resolved{Tainted: true}
		}
		// Parent doesn't exist yet either (e.g. mkdir -p target); best
		// effort is the lexically cleaned absolute form.
		return Resolved{Canonical: filepath.Join(filepath.Clean(parent), base)}
	}

	return Resolved{Canonical: filepath.Join(realParent, base)}
}

// hasPrefix does byte-wise prefix comparison on canonical absolute paths,
// treating the prefix as a directory boundary: "/a/b" matches "/a/b" and
// "/a/b/c" but not "/a/bc".
func hasPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, string(filepath.Separator))
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(filepath.Separator))
}

// IsBlocked reports whether the resolved path matches any configured
// blocked prefix. A tainted path is always blocked.
func IsBlocked(r Resolved, blockedPaths []string) bool {
	if r.Tainted {
		return true
	}
	for _, p := range blockedPaths {
		if hasPrefix(r.Canonical, p) {
			return true
		}
	}
	return false
}

// IsAllowed reports whether the resolved path matches any configured
// allowed prefix. A tainted path is never allowed.
func IsAllowed(r Resolved, allowedPaths []string) bool {
	if r.Tainted {
		return false
	}
	for _, p := range allowedPaths {
		if hasPrefix(r.Canonical, p) {
			return true
		}
	}
	return false
}

// IsWriteAllowed reports whether the resolved path lies under one of the
// two compiled, non-configurable write-allowlist roots. This is the
// enforcement primitive: unlike IsAllowed, it consults no configuration.
func IsWriteAllowed(r Resolved, projectsRoot, tmpRoot string) bool {
	if r.Tainted {
		return false
	}
	return hasPrefix(r.Canonical, projectsRoot) || hasPrefix(r.Canonical, tmpRoot)
}

// Exists reports whether path currently exists on disk, without resolving
// symlinks — used by callers that need to distinguish "new file" writes
// from overwrites for anchor and size checks.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
