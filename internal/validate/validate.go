// Package validate implements the tool-dispatched Rule Validator: the
// write allowlist, the Build Anchor precondition, blocked-path checks, and
// the bash-command destination analysis. It is the second-to-last gate a
// call passes through before its effect is allowed.
package validate

import (
	"fmt"
	"strings"

	"github.com/spf-labs/spfsmartgate/internal/bashparse"
	"github.com/spf-labs/spfsmartgate/internal/config"
	"github.com/spf-labs/spfsmartgate/internal/respath"
	"github.com/spf-labs/spfsmartgate/internal/session"
)

// MaxTierPrefix marks a warning that forces CRITICAL-tier escalation under
// Max enforce mode.
const MaxTierPrefix = "MAX TIER: "

// Result accumulates warnings and errors for one validation pass. An empty
// Errors slice means the call may proceed (Valid() is true).
type Result struct {
	Warnings []string
	Errors   []string
}

func (r *Result) warn(msg string)  { r.Warnings = append(r.Warnings, msg) }
func (r *Result) fail(msg string)  { r.Errors = append(r.Errors, msg) }

// Valid reports whether no blocking error was recorded.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

// hardBlockedFSTools are ten virtual-FS tool names that are unconditionally
// denied in dispatch, defense in depth even though the catalog never
// advertises them.
var hardBlockedFSTools = map[string]bool{
	"spf_fs_import": true,
	"spf_fs_export": true,
	"spf_fs_exists": true,
	"spf_fs_stat":   true,
	"spf_fs_ls":     true,
	"spf_fs_read":   true,
	"spf_fs_write":  true,
	"spf_fs_mkdir":  true,
	"spf_fs_rm":     true,
	"spf_fs_rename": true,
}

// knownSafeTools is the fixed allowlist of tool names that pass through
// validation with no tool-specific pre-checks (still subject to rate
// limiting and, for writes, inspection upstream/downstream in the
// pipeline).
var knownSafeTools = buildKnownSafeSet()

func buildKnownSafeSet() map[string]bool {
	names := []string{
		"Read", "Glob", "Grep", "status",
		"session", "calculate", "gate",
		"spf_agent_remember", "spf_agent_recall", "spf_agent_forget", "spf_agent_list_memories",
		"spf_agent_start_session", "spf_agent_end_session", "spf_agent_get_session",
		"spf_agent_search_memories",
		"spf_brain_query", "spf_brain_status", "spf_brain_index",
		"spf_config_get", "spf_config_get_all", "spf_config_list_paths", "spf_config_list_patterns",
		"spf_projects_get", "spf_projects_list", "spf_projects_active", "spf_projects_set_active",
		"spf_projects_stats",
		"spf_rag_query", "spf_rag_status",
		"spf_tmp_get", "spf_tmp_list", "spf_tmp_access_log", "spf_tmp_active",
		"spf_web_search", "spf_web_fetch",
		"NotebookEdit",
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// Ctx bundles the state a validation call needs: the enforcement
// Configuration, the live Session, and the two compiled write-allowlist
// roots.
type Ctx struct {
	Config       config.Config
	Session      *session.Session
	ProjectsRoot string
	TmpRoot      string
}

// Validate dispatches to the tool-specific validator named in spec §4.5.
func Validate(ctx Ctx, tool string, params map[string]any) Result {
	var r Result

	if hardBlockedFSTools[tool] {
		r.fail(fmt.Sprintf("tool %q is unconditionally blocked (virtual-FS direct access)", tool))
		return r
	}

	switch tool {
	case "Edit", "spf_edit":
		validateEdit(ctx, params, &r)
	case "Write", "spf_write":
		validateWrite(ctx, params, &r)
	case "Read", "spf_read":
		validateRead(ctx, params, &r)
	case "Bash", "spf_bash":
		validateBash(ctx, params, &r)
	default:
		if knownSafeTools[tool] {
			return r
		}
		r.fail(fmt.Sprintf("tool %q is not in the known-safe allowlist (default deny)", tool))
	}
	return r
}

func stringParam(params map[string]any, key string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func boolParam(params map[string]any, key string) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func validateEdit(ctx Ctx, params map[string]any, r *Result) {
	path := stringParam(params, "path")
	resolved := respath.Resolve(path)

	if !respath.IsWriteAllowed(resolved, ctx.ProjectsRoot, ctx.TmpRoot) {
		r.fail(fmt.Sprintf("write destination %q is outside the write allowlist", path))
		return
	}

	if !ctx.Session.HasRead(resolved.Canonical) {
		msg := fmt.Sprintf("BUILD ANCHOR: %q was edited without a prior read", path)
		if ctx.Config.EnforceMode == config.Max {
			r.warn(MaxTierPrefix + msg)
		} else {
			r.warn(msg)
		}
	}

	if ctx.Config.IsPathBlocked(resolved.Canonical, resolved.Tainted) {
		r.fail(fmt.Sprintf("path %q matches a blocked prefix", path))
	}
}

func validateWrite(ctx Ctx, params map[string]any, r *Result) {
	path := stringParam(params, "path")
	content := stringParam(params, "content")
	resolved := respath.Resolve(path)

	if !respath.IsWriteAllowed(resolved, ctx.ProjectsRoot, ctx.TmpRoot) {
		r.fail(fmt.Sprintf("write destination %q is outside the write allowlist", path))
		return
	}

	if uint64(len(content)) > ctx.Config.MaxWriteSize {
		r.warn(fmt.Sprintf("write of %d bytes exceeds max_write_size %d", len(content), ctx.Config.MaxWriteSize))
	}

	if ctx.Config.IsPathBlocked(resolved.Canonical, resolved.Tainted) {
		r.fail(fmt.Sprintf("path %q matches a blocked prefix", path))
	}

	if respath.Exists(resolved.Canonical) && !ctx.Session.HasRead(resolved.Canonical) {
		msg := fmt.Sprintf("BUILD ANCHOR: %q was overwritten without a prior read", path)
		if ctx.Config.EnforceMode == config.Max {
			r.warn(MaxTierPrefix + msg)
		} else {
			r.warn(msg)
		}
	}
}

func validateRead(ctx Ctx, params map[string]any, r *Result) {
	path := stringParam(params, "path")
	resolved := respath.Resolve(path)
	if ctx.Config.IsPathBlocked(resolved.Canonical, resolved.Tainted) {
		r.fail(fmt.Sprintf("path %q matches a blocked prefix", path))
	}
}

func validateBash(ctx Ctx, params map[string]any, r *Result) {
	command := stringParam(params, "command")
	analysis := bashparse.Analyze(command, ctx.Config.DangerousCommands, ctx.Config.GitForcePatterns)

	for _, f := range analysis.Findings {
		if f.Kind == "git_force" {
			r.warn(f.Message)
			continue
		}
		r.fail(f.Message)
	}
	for _, w := range analysis.UnparseableWarns {
		r.warn(w)
	}

	for _, d := range analysis.Destinations {
		resolved := respath.Resolve(d.Path)
		if !respath.IsWriteAllowed(resolved, ctx.ProjectsRoot, ctx.TmpRoot) {
			r.fail(fmt.Sprintf("sub-command %q writes to %q, outside the write allowlist", strings.TrimSpace(d.SubCommand), d.Path))
		}
	}
}

// EnsureCategoryKnown mirrors the "any name in neither is default-denied"
// invariant from spec §9 — used by the CLI's config export/diagnostics to
// confirm the allow-set and deny-set never overlap.
func EnsureCategoryKnown(tool string) bool {
	return knownSafeTools[tool] || hardBlockedFSTools[tool]
}
