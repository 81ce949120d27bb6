// Package gate sequences the five enforcement stages — rate limit, score,
// validate, inspect, escalate — into a single Decision per call. It is the
// one entry point every tool handler must pass through before performing
// its effect.
package gate

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf-labs/spfsmartgate/internal/config"
	"github.com/spf-labs/spfsmartgate/internal/estimate"
	"github.com/spf-labs/spfsmartgate/internal/inspect"
	"github.com/spf-labs/spfsmartgate/internal/session"
	"github.com/spf-labs/spfsmartgate/internal/validate"
)

// rateLimitCategory buckets tool names into the three rate ceilings of
// spec §4.8.
type rateLimitCategory int

const (
	categoryStandard rateLimitCategory = iota // 60/min
	categoryExternal                          // 30/min: web fetch/search/api
	categoryOther                             // 120/min
)

var standardTools = map[string]bool{
	"Write": true, "spf_write": true,
	"Edit": true, "spf_edit": true,
	"Bash": true, "spf_bash": true,
	"Download": true, "spf_download": true,
	"NotebookEdit": true, "spf_notebook_edit": true,
}

var externalTools = map[string]bool{
	"spf_web_fetch": true, "spf_web_search": true,
	"spf_rag_query": true, "spf_brain_query": true,
}

func categorize(tool string) rateLimitCategory {
	if standardTools[tool] {
		return categoryStandard
	}
	if externalTools[tool] || strings.Contains(strings.ToLower(tool), "search") || strings.Contains(strings.ToLower(tool), "fetch") {
		return categoryExternal
	}
	return categoryOther
}

func rateLimitFor(cat rateLimitCategory) int {
	switch cat {
	case categoryStandard:
		return 60
	case categoryExternal:
		return 30
	default:
		return 120
	}
}

// Decision is the Gate Pipeline's single output type.
type Decision struct {
	Allowed          bool
	Tool             string
	C                uint64
	Tier             config.Tier
	AnalyzePercent   uint8
	BuildPercent     uint8
	AOptimalTokens   uint64
	RequiresApproval bool
	Warnings         []string
	Errors           []string
	Message          string
}

// contentToolFields identifies which tools carry a "content" payload the
// Content Inspector must scan.
func isContentTool(tool string) bool {
	switch tool {
	case "Write", "spf_write", "Edit", "spf_edit", "NotebookEdit", "spf_notebook_edit":
		return true
	}
	return false
}

// Process is the Gate Pipeline's single entry point (spec §4.8).
func Process(cfg config.Config, sess *session.Session, projectsRoot, tmpRoot, tool string, params map[string]any, now time.Time) Decision {
	// Stage 1: rate limit.
	cat := categorize(tool)
	limit := rateLimitFor(cat)
	if sess.ActionsInWindow(now) >= limit {
		d := Decision{
			Allowed: false,
			Tool:    tool,
			Tier:    config.TierRateLimited,
			Errors:  []string{fmt.Sprintf("rate limit exceeded: %d calls in the last 60s (limit %d)", sess.ActionsInWindow(now), limit)},
		}
		d.Message = formatMessage(d)
		return d
	}

	// Stage 2: score.
	est := estimate.Calculate(paramsToEstimate(tool, params), cfg)

	// Stage 3: validate.
	vctx := validate.Ctx{Config: cfg, Session: sess, ProjectsRoot: projectsRoot, TmpRoot: tmpRoot}
	vres := validate.Validate(vctx, tool, params)

	// Stage 4: inspect (Write/Edit/NotebookEdit only).
	var ires validate.Result
	if isContentTool(tool) {
		content, _ := params["content"].(string)
		path, _ := params["path"].(string)
		ires = inspect.Inspect(content, path, cfg)
	}

	warnings := append(append([]string{}, vres.Warnings...), ires.Warnings...)
	errors := append(append([]string{}, vres.Errors...), ires.Errors...)

	tier := est.Tier
	analyzePct := est.AnalyzePercent
	buildPct := est.BuildPercent
	requiresApproval := est.RequiresApproval

	// Stage 5: escalate.
	escalated := false
	if cfg.EnforceMode == config.Max {
		for _, w := range warnings {
			if strings.HasPrefix(w, validate.MaxTierPrefix) {
				escalated = true
				break
			}
		}
	}
	if escalated {
		tier = config.TierCritical
		analyzePct = cfg.Tiers.Critical.AnalyzePercent
		buildPct = cfg.Tiers.Critical.BuildPercent
		requiresApproval = cfg.Tiers.Critical.RequiresApproval
		warnings = append(warnings, "ESCALATED TO CRITICAL TIER")
	}

	allowed := len(errors) == 0

	d := Decision{
		Allowed:          allowed,
		Tool:             tool,
		C:                est.C,
		Tier:             tier,
		AnalyzePercent:   analyzePct,
		BuildPercent:     buildPct,
		AOptimalTokens:   est.AOptimalTokens,
		RequiresApproval: requiresApproval,
		Warnings:         warnings,
		Errors:           errors,
	}
	d.Message = formatMessage(d)
	return d
}

func formatMessage(d Decision) string {
	if d.Allowed {
		return fmt.Sprintf("ALLOWED | %s | C=%d | %s | %d%%/%d%% | %s",
			d.Tool, d.C, d.Tier, d.AnalyzePercent, d.BuildPercent, strings.Join(d.Warnings, "; "))
	}
	return fmt.Sprintf("BLOCKED | %s | C=%d | %d errors | %s",
		d.Tool, d.C, len(d.Errors), strings.Join(d.Errors, "; "))
}

func paramsToEstimate(tool string, params map[string]any) estimate.Params {
	p := estimate.Params{Tool: tool}
	if v, ok := params["path"].(string); ok {
		p.Path = v
	}
	if v, ok := params["content"].(string); ok {
		p.Content = v
		p.ContentLength = len(v)
	}
	if v, ok := params["command"].(string); ok {
		p.Command = v
	}
	if v, ok := params["pattern"].(string); ok {
		p.Pattern = v
	}
	if v, ok := params["replace_all"].(bool); ok {
		p.ReplaceAll = v
	}
	if v, ok := params["large_diff"].(bool); ok {
		p.LargeDiff = v
	}
	if v, ok := params["has_imports"].(bool); ok {
		p.HasImports = v
	}
	return p
}

// RecordOutcome performs the pipeline's caller-owned side effects: exactly
// one manifest entry, the rate-window push, files_read/files_written
// tracking for the effect the caller actually performed, and a failures
// entry when the call was blocked. It must be called exactly once per
// processed call (spec §4.8's side-effects note).
func RecordOutcome(sess *session.Session, d Decision, now time.Time) {
	sess.RecordAction(now)
	status := "ALLOWED"
	if !d.Allowed {
		status = "BLOCKED"
	}
	sess.RecordManifest(session.ManifestEntry{
		Tool:   d.Tool,
		C:      d.C,
		Status: status,
		Notes:  d.Message,
		At:     now.Unix(),
	})
	sess.RecordComplexity(session.ComplexityEntry{
		Tool: d.Tool,
		C:    d.C,
		Tier: string(d.Tier),
		At:   now.Unix(),
	})
	sess.LastTool = d.Tool
	sess.LastResult = status
	if !d.Allowed {
		sess.RecordFailure(session.FailureEntry{
			Tool:  d.Tool,
			Error: strings.Join(d.Errors, "; "),
			At:    now.Unix(),
		})
	}
}
