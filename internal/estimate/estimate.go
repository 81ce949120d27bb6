// Package estimate implements the SPF formula: the deterministic mapping
// from (tool, parameters) to an integer complexity score C, a tier, and a
// token budget split. Every arithmetic step saturates at the unsigned
// 64-bit ceiling rather than overflowing or panicking — the estimator must
// never fail, no matter what a caller sends it.
package estimate

import (
	"math"
	"regexp"
	"strings"

	"github.com/spf-labs/spfsmartgate/internal/config"
)

// Params carries every optional field across all tool categories this
// estimator understands. Unset fields take their zero value, which is
// always the "no signal" case for that field.
type Params struct {
	Tool string

	// Edit / Write
	ContentLength int
	ReplaceAll    bool
	LargeDiff     bool
	HasImports    bool
	Path          string
	Content       string

	// Bash
	Command string

	// Read / Glob / Grep
	Pattern string

	// Glob scope hints
	FilesMatched int
}

// Result is the estimator's output (spec §4.3's ComplexityResult).
type Result struct {
	Tool             string       `json:"tool"`
	C                uint64       `json:"c"`
	Tier             config.Tier  `json:"tier"`
	AnalyzePercent   uint8        `json:"analyze_percent"`
	BuildPercent     uint8        `json:"build_percent"`
	AOptimalTokens   uint64       `json:"a_optimal_tokens"`
	RequiresApproval bool         `json:"requires_approval"`
}

// Calculate runs the full estimator for one call.
func Calculate(p Params, cfg config.Config) Result {
	basic, deps, complex, files := factorsFor(p, cfg)
	c := formula(basic, deps, complex, files, cfg.Formula)

	tier, threshold := cfg.TierFor(c)
	aOpt := aOptimal(c, cfg.Formula)

	return Result{
		Tool:             p.Tool,
		C:                c,
		Tier:             tier,
		AnalyzePercent:   threshold.AnalyzePercent,
		BuildPercent:     threshold.BuildPercent,
		AOptimalTokens:   uint64(aOpt),
		RequiresApproval: threshold.RequiresApproval,
	}
}

// formula applies C = basic^p1 + deps^p2 + complex^p3 + files*mult with
// saturating arithmetic throughout.
func formula(basic, deps, complex, files uint64, f config.FormulaConfig) uint64 {
	t1 := satPow(basic, f.BasicPower)
	t2 := satPow(deps, f.DepsPower)
	t3 := satPow(complex, f.ComplexPower)
	t4 := satMul(files, f.FilesMultiplier)

	c := satAdd(t1, t2)
	c = satAdd(c, t3)
	c = satAdd(c, t4)
	return c
}

// aOptimal computes W_eff * (1 - 1/ln(C+e)); C+e is always > 1 since e >
// 2.71, so ln is always positive and this never divides by zero.
func aOptimal(c uint64, f config.FormulaConfig) float64 {
	denom := math.Log(float64(c) + f.E)
	if denom <= 0 {
		return 0
	}
	v := f.WEff * (1 - 1/denom)
	if v < 0 {
		return 0
	}
	return v
}

const maxU64 = math.MaxUint64

func satAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a { // wrapped
		return maxU64
	}
	return sum
}

func satMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > maxU64/b {
		return maxU64
	}
	return a * b
}

func satPow(base uint64, exp uint32) uint64 {
	if exp == 0 {
		return 1
	}
	result := uint64(1)
	for i := uint32(0); i < exp; i++ {
		result = satMul(result, base)
		if result == maxU64 {
			return maxU64
		}
	}
	return result
}

// factorsFor dispatches to the per-category factor calculation and returns
// the (basic, deps, complex, files) tuple the formula consumes.
func factorsFor(p Params, cfg config.Config) (basic, deps, complex, files uint64) {
	tool := strings.ToLower(p.Tool)
	w := cfg.ComplexityWeights

	switch {
	case tool == "edit" || tool == "spf_edit":
		return editWriteFactors(p, w.Edit, cfg)
	case tool == "write" || tool == "spf_write":
		return editWriteFactors(p, w.Write, cfg)
	case tool == "bash" || tool == "spf_bash":
		return bashFactors(p, cfg)
	case tool == "read" || tool == "spf_read":
		return categoryFactors(w.Read, p)
	case tool == "glob" || tool == "grep" || tool == "spf_glob" || tool == "spf_grep":
		return searchFactors(p, w.Search)
	default:
		return categoryFactors(w.Unknown, p)
	}
}

func editWriteFactors(p Params, w config.ToolWeight, cfg config.Config) (basic, deps, complex, files uint64) {
	divisor := uint64(50)
	if strings.ToLower(p.Tool) == "edit" || strings.ToLower(p.Tool) == "spf_edit" {
		divisor = 20
	}
	basic = satAdd(w.Basic, uint64(p.ContentLength)/divisor)

	deps = w.Dependencies
	if p.ReplaceAll {
		deps = satAdd(deps, 2)
	}
	if p.LargeDiff {
		deps = satAdd(deps, 1)
	}
	if p.HasImports {
		deps = satAdd(deps, 2)
	}

	complex = uint64(complexFactor(p.ContentLength, hasRisk(p.Content), isArchitectural(p.Path)))

	files = 1
	if p.ReplaceAll {
		files = 5
	}
	return
}

func bashFactors(p Params, cfg config.Config) (basic, deps, complex, files uint64) {
	cmd := p.Command
	w := cfg.ComplexityWeights

	dangerous := matchesAny(cmd, cfg.DangerousCommands)
	git := isGitForce(cmd, cfg.GitForcePatterns)
	chainCount := strings.Count(cmd, "&&") + strings.Count(cmd, "||") + strings.Count(cmd, ";")
	pipeCount := strings.Count(cmd, "|") - strings.Count(cmd, "||")*2
	if pipeCount < 0 {
		pipeCount = 0
	}
	piped := pipeCount > 0

	var base config.ToolWeight
	switch {
	case dangerous:
		base = w.BashDangerous
	case git:
		base = w.BashGit
	case piped:
		base = w.BashPiped
	default:
		base = w.BashSimple
	}

	basic = base.Basic
	deps = satAdd(base.Dependencies, uint64(pipeCount+chainCount))
	complex = base.Complex
	if piped {
		complex = satAdd(complex, 1)
	}
	files = 1
	return
}

func categoryFactors(w config.ToolWeight, p Params) (basic, deps, complex, files uint64) {
	return w.Basic, w.Dependencies, w.Complex, w.Files
}

func searchFactors(p Params, w config.ToolWeight) (basic, deps, complex, files uint64) {
	basic = w.Basic
	deps = w.Dependencies
	complex = w.Complex
	files = filesFactor(p.Path, p.Pattern, p.Command)
	return
}

// complexFactor implements the 0..4 risk/size scale of spec §4.3.
func complexFactor(length int, risk, architectural bool) int {
	c := 0
	if length > 200 {
		c++
	}
	if length > 1000 {
		c++
	}
	if length > 5000 {
		c++
	}
	if risk {
		c++
	}
	if architectural && c < 3 {
		c = 3
	}
	if c > 4 {
		c = 4
	}
	return c
}

// filesFactor scales the files weight by how broad a glob/search/command's
// scope appears to be.
func filesFactor(path, pattern, cmd string) uint64 {
	combined := path + " " + pattern + " " + cmd
	switch {
	case strings.Contains(combined, "find") || strings.Contains(combined, "xargs") || strings.Contains(combined, "-r"):
		return 100
	case strings.Contains(combined, "**"):
		return 50
	case strings.Contains(combined, "*"):
		return 20
	case isTopLevelDir(path):
		return 20
	default:
		return 1
	}
}

func isTopLevelDir(path string) bool {
	p := strings.ToLower(path)
	return p == "root" || p == "/" || p == "src" || p == "lib" ||
		strings.HasSuffix(p, "/src") || strings.HasSuffix(p, "/lib")
}

var architecturalRe = regexp.MustCompile(`(?i)(config|main\.|lib\.|mod\.|cargo\.toml|package\.json|go\.mod|\.env|settings|schema|.*rc$|\.yml$|\.yaml$)`)

// isArchitectural flags paths whose edit is disproportionately risky
// regardless of diff size: entry points, build manifests, dotfiles.
func isArchitectural(path string) bool {
	if path == "" {
		return false
	}
	return architecturalRe.MatchString(path)
}

var riskRe = regexp.MustCompile(`(?i)delete|drop|remove|truncate|override|force|unsafe|\brm\b|sudo`)

func hasRisk(content string) bool {
	return riskRe.MatchString(content)
}

func matchesAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

var gitCommandRe = regexp.MustCompile(`\bgit\s+(push|reset|rebase|merge|checkout)\b`)

func isGitForce(cmd string, patterns []string) bool {
	if !gitCommandRe.MatchString(cmd) {
		return false
	}
	return matchesAny(cmd, patterns)
}
