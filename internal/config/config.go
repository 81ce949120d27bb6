// Package config defines the persisted enforcement Configuration: enforce
// mode, path rules, tier table, formula parameters, the per-category weight
// table, and dangerous-command patterns. It is the compiled-in policy the
// Gate Pipeline consults on every call; nothing here is reachable from a
// tool call itself, only from operator commands (init-config,
// config-import/export, refresh-paths).
package config

import (
	"math"
	"runtime"
)

// EnforceMode governs whether a "MAX TIER:" warning is fatal escalation or
// a non-blocking note.
type EnforceMode string

const (
	Soft EnforceMode = "soft"
	Max  EnforceMode = "max"
)

// TierThreshold is one row of the tier table.
type TierThreshold struct {
	MaxC              uint64 `json:"max_c"`
	AnalyzePercent    uint8  `json:"analyze_percent"`
	BuildPercent      uint8  `json:"build_percent"`
	RequiresApproval  bool   `json:"requires_approval"`
}

// TierConfig is the four-tier table of §4.4.
type TierConfig struct {
	Simple   TierThreshold `json:"simple"`
	Light    TierThreshold `json:"light"`
	Medium   TierThreshold `json:"medium"`
	Critical TierThreshold `json:"critical"`
}

// FormulaConfig holds the SPF formula's parameters.
//
//	C = basic^BasicPower + deps^DepsPower + complex^ComplexPower + files*FilesMultiplier
//	a_optimal(C) = WEff * (1 - 1/ln(C + E))
type FormulaConfig struct {
	WEff            float64 `json:"w_eff"`
	E               float64 `json:"e"`
	BasicPower      uint32  `json:"basic_power"`
	DepsPower       uint32  `json:"deps_power"`
	ComplexPower    uint32  `json:"complex_power"`
	FilesMultiplier uint64  `json:"files_multiplier"`
}

// ToolWeight is the (basic, deps, complex, files) base tuple for one tool
// category.
type ToolWeight struct {
	Basic        uint64 `json:"basic"`
	Dependencies uint64 `json:"dependencies"`
	Complex      uint64 `json:"complex"`
	Files        uint64 `json:"files"`
}

// ComplexityWeights maps each of the nine tool categories to its base
// weight tuple.
type ComplexityWeights struct {
	Edit          ToolWeight `json:"edit"`
	Write         ToolWeight `json:"write"`
	BashDangerous ToolWeight `json:"bash_dangerous"`
	BashGit       ToolWeight `json:"bash_git"`
	BashPiped     ToolWeight `json:"bash_piped"`
	BashSimple    ToolWeight `json:"bash_simple"`
	Read          ToolWeight `json:"read"`
	Search        ToolWeight `json:"search"`
	Unknown       ToolWeight `json:"unknown"`
}

// Config is the full, persisted enforcement Configuration (spec §3.1, §4.2).
type Config struct {
	Version                string             `json:"version"`
	EnforceMode             EnforceMode        `json:"enforce_mode"`
	AllowedPaths            []string           `json:"allowed_paths"`
	BlockedPaths            []string           `json:"blocked_paths"`
	RequireReadBeforeEdit   bool               `json:"require_read_before_edit"`
	MaxWriteSize            uint64             `json:"max_write_size"`
	Tiers                   TierConfig         `json:"tiers"`
	Formula                 FormulaConfig      `json:"formula"`
	ComplexityWeights       ComplexityWeights  `json:"complexity_weights"`
	DangerousCommands       []string           `json:"dangerous_commands"`
	GitForcePatterns        []string           `json:"git_force_patterns"`
}

// CurrentVersion is the compiled release string re-asserted on every boot,
// winning over whatever version a persisted Configuration carries.
const CurrentVersion = "1.0.0"

// Default builds the compiled-in default Configuration, matching the
// source gateway's defaults exactly (default dangerous-command list,
// default tier table, default weight table, default blocked paths).
// actualHome and root are injected rather than resolved internally so this
// package stays free of any dependency on process environment — callers
// (bootstrap, init-config) own root discovery.
func Default(root, actualHome string) Config {
	blocked := []string{
		systemPkgPath(),
		root + "/src/",
		root + "/LIVE/SPF_FS/blobs/",
		root + "/go.mod",
		root + "/go.sum",
		actualHome + "/.claude/",
		root + "/LIVE/CONFIG.DB",
		root + "/LIVE/LMDB5/",
		root + "/LIVE/state/",
		root + "/LIVE/storage/",
		root + "/hooks/",
		root + "/scripts/",
	}
	if runtime.GOOS == "windows" {
		blocked = append(blocked,
			`C:\Windows`, `C:\Program Files`, `C:\Program Files (x86)`)
	} else {
		blocked = append(blocked, "/tmp", "/etc", "/usr", "/system")
	}

	return Config{
		Version:               CurrentVersion,
		EnforceMode:           Max,
		AllowedPaths:          []string{actualHome + "/"},
		BlockedPaths:          blocked,
		RequireReadBeforeEdit: true,
		MaxWriteSize:          100_000,
		Tiers: TierConfig{
			Simple:   TierThreshold{MaxC: 500, AnalyzePercent: 40, BuildPercent: 60, RequiresApproval: true},
			Light:    TierThreshold{MaxC: 2000, AnalyzePercent: 60, BuildPercent: 40, RequiresApproval: true},
			Medium:   TierThreshold{MaxC: 10000, AnalyzePercent: 75, BuildPercent: 25, RequiresApproval: true},
			Critical: TierThreshold{MaxC: math.MaxUint64, AnalyzePercent: 95, BuildPercent: 5, RequiresApproval: true},
		},
		Formula: FormulaConfig{
			WEff:            40000.0,
			E:               math.E,
			BasicPower:      1,
			DepsPower:       7,
			ComplexPower:    10,
			FilesMultiplier: 10,
		},
		ComplexityWeights: ComplexityWeights{
			Edit:          ToolWeight{Basic: 10, Dependencies: 2, Complex: 1, Files: 1},
			Write:         ToolWeight{Basic: 20, Dependencies: 2, Complex: 1, Files: 1},
			BashDangerous: ToolWeight{Basic: 50, Dependencies: 5, Complex: 2, Files: 1},
			BashGit:       ToolWeight{Basic: 30, Dependencies: 3, Complex: 1, Files: 1},
			BashPiped:     ToolWeight{Basic: 20, Dependencies: 3, Complex: 1, Files: 1},
			BashSimple:    ToolWeight{Basic: 10, Dependencies: 1, Complex: 0, Files: 1},
			Read:          ToolWeight{Basic: 5, Dependencies: 1, Complex: 0, Files: 1},
			Search:        ToolWeight{Basic: 8, Dependencies: 2, Complex: 0, Files: 1},
			Unknown:       ToolWeight{Basic: 20, Dependencies: 3, Complex: 1, Files: 1},
		},
		DangerousCommands: []string{
			"rm -rf /", "rm -rf ~", "dd if=", "> /dev/", "chmod 777",
			"curl | sh", "wget | sh", "curl|sh", "wget|sh",
		},
		GitForcePatterns: []string{"--force", "--hard", "-f"},
	}
}

func systemPkgPath() string {
	if runtime.GOOS == "android" {
		return "/data/data/com.termux/files/usr"
	}
	return "/usr"
}

// ReassertCompiledPolicy re-applies the parts of Configuration that compiled
// code, not persisted state, must own: the current version string and
// requires_approval=true on every tier. Called on every boot, even when a
// Configuration was loaded from the store.
func ReassertCompiledPolicy(c *Config) {
	c.Version = CurrentVersion
	c.Tiers.Simple.RequiresApproval = true
	c.Tiers.Light.RequiresApproval = true
	c.Tiers.Medium.RequiresApproval = true
	c.Tiers.Critical.RequiresApproval = true
}

// Tier identifies a complexity band.
type Tier string

const (
	TierSimple      Tier = "SIMPLE"
	TierLight       Tier = "LIGHT"
	TierMedium      Tier = "MEDIUM"
	TierCritical    Tier = "CRITICAL"
	TierRateLimited Tier = "RATE_LIMITED"
)

// TierFor classifies C against the configured tier table.
func (c Config) TierFor(complexity uint64) (Tier, TierThreshold) {
	switch {
	case complexity < c.Tiers.Simple.MaxC:
		return TierSimple, c.Tiers.Simple
	case complexity < c.Tiers.Light.MaxC:
		return TierLight, c.Tiers.Light
	case complexity < c.Tiers.Medium.MaxC:
		return TierMedium, c.Tiers.Medium
	default:
		return TierCritical, c.Tiers.Critical
	}
}

// IsPathBlocked and IsPathAllowed delegate to respath but are exposed here
// as Config methods for callers that only have a Config in hand (e.g. the
// CLI's refresh-paths command).
func (c Config) IsPathBlocked(canonical string, tainted bool) bool {
	if tainted {
		return true
	}
	for _, p := range c.BlockedPaths {
		if hasPrefixPath(canonical, p) {
			return true
		}
	}
	return false
}

func (c Config) IsPathAllowed(canonical string, tainted bool) bool {
	if tainted {
		return false
	}
	for _, p := range c.AllowedPaths {
		if hasPrefixPath(canonical, p) {
			return true
		}
	}
	return false
}

func hasPrefixPath(path, prefix string) bool {
	if len(prefix) == 0 {
		return false
	}
	if prefix[len(prefix)-1] == '/' {
		prefix = prefix[:len(prefix)-1]
	}
	if path == prefix {
		return true
	}
	if len(path) > len(prefix) && path[:len(prefix)] == prefix && path[len(prefix)] == '/' {
		return true
	}
	return false
}
