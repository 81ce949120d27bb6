// Package bashparse splits a compound bash command into sub-commands and
// locates every write destination each one names, so the Rule Validator
// can apply the write-allowlist to each individually rather than trusting
// the command as a whole.
package bashparse

import (
	"strings"
)

// HardcodedDangerousPatterns is the seven-entry supplementary list that
// cannot be removed via configuration — it is compiled directly into the
// binary, distinct from the operator-editable dangerous_commands list in
// the Configuration Store.
var HardcodedDangerousPatterns = []string{
	"chmod 0777",
	"chmod a+rwx",
	"mkfs",
	"> /dev/sd",
	"curl|bash",
	"wget -O-|",
	"curl -s|",
}

// shellInterpreters is checked by the generalized pipe-to-shell detector,
// which flags "| sh", "| bash", "| zsh", "| dash" (with optional flags in
// between) independently of the seven literal patterns above.
var shellInterpreters = []string{"sh", "bash", "zsh", "dash"}

// Destination is one extracted write target, tagged with the sub-command it
// came from so the validator can cite it precisely.
type Destination struct {
	SubCommand string
	Path       string
}

// Finding is one detected hardcoded-blocking condition (dangerous pattern,
// git force, /tmp reference, pipe-to-shell) that is always a blocking
// error regardless of destination analysis.
type Finding struct {
	Kind    string // "dangerous", "git_force", "tmp_reference", "pipe_to_shell"
	Message string
}

// Analysis is the full result of parsing one bash command string.
type Analysis struct {
	Findings         []Finding
	Destinations     []Destination
	UnparseableWarns []string // inline-script flags that couldn't be parsed reliably
}

// Analyze runs every check in spec §4.6's fixed order: hardcoded dangerous
// patterns, configured dangerous patterns, git force detection, /tmp
// reference, pipe-to-shell, then per-sub-command destination extraction.
func Analyze(command string, configuredDangerous, gitForcePatterns []string) Analysis {
	var a Analysis

	for _, pat := range HardcodedDangerousPatterns {
		if strings.Contains(command, pat) {
			a.Findings = append(a.Findings, Finding{
				Kind:    "dangerous",
				Message: "hardcoded dangerous pattern matched: " + pat,
			})
		}
	}
	for _, pat := range configuredDangerous {
		if strings.Contains(command, pat) {
			a.Findings = append(a.Findings, Finding{
				Kind:    "dangerous",
				Message: "dangerous command pattern matched: " + pat,
			})
		}
	}

	if isGitForce(command, gitForcePatterns) {
		a.Findings = append(a.Findings, Finding{
			Kind:    "git_force",
			Message: "git force operation detected",
		})
	}

	if strings.Contains(command, "/tmp") {
		a.Findings = append(a.Findings, Finding{
			Kind:    "tmp_reference",
			Message: "direct reference to /tmp is not permitted",
		})
	}

	subCommands := Split(command)
	for _, sc := range subCommands {
		if hasPipeToShell(sc) {
			a.Findings = append(a.Findings, Finding{
				Kind:    "pipe_to_shell",
				Message: "pipes output directly into a shell interpreter: " + strings.TrimSpace(sc),
			})
		}
		dests, warn := extractDestinations(sc)
		for _, d := range dests {
			a.Destinations = append(a.Destinations, Destination{SubCommand: sc, Path: d})
		}
		if warn != "" {
			a.UnparseableWarns = append(a.UnparseableWarns, warn)
		}
	}

	return a
}

var gitVerbs = []string{"push", "reset", "rebase", "merge", "checkout"}

func isGitForce(cmd string, patterns []string) bool {
	if !strings.Contains(cmd, "git ") {
		return false
	}
	hasVerb := false
	for _, v := range gitVerbs {
		if strings.Contains(cmd, v) {
			hasVerb = true
			break
		}
	}
	if !hasVerb {
		return false
	}
	for _, p := range patterns {
		if strings.Contains(cmd, p) {
			return true
		}
	}
	return false
}

func hasPipeToShell(subCommand string) bool {
	idx := strings.LastIndex(subCommand, "|")
	if idx == -1 {
		return false
	}
	tail := strings.Fields(subCommand[idx+1:])
	for _, tok := range tail {
		tok = strings.TrimSpace(tok)
		if strings.HasPrefix(tok, "-") {
			continue
		}
		base := tok
		if i := strings.LastIndexByte(base, '/'); i >= 0 {
			base = base[i+1:]
		}
		for _, sh := range shellInterpreters {
			if base == sh {
				return true
			}
		}
		return false
	}
	return false
}

// Split tokenizes command on top-level ';', '&&', '||', and '|', respecting
// single quotes, double quotes, backslash escapes, and inline $(...)
// substitutions so separators inside those constructs are not treated as
// boundaries.
func Split(command string) []string {
	var parts []string
	var cur strings.Builder

	var (
		inSingle, inDouble bool
		parenDepth         int
		escaped            bool
	)

	runes := []rune(command)
	flush := func() {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			parts = append(parts, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if escaped {
			cur.WriteRune(r)
			escaped = false
			continue
		}

		switch {
		case r == '\\' && !inSingle:
			escaped = true
			cur.WriteRune(r)
			continue
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			cur.WriteRune(r)
			continue
		case r == '"' && !inSingle:
			inDouble = !inDouble
			cur.WriteRune(r)
			continue
		}

		if inSingle || inDouble {
			cur.WriteRune(r)
			continue
		}

		if r == '(' && i > 0 && runes[i-1] == '$' {
			parenDepth++
			cur.WriteRune(r)
			continue
		}
		if r == ')' && parenDepth > 0 {
			parenDepth--
			cur.WriteRune(r)
			continue
		}
		if parenDepth > 0 {
			cur.WriteRune(r)
			continue
		}

		switch {
		case r == ';':
			flush()
			continue
		case r == '&' && i+1 < len(runes) && runes[i+1] == '&':
			flush()
			i++
			continue
		case r == '|' && i+1 < len(runes) && runes[i+1] == '|':
			flush()
			i++
			continue
		case r == '|':
			flush()
			continue
		}

		cur.WriteRune(r)
	}
	flush()

	return parts
}

// looksLikePath is the heuristic gate applied to every extracted token
// before it is treated as a write destination: a bare relative token like
// "build" or "notes.txt" is never a path, only something that starts with
// '/', './', '~/', or contains a '/' anywhere.
func looksLikePath(s string) bool {
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "./") || strings.HasPrefix(s, "~/") || strings.Contains(s, "/")
}

func filterPaths(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if looksLikePath(t) {
			out = append(out, t)
		}
	}
	return out
}

// extractDestinations applies the per-command-name extraction table of
// spec §4.6 to one already-split sub-command.
func extractDestinations(sc string) (dests []string, unparseableWarn string) {
	tokens := strings.Fields(sc)
	if len(tokens) == 0 {
		return nil, ""
	}
	cmdName := lastPathComponent(tokens[0])

	if dest := redirectDestination(sc); dest != "" && looksLikePath(dest) {
		dests = append(dests, dest)
	}

	switch cmdName {
	case "cp", "mv", "install":
		if d := lastNonFlagToken(tokens[1:]); d != "" && looksLikePath(d) {
			dests = append(dests, d)
		}
	case "tee":
		dests = append(dests, filterPaths(nonFlagTokens(tokens[1:]))...)
	case "mkdir", "touch", "rm", "rmdir":
		dests = append(dests, filterPaths(nonFlagTokens(tokens[1:]))...)
	case "sed":
		if idx := indexOf(tokens, "-i"); idx >= 0 {
			dests = append(dests, filterPaths(nonFlagTokens(tokens[idx+1:]))...)
		}
	case "chmod", "chown":
		// first non-flag token is the mode/owner; everything after is a
		// destination.
		rest := tokens[1:]
		skippedMode := false
		for _, t := range rest {
			if strings.HasPrefix(t, "-") {
				continue
			}
			if !skippedMode {
				skippedMode = true
				continue
			}
			if looksLikePath(t) {
				dests = append(dests, t)
			}
		}
	case "dd":
		for _, t := range tokens[1:] {
			if strings.HasPrefix(t, "of=") {
				if v := strings.TrimPrefix(t, "of="); looksLikePath(v) {
					dests = append(dests, v)
				}
			}
		}
	case "python", "python3", "perl", "ruby", "node":
		for _, t := range tokens[1:] {
			if t == "-c" || t == "-e" {
				unparseableWarn = "inline script via " + cmdName + " " + t + " cannot be parsed reliably"
				break
			}
		}
	}

	return dests, unparseableWarn
}

func redirectDestination(sc string) string {
	for _, op := range []string{">>", ">"} {
		if idx := strings.LastIndex(sc, op); idx >= 0 {
			rest := strings.TrimSpace(sc[idx+len(op):])
			fields := strings.Fields(rest)
			if len(fields) > 0 {
				return fields[0]
			}
		}
	}
	return ""
}

func lastNonFlagToken(tokens []string) string {
	last := ""
	for _, t := range tokens {
		if strings.HasPrefix(t, "-") {
			continue
		}
		last = t
	}
	return last
}

func nonFlagTokens(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if strings.HasPrefix(t, "-") {
			continue
		}
		out = append(out, t)
	}
	return out
}

func indexOf(tokens []string, target string) int {
	for i, t := range tokens {
		if t == target {
			return i
		}
	}
	return -1
}

func lastPathComponent(s string) string {
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}
