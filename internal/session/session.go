// Package session holds the in-memory ledger of the current process's
// activity: files read/written, the rolling action count, bounded history
// FIFOs, and the 60-second rate window the Gate Pipeline's first stage
// consults. Exactly one Session exists per process.
package session

import "time"

const (
	maxComplexityHistory = 100
	maxManifest           = 200
	maxFailures           = 50
	rateWindowSeconds     = 60
)

// TraversalRejectedSentinel is recorded in place of a path that failed
// canonicalization, so it is visible in the read/write sets for
// diagnostics but can never satisfy a Build Anchor check.
const TraversalRejectedSentinel = "[TRAVERSAL REJECTED] "

// ComplexityEntry is one row of the bounded complexity_history FIFO.
type ComplexityEntry struct {
	Tool string `json:"tool"`
	C    uint64 `json:"c"`
	Tier string `json:"tier"`
	At   int64  `json:"at"`
}

// ManifestEntry is one row of the bounded manifest FIFO — the audit trail
// of every gated decision.
type ManifestEntry struct {
	Tool   string `json:"tool"`
	C      uint64 `json:"c"`
	Status string `json:"status"`
	Notes  string `json:"notes"`
	At     int64  `json:"at"`
}

// FailureEntry is one row of the bounded failures FIFO.
type FailureEntry struct {
	Tool  string `json:"tool"`
	Error string `json:"error"`
	At    int64  `json:"at"`
}

// Session is the process-wide ledger. JSON-encodable as a single blob for
// persistence in the Session KV environment under the key
// "current_session".
type Session struct {
	ActionCount uint64 `json:"action_count"`

	FilesRead    []string `json:"files_read"`
	FilesWritten []string `json:"files_written"`

	LastTool   string `json:"last_tool"`
	LastResult string `json:"last_result"`
	LastFile   string `json:"last_file"`

	StartedAt    int64 `json:"started_at"`
	LastActionAt int64 `json:"last_action_at"`

	ComplexityHistory []ComplexityEntry `json:"complexity_history"`
	Manifest          []ManifestEntry   `json:"manifest"`
	Failures          []FailureEntry    `json:"failures"`

	RateWindow []int64 `json:"rate_window"`

	readSet  map[string]struct{}
	writeSet map[string]struct{}
}

// New starts a fresh Session at the current time.
func New(now time.Time) *Session {
	s := &Session{StartedAt: now.Unix(), LastActionAt: now.Unix()}
	s.rebuildSets()
	return s
}

// rebuildSets reconstructs the membership sets after a JSON round-trip,
// since the unexported maps never survive (de)serialization.
func (s *Session) rebuildSets() {
	s.readSet = make(map[string]struct{}, len(s.FilesRead))
	for _, p := range s.FilesRead {
		s.readSet[p] = struct{}{}
	}
	s.writeSet = make(map[string]struct{}, len(s.FilesWritten))
	for _, p := range s.FilesWritten {
		s.writeSet[p] = struct{}{}
	}
}

// AfterLoad must be called once after decoding a Session from storage,
// before any tracking method is used.
func (s *Session) AfterLoad() { s.rebuildSets() }

// TrackRead records a read of the given canonical path, or of the
// traversal sentinel if tainted. Idempotent: tracking the same path twice
// changes |FilesRead| by at most 1.
func (s *Session) TrackRead(canonicalOrSentinel string, tainted bool) {
	key := trackKey(canonicalOrSentinel, tainted)
	if s.readSet == nil {
		s.rebuildSets()
	}
	if _, ok := s.readSet[key]; ok {
		return
	}
	s.readSet[key] = struct{}{}
	s.FilesRead = append(s.FilesRead, key)
}

// TrackWrite is TrackRead's analogue for the write set.
func (s *Session) TrackWrite(canonicalOrSentinel string, tainted bool) {
	key := trackKey(canonicalOrSentinel, tainted)
	if s.writeSet == nil {
		s.rebuildSets()
	}
	if _, ok := s.writeSet[key]; ok {
		return
	}
	s.writeSet[key] = struct{}{}
	s.FilesWritten = append(s.FilesWritten, key)
}

func trackKey(path string, tainted bool) string {
	if tainted {
		return TraversalRejectedSentinel + path
	}
	return path
}

// HasRead reports whether canonical satisfies the Build Anchor — present
// in files_read under its real (non-sentinel) form. A traversal-tainted
// entry never satisfies this, even if by coincidence its sentinel-prefixed
// string were looked up directly.
func (s *Session) HasRead(canonical string) bool {
	if s.readSet == nil {
		s.rebuildSets()
	}
	_, ok := s.readSet[canonical]
	return ok
}

// RecordAction pushes now onto the rate window and prunes entries older
// than 60 seconds, then updates LastActionAt. Called exactly once per
// processed call, regardless of the call's outcome.
func (s *Session) RecordAction(now time.Time) {
	ts := now.Unix()
	s.RateWindow = append(s.RateWindow, ts)
	cutoff := ts - rateWindowSeconds
	kept := s.RateWindow[:0]
	for _, t := range s.RateWindow {
		if t > cutoff {
			kept = append(kept, t)
		}
	}
	s.RateWindow = kept
	s.ActionCount++
	s.LastActionAt = ts
}

// ActionsInWindow counts timestamps within the last 60 seconds of now,
// without mutating the window — used by the rate-limit stage, which must
// be able to check before deciding whether to record.
func (s *Session) ActionsInWindow(now time.Time) int {
	cutoff := now.Unix() - rateWindowSeconds
	n := 0
	for _, t := range s.RateWindow {
		if t > cutoff {
			n++
		}
	}
	return n
}

// RecordComplexity appends to the bounded complexity_history FIFO,
// evicting the oldest entry once the cap is exceeded.
func (s *Session) RecordComplexity(e ComplexityEntry) {
	s.ComplexityHistory = append(s.ComplexityHistory, e)
	if len(s.ComplexityHistory) > maxComplexityHistory {
		s.ComplexityHistory = s.ComplexityHistory[1:]
	}
}

// RecordManifest appends to the bounded manifest FIFO.
func (s *Session) RecordManifest(e ManifestEntry) {
	s.Manifest = append(s.Manifest, e)
	if len(s.Manifest) > maxManifest {
		s.Manifest = s.Manifest[1:]
	}
}

// RecordFailure appends to the bounded failures FIFO.
func (s *Session) RecordFailure(e FailureEntry) {
	s.Failures = append(s.Failures, e)
	if len(s.Failures) > maxFailures {
		s.Failures = s.Failures[1:]
	}
}

// AnchorRatio is the fraction of writes that were preceded by a read of the
// same path — a cheap health signal surfaced by `status`.
func (s *Session) AnchorRatio() float64 {
	if len(s.FilesWritten) == 0 {
		return 1.0
	}
	anchored := 0
	for _, w := range s.FilesWritten {
		if s.HasRead(w) {
			anchored++
		}
	}
	return float64(anchored) / float64(len(s.FilesWritten))
}

// StatusSummary is the small struct the `status` CLI subcommand renders.
type StatusSummary struct {
	ActionCount  uint64  `json:"action_count"`
	FilesRead    int     `json:"files_read"`
	FilesWritten int     `json:"files_written"`
	AnchorRatio  float64 `json:"anchor_ratio"`
	Failures     int     `json:"failures"`
	LastTool     string  `json:"last_tool"`
}

// Status assembles the StatusSummary.
func (s *Session) Status() StatusSummary {
	return StatusSummary{
		ActionCount:  s.ActionCount,
		FilesRead:    len(s.FilesRead),
		FilesWritten: len(s.FilesWritten),
		AnchorRatio:  s.AnchorRatio(),
		Failures:     len(s.Failures),
		LastTool:     s.LastTool,
	}
}

// Reset returns a brand-new Session, discarding all history — the `reset`
// CLI subcommand's effect.
func Reset(now time.Time) *Session { return New(now) }
