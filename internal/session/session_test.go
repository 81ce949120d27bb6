package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTrackReadIsIdempotent(t *testing.T) {
	s := New(time.Now())
	s.TrackRead("/root/LIVE/PROJECTS/a.go", false)
	s.TrackRead("/root/LIVE/PROJECTS/a.go", false)
	require.Len(t, s.FilesRead, 1)
	require.True(t, s.HasRead("/root/LIVE/PROJECTS/a.go"))
}

func TestTrackReadTaintedUsesSentinel(t *testing.T) {
	s := New(time.Now())
	s.TrackRead("../../etc/passwd", true)
	require.Len(t, s.FilesRead, 1)
	require.Equal(t, TraversalRejectedSentinel+"../../etc/passwd", s.FilesRead[0])
	require.False(t, s.HasRead("../../etc/passwd"), "a tainted read must never satisfy the Build Anchor")
}

func TestAfterLoadRebuildsSetsPostJSONRoundTrip(t *testing.T) {
	s := New(time.Now())
	s.TrackRead("/root/LIVE/PROJECTS/a.go", false)

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded Session
	require.NoError(t, json.Unmarshal(raw, &decoded))
	decoded.AfterLoad()

	require.True(t, decoded.HasRead("/root/LIVE/PROJECTS/a.go"))
}

func TestRateWindowPrunesOldEntries(t *testing.T) {
	s := New(time.Now())
	base := time.Unix(1_000_000, 0)

	s.RecordAction(base)
	require.Equal(t, 1, s.ActionsInWindow(base))

	later := base.Add(120 * time.Second)
	require.Equal(t, 0, s.ActionsInWindow(later), "entries older than 60s must not count")

	s.RecordAction(later)
	require.Equal(t, 1, s.ActionsInWindow(later), "RecordAction should have pruned the stale entry")
}

func TestBoundedManifestFIFOEvictsOldest(t *testing.T) {
	s := New(time.Now())
	for i := 0; i < maxManifest+10; i++ {
		s.RecordManifest(ManifestEntry{Tool: "spf_read", C: uint64(i), Status: "ALLOWED", At: int64(i)})
	}
	require.Len(t, s.Manifest, maxManifest)
	require.Equal(t, int64(10), s.Manifest[0].At, "the oldest 10 entries should have been evicted")
}

func TestBoundedFailuresFIFOEvictsOldest(t *testing.T) {
	s := New(time.Now())
	for i := 0; i < maxFailures+5; i++ {
		s.RecordFailure(FailureEntry{Tool: "spf_bash", Error: "blocked", At: int64(i)})
	}
	require.Len(t, s.Failures, maxFailures)
	require.Equal(t, int64(5), s.Failures[0].At)
}

func TestAnchorRatioReflectsReadBeforeWrite(t *testing.T) {
	s := New(time.Now())
	require.Equal(t, 1.0, s.AnchorRatio(), "no writes yet means a perfect ratio")

	s.TrackRead("/root/LIVE/PROJECTS/a.go", false)
	s.TrackWrite("/root/LIVE/PROJECTS/a.go", false)
	s.TrackWrite("/root/LIVE/PROJECTS/b.go", false)

	require.InDelta(t, 0.5, s.AnchorRatio(), 0.001)
}

func TestResetProducesFreshSession(t *testing.T) {
	s := New(time.Now())
	s.TrackRead("/root/LIVE/PROJECTS/a.go", false)
	s.RecordAction(time.Now())

	fresh := Reset(time.Now())
	require.Zero(t, fresh.ActionCount)
	require.Empty(t, fresh.FilesRead)
}
