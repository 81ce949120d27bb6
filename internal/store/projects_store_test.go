package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProjectsStoreGetMissingReturnsNil(t *testing.T) {
	p, err := OpenProjectsStore(t.TempDir())
	require.NoError(t, err)
	defer p.Close()

	m, err := p.Get("/root/LIVE/PROJECTS/demo")
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestProjectsStoreSetAndGetRoundTrips(t *testing.T) {
	p, err := OpenProjectsStore(t.TempDir())
	require.NoError(t, err)
	defer p.Close()

	now := time.Now()
	meta := DefaultProjectMetadata("demo", now)
	require.NoError(t, p.Set("/root/LIVE/PROJECTS/demo", meta))

	got, err := p.Get("/root/LIVE/PROJECTS/demo")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "demo", got.Name)
	require.Equal(t, TrustUntrusted, got.Trust)
}

func TestProjectsStoreSetActiveIsExclusive(t *testing.T) {
	p, err := OpenProjectsStore(t.TempDir())
	require.NoError(t, err)
	defer p.Close()

	now := time.Now()
	require.NoError(t, p.Set("/a", DefaultProjectMetadata("a", now)))
	require.NoError(t, p.Set("/b", DefaultProjectMetadata("b", now)))

	require.NoError(t, p.SetActive("/a"))
	active, ok := p.Active()
	require.True(t, ok)
	require.Equal(t, "/a", active)

	require.NoError(t, p.SetActive("/b"))
	active, ok = p.Active()
	require.True(t, ok)
	require.Equal(t, "/b", active)

	a, err := p.Get("/a")
	require.NoError(t, err)
	require.False(t, a.Active, "the previously-active project must be cleared")

	b, err := p.Get("/b")
	require.NoError(t, err)
	require.True(t, b.Active)
}

func TestProjectsStoreListEnumeratesAllRoots(t *testing.T) {
	p, err := OpenProjectsStore(t.TempDir())
	require.NoError(t, err)
	defer p.Close()

	now := time.Now()
	require.NoError(t, p.Set("/a", DefaultProjectMetadata("a", now)))
	require.NoError(t, p.Set("/b", DefaultProjectMetadata("b", now)))

	roots, err := p.List()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"/a", "/b"}, roots)
}
