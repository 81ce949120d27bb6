package vfs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spf-labs/spfsmartgate/internal/store"
)

func TestNormalizePath(t *testing.T) {
	require.Equal(t, "/", Normalize("/"))
	require.Equal(t, "/home/user", Normalize("/home/user"))
	require.Equal(t, "/home/user", Normalize("/home/user/"))
	require.Equal(t, "/home/user", Normalize("/home/../home/user"))
	require.Equal(t, "/home/user", Normalize("/home/./user"))
	require.Equal(t, "/relative", Normalize("relative"))
}

func newTestView(t *testing.T) *View {
	t.Helper()
	dir := t.TempDir()

	vfsStore, err := store.OpenVfsStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = vfsStore.Close() })

	cfgStore, err := store.OpenConfigStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cfgStore.Close() })

	agentStore, err := store.OpenAgentStateStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = agentStore.Close() })

	return New(vfsStore, cfgStore, agentStore, dir+"/blobs", dir+"/tmp", dir+"/projects")
}

func TestEnsureSkeletonSeedsFixedTree(t *testing.T) {
	view := newTestView(t)
	require.NoError(t, view.EnsureSkeleton(time.Now()))

	node, err := view.Read("/home/agent")
	require.NoError(t, err)
	require.True(t, node.IsDir)
	require.Contains(t, node.Children, "memory")
	require.Contains(t, node.Children, "sessions")
	require.Contains(t, node.Children, "state")
	require.Contains(t, node.Children, "tmp")
}

func TestWriteReadRemoveRoundTrip(t *testing.T) {
	view := newTestView(t)
	now := time.Now()
	require.NoError(t, view.EnsureSkeleton(now))

	meta, err := view.Write("/notes/test.txt", []byte("Hello, SPF!"), now)
	require.NoError(t, err)
	require.Equal(t, uint64(11), meta.Size)
	require.Equal(t, uint64(1), meta.Version)

	node, err := view.Read("/notes/test.txt")
	require.NoError(t, err)
	require.False(t, node.IsDir)
	require.Equal(t, []byte("Hello, SPF!"), node.Content)

	dirNode, err := view.Read("/notes")
	require.NoError(t, err)
	require.True(t, dirNode.IsDir)
	require.Contains(t, dirNode.Children, "test.txt")

	ok, err := view.Remove("/notes/test.txt")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = view.Read("/notes/test.txt")
	require.Error(t, err)
}

func TestWriteOverwriteIncrementsVersion(t *testing.T) {
	view := newTestView(t)
	now := time.Now()

	first, err := view.Write("/notes/versioned.txt", []byte("v1"), now)
	require.NoError(t, err)
	require.Equal(t, uint64(1), first.Version)

	second, err := view.Write("/notes/versioned.txt", []byte("v2, longer"), now.Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, uint64(2), second.Version)
	require.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestWriteToReadOnlyBranchDenied(t *testing.T) {
	view := newTestView(t)
	_, err := view.Write("/config/version", []byte("x"), time.Now())
	require.Error(t, err)

	_, err = view.Write("/home/agent/state/bash", []byte("x"), time.Now())
	require.Error(t, err)
}
