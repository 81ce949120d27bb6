package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVfsStoreMetadataLifecycle(t *testing.T) {
	v, err := OpenVfsStore(t.TempDir())
	require.NoError(t, err)
	defer v.Close()

	m, err := v.GetMetadata("/notes/a.txt")
	require.NoError(t, err)
	require.Nil(t, m)

	require.NoError(t, v.PutMetadata(VfsMetadata{Path: "/notes/a.txt", Kind: VfsFile, Size: 5, Version: 1}))

	got, err := v.GetMetadata("/notes/a.txt")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, uint64(5), got.Size)

	existed, err := v.DeleteMetadata("/notes/a.txt")
	require.NoError(t, err)
	require.True(t, existed)
}

func TestVfsStoreListMetadataByPrefix(t *testing.T) {
	v, err := OpenVfsStore(t.TempDir())
	require.NoError(t, err)
	defer v.Close()

	require.NoError(t, v.PutMetadata(VfsMetadata{Path: "/notes/a.txt", Kind: VfsFile}))
	require.NoError(t, v.PutMetadata(VfsMetadata{Path: "/notes/b.txt", Kind: VfsFile}))
	require.NoError(t, v.PutMetadata(VfsMetadata{Path: "/other/c.txt", Kind: VfsFile}))

	under, err := v.ListMetadataByPrefix("/notes/")
	require.NoError(t, err)
	require.Len(t, under, 2)
}

func TestVfsStoreInlineContentRoundTrip(t *testing.T) {
	v, err := OpenVfsStore(t.TempDir())
	require.NoError(t, err)
	defer v.Close()

	require.NoError(t, v.PutInline("/notes/a.txt", "hello"))
	content, ok := v.GetInline("/notes/a.txt")
	require.True(t, ok)
	require.Equal(t, "hello", content)

	existed, err := v.DeleteInline("/notes/a.txt")
	require.NoError(t, err)
	require.True(t, existed)

	_, ok = v.GetInline("/notes/a.txt")
	require.False(t, ok)
}

func TestVfsStoreIndexBlobIsStableAcrossCalls(t *testing.T) {
	v, err := OpenVfsStore(t.TempDir())
	require.NoError(t, err)
	defer v.Close()

	id1, err := v.IndexBlob("/blobs/large.bin")
	require.NoError(t, err)

	id2, err := v.IndexBlob("/blobs/large.bin")
	require.NoError(t, err)
	require.Equal(t, id1, id2, "re-indexing the same path must return the same id")

	path, ok := v.PathForIndex(id1)
	require.True(t, ok)
	require.Equal(t, "/blobs/large.bin", path)
}

func TestVfsStoreRemoveIndex(t *testing.T) {
	v, err := OpenVfsStore(t.TempDir())
	require.NoError(t, err)
	defer v.Close()

	id, err := v.IndexBlob("/blobs/large.bin")
	require.NoError(t, err)

	require.NoError(t, v.RemoveIndex("/blobs/large.bin"))

	_, ok := v.PathForIndex(id)
	require.False(t, ok)
}
