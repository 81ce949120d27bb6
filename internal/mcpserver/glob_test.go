package mcpserver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFixtureTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "top.go"), []byte("package a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "mid.go"), []byte("package a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "b", "deep.go"), []byte("package b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "b", "deep.txt"), []byte("notes"), 0o644))
	return root
}

func TestFilepathGlobSingleDirectoryPattern(t *testing.T) {
	root := writeFixtureTree(t)
	matches, err := filepathGlob(root, "*.go")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(root, "top.go")}, matches)
}

func TestFilepathGlobRecursivePatternMatchesWholeTree(t *testing.T) {
	root := writeFixtureTree(t)
	matches, err := filepathGlob(root, "**/*.go")
	require.NoError(t, err)
	require.Len(t, matches, 3)
	require.Contains(t, matches, filepath.Join(root, "top.go"))
	require.Contains(t, matches, filepath.Join(root, "a", "mid.go"))
	require.Contains(t, matches, filepath.Join(root, "a", "b", "deep.go"))
}

func TestFilepathGlobRecursivePatternExcludesOtherExtensions(t *testing.T) {
	root := writeFixtureTree(t)
	matches, err := filepathGlob(root, "**/*.txt")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(root, "a", "b", "deep.txt")}, matches)
}

func TestFilepathGlobResultsAreSorted(t *testing.T) {
	root := writeFixtureTree(t)
	matches, err := filepathGlob(root, "**/*.go")
	require.NoError(t, err)
	for i := 1; i < len(matches); i++ {
		require.LessOrEqual(t, matches[i-1], matches[i])
	}
}
