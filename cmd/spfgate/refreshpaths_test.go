package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunRefreshPathsFailsWithoutSeededConfig(t *testing.T) {
	setupCommandTestRoot(t)

	err := runRefreshPaths(false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "init-config")
}

func TestRunRefreshPathsDryRunDoesNotSave(t *testing.T) {
	setupCommandTestRoot(t)
	require.NoError(t, runInitConfig(false))

	s, before, err := openStores()
	require.NoError(t, err)
	s.Close()

	out := captureCommandStdout(t, func() {
		require.NoError(t, runRefreshPaths(true))
	})
	require.Contains(t, out, "dry run — not saved")

	s2, after, err := openStores()
	require.NoError(t, err)
	defer s2.Close()
	require.Equal(t, before.AllowedPaths, after.AllowedPaths)
}

func TestRunRefreshPathsSavesUpdatedLists(t *testing.T) {
	setupCommandTestRoot(t)
	require.NoError(t, runInitConfig(false))

	out := captureCommandStdout(t, func() {
		require.NoError(t, runRefreshPaths(false))
	})
	require.Contains(t, out, "path lists updated")
	require.Contains(t, out, "allowed paths:")
}
