package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunInitConfigSeedsDefaults(t *testing.T) {
	setupCommandTestRoot(t)

	out := captureCommandStdout(t, func() {
		require.NoError(t, runInitConfig(false))
	})
	require.Contains(t, out, "seeded with compiled defaults")
}

func TestRunInitConfigWithoutForceFailsWhenAlreadySeeded(t *testing.T) {
	setupCommandTestRoot(t)

	require.NoError(t, runInitConfig(false))
	err := runInitConfig(false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "--force")
}

func TestRunInitConfigWithForceOverwrites(t *testing.T) {
	setupCommandTestRoot(t)

	require.NoError(t, runInitConfig(false))
	require.NoError(t, runInitConfig(true))
}
