package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionCmdPrintsBuildVersion(t *testing.T) {
	old := Version
	Version = "1.2.3-test"
	defer func() { Version = old }()

	cmd := versionCmd()
	out := captureCommandStdout(t, func() {
		require.NoError(t, cmd.RunE(cmd, nil))
	})
	require.Contains(t, out, "spfgate 1.2.3-test")
}
