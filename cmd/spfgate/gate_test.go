package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunGateMalformedParamsFailsBeforeOpeningStores(t *testing.T) {
	err := runGate("Read", "not json")
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse params")
}

func TestRunGateAllowedCallPrintsDecisionAndReturnsNil(t *testing.T) {
	setupCommandTestRoot(t)

	var runErr error
	out := captureCommandStdout(t, func() {
		runErr = runGate("Read", `{"path":"/a.txt"}`)
	})
	require.NoError(t, runErr)

	var decision struct {
		Allowed bool   `json:"Allowed"`
		Tool    string `json:"Tool"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &decision))
	require.Equal(t, "Read", decision.Tool)
}

func TestRunGateBlockedCallReturnsError(t *testing.T) {
	setupCommandTestRoot(t)

	var runErr error
	_ = captureCommandStdout(t, func() {
		runErr = runGate("Write", `{"path":"/etc/passwd","content":"pwned"}`)
	})
	require.Error(t, runErr)
	require.Contains(t, runErr.Error(), "blocked:")
}
