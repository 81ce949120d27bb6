package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCalculateMalformedParamsFailsBeforeOpeningStores(t *testing.T) {
	err := runCalculate("Read", "not json")
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse params")
}

func TestRunCalculatePrintsComplexityAndTier(t *testing.T) {
	setupCommandTestRoot(t)

	var runErr error
	out := captureCommandStdout(t, func() {
		runErr = runCalculate("Read", `{"path":"/a.txt"}`)
	})
	require.NoError(t, runErr)

	var result struct {
		C    uint64 `json:"c"`
		Tier string `json:"tier"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &result))
	require.NotEmpty(t, result.Tier)
}
