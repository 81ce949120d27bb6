package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResetCmdStartsFreshSession(t *testing.T) {
	setupCommandTestRoot(t)
	require.NoError(t, runCalculate("Read", `{"path":"/a.txt"}`))

	cmd := resetCmd()
	require.NoError(t, cmd.RunE(cmd, nil))

	s, _, err := openStores()
	require.NoError(t, err)
	defer s.Close()

	sess, err := s.session.Load()
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Zero(t, sess.ActionCount)
}
