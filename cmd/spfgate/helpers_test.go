package main

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/spf-labs/spfsmartgate/internal/rootpath"
)

// setupCommandTestRoot points rootpath's cached resolution at an isolated
// temp-dir install root for the duration of one test, the same way the
// vault override is set directly in store-backed command tests elsewhere
// in this codebase's lineage.
func setupCommandTestRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	oldRoot, oldHome := rootpath.RootOverride, rootpath.HomeOverride
	rootpath.RootOverride = root
	rootpath.HomeOverride = root
	t.Cleanup(func() {
		rootpath.RootOverride = oldRoot
		rootpath.HomeOverride = oldHome
	})

	return root
}

// captureCommandStdout redirects os.Stdout for the duration of fn and
// returns everything written to it.
func captureCommandStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("io.Copy: %v", err)
	}
	return buf.String()
}
