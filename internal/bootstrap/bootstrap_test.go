package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spf-labs/spfsmartgate/internal/config"
)

func TestLoadEnvReadsAllThreeVariables(t *testing.T) {
	t.Setenv("SPF_ROOT", "/custom/root")
	t.Setenv("SPF_RAG_PATH", "/custom/rag")
	t.Setenv("BRAVE_API_KEY", "secret-key")

	env := LoadEnv()
	require.Equal(t, "/custom/root", env.Root)
	require.Equal(t, "/custom/rag", env.RagPath)
	require.Equal(t, "secret-key", env.BraveAPIKey)
}

func TestConfigFilePathIsRootScoped(t *testing.T) {
	require.Equal(t, "/root/spfgate.toml", ConfigFilePath("/root"))
}

func TestLoadFileMissingReturnsZeroValue(t *testing.T) {
	fc, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Nil(t, fc.EnforceMode)
	require.Nil(t, fc.MaxWriteSize)
	require.Nil(t, fc.RagPath)
}

func TestLoadFileDecodesPresentOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spfgate.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
enforce_mode = "soft"
max_write_size = 50000
rag_path = "/opt/spf-rag"
`), 0o644))

	fc, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "soft", *fc.EnforceMode)
	require.Equal(t, uint64(50000), *fc.MaxWriteSize)
	require.Equal(t, "/opt/spf-rag", *fc.RagPath)
}

func TestLoadFileMalformedTOMLReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spfgate.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is not valid toml ["), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestApplyOverlayCannotWeakenCompiledPolicy(t *testing.T) {
	cfg := config.Default("/root", "/home/user")
	cfg.Tiers.Critical.RequiresApproval = false

	soft := "soft"
	fc := FileConfig{EnforceMode: &soft}

	out := ApplyOverlay(cfg, fc)
	require.Equal(t, config.Soft, out.EnforceMode)
	require.True(t, out.Tiers.Critical.RequiresApproval, "ReassertCompiledPolicy must win over any weakening")
}

func TestApplyOverlayAppliesMaxWriteSize(t *testing.T) {
	cfg := config.Default("/root", "/home/user")
	size := uint64(123456)
	fc := FileConfig{MaxWriteSize: &size}

	out := ApplyOverlay(cfg, fc)
	require.Equal(t, size, out.MaxWriteSize)
}

func TestApplyOverlayIgnoresUnknownEnforceMode(t *testing.T) {
	cfg := config.Default("/root", "/home/user")
	original := cfg.EnforceMode

	bogus := "turbo"
	fc := FileConfig{EnforceMode: &bogus}

	out := ApplyOverlay(cfg, fc)
	require.Equal(t, original, out.EnforceMode)
}

func TestRagSubprocessPathPriorityOrder(t *testing.T) {
	ragPath := "/opt/overlay-rag"

	require.Equal(t, "/env/rag", RagSubprocessPath(Env{RagPath: "/env/rag"}, FileConfig{RagPath: &ragPath}, "/root"))
	require.Equal(t, "/opt/overlay-rag", RagSubprocessPath(Env{}, FileConfig{RagPath: &ragPath}, "/root"))
	require.Equal(t, "/root/LIVE/BIN/spf-rag", RagSubprocessPath(Env{}, FileConfig{}, "/root"))
}

func TestWatchInvokesOnReloadOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spfgate.toml")
	require.NoError(t, os.WriteFile(path, []byte("enforce_mode = \"max\"\n"), 0o644))

	reloaded := make(chan struct{}, 1)
	w, err := Watch(path, func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("enforce_mode = \"soft\"\n"), 0o644))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("expected onReload to fire after writing to the watched file")
	}
}
