package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spf-labs/spfsmartgate/internal/config"
)

func TestConfigStoreSeedIfAbsentSeedsDefaultsOnce(t *testing.T) {
	c, err := OpenConfigStore(t.TempDir())
	require.NoError(t, err)
	defer c.Close()

	cfg, err := c.SeedIfAbsent("/root", "/home/user")
	require.NoError(t, err)
	require.Equal(t, config.CurrentVersion, cfg.Version)

	rules, err := c.ListPathRules()
	require.NoError(t, err)
	require.NotEmpty(t, rules)

	patterns, err := c.ListDangerousPatterns()
	require.NoError(t, err)
	require.NotEmpty(t, patterns)
}

func TestConfigStoreSeedIfAbsentReassertsCompiledPolicyOnReopen(t *testing.T) {
	dir := t.TempDir()

	c1, err := OpenConfigStore(dir)
	require.NoError(t, err)
	cfg, err := c1.SeedIfAbsent("/root", "/home/user")
	require.NoError(t, err)
	cfg.Tiers.Simple.RequiresApproval = false
	require.NoError(t, c1.Save(cfg))
	require.NoError(t, c1.Close())

	c2, err := OpenConfigStore(dir)
	require.NoError(t, err)
	defer c2.Close()

	reasserted, err := c2.SeedIfAbsent("/root", "/home/user")
	require.NoError(t, err)
	require.True(t, reasserted.Tiers.Simple.RequiresApproval, "compiled policy must win over a persisted override")
}

func TestConfigStoreScalarNamespacing(t *testing.T) {
	c, err := OpenConfigStore(t.TempDir())
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.GetScalar("ns", "missing")
	require.False(t, ok)

	require.NoError(t, c.SetScalar("ns", "key", "value"))
	v, ok := c.GetScalar("ns", "key")
	require.True(t, ok)
	require.Equal(t, "value", v)
}

func TestConfigStoreAllowAndBlockPath(t *testing.T) {
	c, err := OpenConfigStore(t.TempDir())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.AllowPath("/root/LIVE/PROJECTS"))
	require.NoError(t, c.BlockPath("/etc"))

	rules, err := c.ListPathRules()
	require.NoError(t, err)
	require.Len(t, rules, 2)
}
