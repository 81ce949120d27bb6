package config

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func testDefault() Config {
	return Default("/root", "/home/user")
}

func TestTierBoundaries(t *testing.T) {
	cfg := testDefault()

	tier, _ := cfg.TierFor(0)
	require.Equal(t, TierSimple, tier)
	tier, _ = cfg.TierFor(499)
	require.Equal(t, TierSimple, tier)
	tier, _ = cfg.TierFor(500)
	require.Equal(t, TierLight, tier)
	tier, _ = cfg.TierFor(1999)
	require.Equal(t, TierLight, tier)
	tier, _ = cfg.TierFor(2000)
	require.Equal(t, TierMedium, tier)
	tier, _ = cfg.TierFor(9999)
	require.Equal(t, TierMedium, tier)
	tier, _ = cfg.TierFor(10000)
	require.Equal(t, TierCritical, tier)
	tier, _ = cfg.TierFor(math.MaxUint64 - 1)
	require.Equal(t, TierCritical, tier)
}

func TestDefaultFormulaExponents(t *testing.T) {
	cfg := testDefault()
	require.Equal(t, uint32(1), cfg.Formula.BasicPower)
	require.Equal(t, uint32(7), cfg.Formula.DepsPower)
	require.Equal(t, uint32(10), cfg.Formula.ComplexPower)
	require.Equal(t, uint64(10), cfg.Formula.FilesMultiplier)
	require.Equal(t, 40000.0, cfg.Formula.WEff)
}

func TestDefaultEnforceModeIsMax(t *testing.T) {
	cfg := testDefault()
	require.Equal(t, Max, cfg.EnforceMode)
}

func TestBlockedPathsIncludeSystemDirs(t *testing.T) {
	cfg := testDefault()
	require.True(t, cfg.IsPathBlocked("/tmp", false))
	require.True(t, cfg.IsPathBlocked("/tmp/evil.sh", false))
	require.True(t, cfg.IsPathBlocked("/etc/passwd", false))
	require.True(t, cfg.IsPathBlocked("/usr/bin/something", false))
}

func TestTaintedPathAlwaysBlocked(t *testing.T) {
	cfg := testDefault()
	require.True(t, cfg.IsPathBlocked("/home/user/anything", true))
}

func TestReassertCompiledPolicyForcesApproval(t *testing.T) {
	cfg := testDefault()
	cfg.Tiers.Simple.RequiresApproval = false
	cfg.Version = "stale"
	ReassertCompiledPolicy(&cfg)
	require.Equal(t, CurrentVersion, cfg.Version)
	require.True(t, cfg.Tiers.Simple.RequiresApproval)
	require.True(t, cfg.Tiers.Light.RequiresApproval)
	require.True(t, cfg.Tiers.Medium.RequiresApproval)
	require.True(t, cfg.Tiers.Critical.RequiresApproval)
}
