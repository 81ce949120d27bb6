package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvPutGetDelete(t *testing.T) {
	env, err := OpenEnv(t.TempDir(), "TESTENV")
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })

	_, ok := env.Get("missing")
	require.False(t, ok)

	require.NoError(t, env.Put("k1", "v1"))
	v, ok := env.Get("k1")
	require.True(t, ok)
	require.Equal(t, "v1", v)

	require.NoError(t, env.Put("k1", "v2"))
	v, ok = env.Get("k1")
	require.True(t, ok)
	require.Equal(t, "v2", v)

	existed, err := env.Delete("k1")
	require.NoError(t, err)
	require.True(t, existed)

	existed, err = env.Delete("k1")
	require.NoError(t, err)
	require.False(t, existed)
}

func TestEnvEntryCount(t *testing.T) {
	env, err := OpenEnv(t.TempDir(), "TESTENV")
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })

	n, err := env.EntryCount()
	require.NoError(t, err)
	require.Equal(t, int64(0), n)

	require.NoError(t, env.Put("a", "1"))
	require.NoError(t, env.Put("b", "2"))

	n, err = env.EntryCount()
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestEnvListByPrefix(t *testing.T) {
	env, err := OpenEnv(t.TempDir(), "TESTENV")
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })

	require.NoError(t, env.Put("memory:1", "a"))
	require.NoError(t, env.Put("memory:2", "b"))
	require.NoError(t, env.Put("state:x", "c"))

	keys, err := env.ListByPrefix("memory:")
	require.NoError(t, err)
	require.Equal(t, []string{"memory:1", "memory:2"}, keys)
}

func TestEnvWithLockRunsAgainstUnderlyingConn(t *testing.T) {
	env, err := OpenEnv(t.TempDir(), "TESTENV")
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })

	err = env.WithLock(func(conn *sql.DB) error {
		_, execErr := conn.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)`, "locked", "yes")
		return execErr
	})
	require.NoError(t, err)

	v, ok := env.Get("locked")
	require.True(t, ok)
	require.Equal(t, "yes", v)
}

func TestOpenEnvCreatesDirIfMissing(t *testing.T) {
	dir := t.TempDir() + "/nested/deeper"
	env, err := OpenEnv(dir, "TESTENV")
	require.NoError(t, err)
	defer env.Close()

	require.NoError(t, env.Put("k", "v"))
}
