package runtimeutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultStoreBootstrap_FallsBackWhenEnvUnset(t *testing.T) {
	clearStoreEnv(t)
	b := DefaultStoreBootstrap(1, "./store-data", "localhost:9191", "ENG_MEMORY")
	require.Equal(t, StoreBootstrap{StoreID: 1, DataDir: "./store-data", RaftAddr: "localhost:9191", Engine: "ENG_MEMORY"}, b)
}

func TestDefaultStoreBootstrap_EnvOverridesDefaults(t *testing.T) {
	clearStoreEnv(t)
	t.Setenv("DINGO_STORE_ID", "7")
	t.Setenv("DINGO_STORE_DATA_DIR", "/var/lib/store")
	t.Setenv("DINGO_STORE_RAFT_ADDR", "10.0.0.1:9191")
	t.Setenv("DINGO_STORE_ENGINE", "ENG_RAFT_STORE")

	b := DefaultStoreBootstrap(1, "./store-data", "localhost:9191", "ENG_MEMORY")
	require.Equal(t, StoreBootstrap{
		StoreID: 7, DataDir: "/var/lib/store", RaftAddr: "10.0.0.1:9191", Engine: "ENG_RAFT_STORE",
	}, b)
}

func TestDefaultStoreBootstrap_IgnoresInvalidStoreID(t *testing.T) {
	clearStoreEnv(t)
	t.Setenv("DINGO_STORE_ID", "not-a-number")
	b := DefaultStoreBootstrap(1, "./store-data", "localhost:9191", "ENG_MEMORY")
	require.Equal(t, uint64(1), b.StoreID, "an unparsable id must not override the caller's default")
}

func TestSplitEnvLine(t *testing.T) {
	key, val, ok := splitEnvLine(`DINGO_STORE_DATA_DIR="/var/lib/store"`)
	require.True(t, ok)
	require.Equal(t, "DINGO_STORE_DATA_DIR", key)
	require.Equal(t, "/var/lib/store", val)

	_, _, ok = splitEnvLine("not a valid line")
	require.False(t, ok)
}

func TestLoadServiceEnv_DoesNotOverrideExistingVarsByDefault(t *testing.T) {
	clearStoreEnv(t)
	dir := t.TempDir()
	path := dir + "/store.env"
	require.NoError(t, os.WriteFile(path, []byte("DINGO_STORE_RAFT_ADDR=127.0.0.1:9999\n"), 0o644))

	t.Setenv("STORE_ENV_FILE", path)
	t.Setenv("DINGO_STORE_RAFT_ADDR", "keep-me")

	LoadServiceEnv("store")
	require.Equal(t, "keep-me", os.Getenv("DINGO_STORE_RAFT_ADDR"))
}

func clearStoreEnv(t *testing.T) {
	for _, k := range []string{"DINGO_STORE_ID", "DINGO_STORE_DATA_DIR", "DINGO_STORE_RAFT_ADDR", "DINGO_STORE_ENGINE"} {
		require.NoError(t, os.Unsetenv(k))
	}
}
