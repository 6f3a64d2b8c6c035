package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadParsesChannelsAndActors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	toml := `
nats_url = "nats://localhost:4222"
shm_dir = "/dev/shm"

[channels.main_to_relay]
kind = "shmem"
src = "main"
dst = "relay"
capacity = 4
nbytes = 64

[actors.relay]
name = "relay"
status_slot = 0
`
	require.NoError(t, os.WriteFile(path, []byte(toml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	require.Equal(t, "shmem", cfg.Channels["main_to_relay"].Kind)
	require.Equal(t, 4, cfg.Channels["main_to_relay"].Capacity)
	require.Equal(t, "relay", cfg.Actors["relay"].Name)
}

func TestLoadEnvMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadEnv(filepath.Join(dir, "does-not-exist.env")))
}

func TestStringEnvFallsBackToDefault(t *testing.T) {
	require.Equal(t, "fallback", StringEnv("ALEPHCORE_TEST_UNSET_VAR", "fallback"))
	t.Setenv("ALEPHCORE_TEST_SET_VAR", "value")
	require.Equal(t, "value", StringEnv("ALEPHCORE_TEST_SET_VAR", "fallback"))
}
