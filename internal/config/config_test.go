package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath_UsesXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "relink", "config.toml"), Path())
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Defaults.Threads)
	assert.Nil(t, cfg.Defaults.MinSize)
	assert.Nil(t, cfg.Defaults.Brace)
	assert.Nil(t, cfg.Defaults.CacheDB)
}

func TestLoad_ReadsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	content := `[defaults]
threads = 8
min_size = "4K"
brace = false
cache_db = "/var/cache/relink/digests.db"
`
	path := filepath.Join(dir, "relink", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.Defaults.Threads)
	assert.Equal(t, 8, *cfg.Defaults.Threads)
	require.NotNil(t, cfg.Defaults.MinSize)
	assert.Equal(t, "4K", *cfg.Defaults.MinSize)
	require.NotNil(t, cfg.Defaults.Brace)
	assert.False(t, *cfg.Defaults.Brace)
	require.NotNil(t, cfg.Defaults.CacheDB)
	assert.Equal(t, "/var/cache/relink/digests.db", *cfg.Defaults.CacheDB)
}

func TestLoad_PartialFileLeavesOthersUnset(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "relink", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("[defaults]\nthreads = 4\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.Defaults.Threads)
	assert.Equal(t, 4, *cfg.Defaults.Threads)
	assert.Nil(t, cfg.Defaults.MinSize)
	assert.Nil(t, cfg.Defaults.Brace)
}

func TestLoad_MalformedFileErrors(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "relink", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("[defaults\nthreads ="), 0o644))

	_, err := Load()
	assert.Error(t, err)
}
