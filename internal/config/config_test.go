package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "/", cfg.General.Root)
	assert.False(t, cfg.General.AutoConfirm)
	assert.False(t, cfg.General.DryRun)
	assert.True(t, cfg.General.CheckSpace)
	assert.True(t, cfg.General.RemoveOrphans)
	assert.Positive(t, cfg.General.LockRetries)

	assert.True(t, cfg.Output.Color)
	assert.False(t, cfg.Output.Verbose)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.General.Root = "/mnt/target"
	cfg.General.AutoConfirm = true
	cfg.Paths.Cache = "/fast-disk/napm-cache"
	require.NoError(t, cfg.SaveTo(configPath))

	loaded, err := LoadFrom(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/mnt/target", loaded.General.Root)
	assert.True(t, loaded.General.AutoConfirm)
	assert.Equal(t, "/fast-disk/napm-cache", loaded.Paths.Cache)
}

func TestLoadNonExistentConfig(t *testing.T) {
	cfg, err := LoadFrom("/non/existent/path/config.toml")
	require.NoError(t, err, "missing config file should fall back to defaults")
	require.NotNil(t, cfg)
	assert.Equal(t, "/", cfg.General.Root)
}

func TestLoadMalformedConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[general\nroot = "), 0o644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestShouldUseColor(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.ShouldUseColor())

	t.Setenv("NO_COLOR", "1")
	assert.False(t, cfg.ShouldUseColor())
}

func TestShouldUseColorDisabled(t *testing.T) {
	cfg := Default()
	cfg.Output.Color = false
	assert.False(t, cfg.ShouldUseColor())
}
