package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	assert.True(t, strings.HasSuffix(path, filepath.Join("napm", "config.toml")), path)
}

func TestHistoryPath(t *testing.T) {
	path := HistoryPath()
	assert.True(t, strings.HasSuffix(path, filepath.Join("napm", "history.db")), path)
}

func TestRootRelativeDefaults(t *testing.T) {
	cfg := Default()
	cfg.General.Root = "/mnt/target"

	assert.Equal(t, "/mnt/target/var/lib/napm/local.db", cfg.DBPath())
	assert.Equal(t, "/mnt/target/var/lib/napm/journal", cfg.JournalPath())
	assert.Equal(t, "/mnt/target/var/lib/napm/backup", cfg.BackupDir())
	assert.Equal(t, "/mnt/target/var/lib/napm/db.lck", cfg.LockPath())
	assert.Equal(t, "/mnt/target/var/cache/napm/pkg", cfg.CacheDir())
	assert.Equal(t, "/mnt/target/var/lib/napm/sync", cfg.RepoDir())
}

func TestPathOverrides(t *testing.T) {
	cfg := Default()
	cfg.Paths.Database = "/elsewhere/local.db"
	cfg.Paths.Cache = "/fast-disk/cache"

	assert.Equal(t, "/elsewhere/local.db", cfg.DBPath())
	assert.Equal(t, "/fast-disk/cache", cfg.CacheDir())
	// Unset paths still follow the root.
	assert.Equal(t, "/var/lib/napm/journal", cfg.JournalPath())
}
