package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	appName    = "napm"
	configFile = "config.toml"
)

// ConfigDir returns the configuration directory for napm.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), configFile)
}

// HistoryPath returns the full path to the transaction history database.
func HistoryPath() string {
	return filepath.Join(xdg.DataHome, appName, "history.db")
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0o755)
}

// DBPath returns the path of the local package database.
func (c *Config) DBPath() string {
	return c.path(c.Paths.Database, "var/lib/napm/local.db")
}

// JournalPath returns the path of the transaction journal.
func (c *Config) JournalPath() string {
	return c.path(c.Paths.Journal, "var/lib/napm/journal")
}

// BackupDir returns the directory transaction backups are staged in.
func (c *Config) BackupDir() string {
	return c.path(c.Paths.Backup, "var/lib/napm/backup")
}

// LockPath returns the path of the transaction lock file.
func (c *Config) LockPath() string {
	return c.path(c.Paths.Lock, "var/lib/napm/db.lck")
}

// CacheDir returns the directory extracted package contents live in.
func (c *Config) CacheDir() string {
	return c.path(c.Paths.Cache, "var/cache/napm/pkg")
}

// RepoDir returns the directory holding synced repository indexes.
func (c *Config) RepoDir() string {
	return c.path(c.Paths.Repos, "var/lib/napm/sync")
}

// path resolves an override or a root-relative default.
func (c *Config) path(override, def string) string {
	if override != "" {
		return override
	}
	return filepath.Join(c.General.Root, def)
}
