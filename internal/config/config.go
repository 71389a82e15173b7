package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the complete napm configuration.
type Config struct {
	General GeneralConfig `toml:"general"`
	Output  OutputConfig  `toml:"output"`
	Paths   PathsConfig   `toml:"paths"`
}

// GeneralConfig contains general napm settings.
type GeneralConfig struct {
	// Root is the filesystem root packages are installed under.
	Root string `toml:"root"`

	// AutoConfirm skips confirmation prompts when true (like -y flag).
	AutoConfirm bool `toml:"auto_confirm"`

	// DryRun shows the plan without executing when true.
	DryRun bool `toml:"dry_run"`

	// CheckSpace verifies free disk space before applying a plan.
	CheckSpace bool `toml:"check_space"`

	// RemoveOrphans offers removal of no-longer-needed dependencies
	// after a remove operation.
	RemoveOrphans bool `toml:"remove_orphans"`

	// LockRetries is how many times to retry taking the transaction
	// lock before giving up.
	LockRetries int `toml:"lock_retries"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	// Color enables colored output (respects NO_COLOR env var).
	Color bool `toml:"color"`

	// Verbose enables detailed output.
	Verbose bool `toml:"verbose"`
}

// PathsConfig overrides the default locations of napm's on-disk state.
// Empty fields fall back to root-relative defaults.
type PathsConfig struct {
	Database string `toml:"database"`
	Journal  string `toml:"journal"`
	Backup   string `toml:"backup"`
	Lock     string `toml:"lock"`
	Cache    string `toml:"cache"`
	Repos    string `toml:"repos"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		General: GeneralConfig{
			Root:          "/",
			AutoConfirm:   false,
			DryRun:        false,
			CheckSpace:    true,
			RemoveOrphans: true,
			LockRetries:   3,
		},
		Output: OutputConfig{
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads the configuration from the default path.
// If the config file doesn't exist, it returns the default configuration.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom loads the configuration from a specific path.
// If the config file doesn't exist, it returns the default configuration.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// ShouldUseColor returns true if colored output should be used.
// Respects the NO_COLOR environment variable.
func (c *Config) ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return c.Output.Color
}
