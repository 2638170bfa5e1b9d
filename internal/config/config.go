// Package config loads jobreg settings from YAML, dotenv files and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// EnvRegistryFile overrides the registry location from any config file.
	EnvRegistryFile = "JOBREG_REGISTRY_FILE"
	// DefaultRegistryFile is looked up in $HOME when nothing else is set.
	DefaultRegistryFile = "jobreg.db"
)

// Config holds jobreg configuration.
type Config struct {
	// JobRegistry is the path of the registry database.
	JobRegistry string `yaml:"job_registry"`
	// StatusNames overrides the labels shown for job status codes.
	StatusNames map[int]string `yaml:"status_names"`
}

// DefaultConfig returns an empty configuration; the registry path then
// comes from the environment or the home directory.
func DefaultConfig() *Config {
	return &Config{
		StatusNames: map[int]string{},
	}
}

// DefaultPath returns ~/.jobreg/config.yaml, or "" without a home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".jobreg", "config.yaml")
}

// LoadConfig loads configuration from a YAML file. A missing file yields
// the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if cfg.StatusNames == nil {
		cfg.StatusNames = map[int]string{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadEnvFile loads variables from a dotenv file into the process
// environment without overriding variables that are already set.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	for code, name := range c.StatusNames {
		if name == "" {
			return fmt.Errorf("status_names[%d] must not be empty", code)
		}
	}
	return nil
}

// RegistryPath resolves the registry location: the environment wins over
// the config file, which wins over $HOME/jobreg.db.
func (c *Config) RegistryPath() string {
	if p := os.Getenv(EnvRegistryFile); p != "" {
		return p
	}
	if c.JobRegistry != "" {
		return c.JobRegistry
	}
	home := os.Getenv("HOME")
	if home == "" {
		home = "."
	}
	return filepath.Join(home, DefaultRegistryFile)
}

// StatusName returns the configured label for a status code, if any.
func (c *Config) StatusName(code int) (string, bool) {
	name, ok := c.StatusNames[code]
	return name, ok
}
