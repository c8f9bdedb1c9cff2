// Package config loads tracklog's YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tracklog/internal/library"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Config represents the complete tracklog configuration.
//
// ActivityLog is a pointer so a missing key and an explicitly empty one can
// differ: missing takes the default path, empty disables the activity log.
type Config struct {
	DB            string    `yaml:"db"`
	ActivityLog   *string   `yaml:"activity_log"`
	DefaultSource string    `yaml:"default_source"`
	Log           LogConfig `yaml:"log"`
}

// DefaultPath returns the conventional config file location,
// ~/.tracklog/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".tracklog", "config.yaml"), nil
}

// Load reads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := setDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads path when the file exists and falls back to the
// default configuration when it does not. Any other read or parse failure
// is still an error.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default()
	}
	return Load(path)
}

// Default returns the configuration used when no file exists.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := setDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ActivityLogPath returns the expanded activity log path, empty when the
// log is disabled.
func (c *Config) ActivityLogPath() string {
	if c.ActivityLog == nil {
		return ""
	}
	return *c.ActivityLog
}

// Validate checks the configuration for values the rest of the system
// would choke on later.
func (c *Config) Validate() error {
	if c.DB == "" {
		return fmt.Errorf("db path cannot be empty")
	}
	if !library.Source(c.DefaultSource).Valid() {
		return fmt.Errorf("unknown default_source %q (valid: %v)", c.DefaultSource, library.Sources())
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// setDefaults fills unspecified fields and expands ~ in paths.
func setDefaults(cfg *Config) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}

	if cfg.DB == "" {
		cfg.DB = filepath.Join(home, ".tracklog", "tracklog.db")
	} else {
		cfg.DB = expandHome(cfg.DB, home)
	}

	if cfg.ActivityLog == nil {
		path := filepath.Join(home, "tracklog.txt")
		cfg.ActivityLog = &path
	} else if *cfg.ActivityLog != "" {
		path := expandHome(*cfg.ActivityLog, home)
		cfg.ActivityLog = &path
	}

	if cfg.DefaultSource == "" {
		cfg.DefaultSource = string(library.SourceXMMS)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return nil
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
