// Package config loads litereader settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/FocuswithJustin/litereader/core/sqlite"
	"github.com/FocuswithJustin/litereader/internal/logging"
)

// EnvConfig names the environment variable that points at a config file.
const EnvConfig = "LITEREADER_CONFIG"

// Config holds the settings a command runs with.
type Config struct {
	CacheSize int64  `yaml:"cache_size"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Output    string `yaml:"output"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		CacheSize: sqlite.DefaultCacheSize,
		LogLevel:  "warn",
		LogFormat: "text",
		Output:    "text",
	}
}

var userConfigDir = os.UserConfigDir

// DefaultPath returns the config file consulted when neither the flag nor
// $LITEREADER_CONFIG names one.
func DefaultPath() (string, error) {
	dir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "litereader", "config.yaml"), nil
}

// LoadConfig reads the config file and overlays it on the defaults.
// configOverride wins over $LITEREADER_CONFIG. A file named either way must
// exist; a missing file at the default location just yields the defaults.
func LoadConfig(configOverride string) (*Config, error) {
	cfg := Default()

	cfgPath := configOverride
	if cfgPath == "" {
		cfgPath = os.Getenv(EnvConfig)
	}
	explicit := cfgPath != ""

	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		cfgPath = p
	}

	f, err := os.Open(cfgPath)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config %s: %w", cfgPath, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", cfgPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", cfgPath, err)
	}
	return cfg, nil
}

// Validate checks that every field holds a value the CLI understands.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return err
	}
	switch strings.ToLower(c.Output) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown output format %q", c.Output)
	}
	return nil
}
