package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds source locations and timing parameters for the installer.
// Every field has a working default; a settings file is only needed when
// installing from a mirror or a fork.
type Config struct {
	// ConfigTemplateURL is where the periphery config template is fetched from.
	ConfigTemplateURL string `yaml:"config_url"`
	// BinaryBaseURL is the base URL release binaries are downloaded from.
	// The version tag and binary name are appended to it.
	BinaryBaseURL string `yaml:"binary_url"`
	// ReleaseIndexURL is the endpoint answering "what is the latest release".
	ReleaseIndexURL string `yaml:"release_index_url"`
	// Timeout is the duration for individual network operations.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigTemplateURL points at the canonical periphery config template.
	DefaultConfigTemplateURL = "https://raw.githubusercontent.com/moghtech/komodo/refs/heads/main/config/periphery.config.toml"

	// DefaultBinaryBaseURL points at the canonical release download location.
	DefaultBinaryBaseURL = "https://github.com/moghtech/komodo/releases/download"

	// DefaultReleaseIndexURL points at the canonical latest-release lookup.
	DefaultReleaseIndexURL = "https://api.github.com/repos/moghtech/komodo/releases/latest"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 60 * time.Second

	// DefaultFilePermissions is the default file permission for settings files.
	DefaultFilePermissions = 0o600
)

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// Default returns a configuration populated with the canonical sources.
func Default() *Config {
	return &Config{
		ConfigTemplateURL: DefaultConfigTemplateURL,
		BinaryBaseURL:     DefaultBinaryBaseURL,
		ReleaseIndexURL:   DefaultReleaseIndexURL,
		Timeout:           DefaultTimeout,
	}
}

// Load reads configuration from the provided path and validates essential fields.
// Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	for name, value := range map[string]string{
		"config_url":        cfg.ConfigTemplateURL,
		"binary_url":        cfg.BinaryBaseURL,
		"release_index_url": cfg.ReleaseIndexURL,
	} {
		if value == "" {
			return fmt.Errorf("%s must be provided", name)
		}

		if _, err := url.ParseRequestURI(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	// Set default timeout if not specified.
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return nil
}
