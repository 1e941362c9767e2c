package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing URLs.
	cfg := new(Config)

	err := Validate(cfg)
	require.Error(t, err)

	// Bad URL.
	cfg = Default()
	cfg.BinaryBaseURL = "not a url"

	err = Validate(cfg)
	require.Error(t, err)

	// Defaults are valid and a missing timeout is backfilled.
	cfg = Default()
	cfg.Timeout = 0

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		ConfigTemplateURL: "https://mirror.local/periphery.config.toml",
		BinaryBaseURL:     "https://mirror.local/releases",
		ReleaseIndexURL:   "https://mirror.local/releases/latest",
		Timeout:           30 * time.Second,
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ConfigTemplateURL, loaded.ConfigTemplateURL)
	require.Equal(t, cfg.BinaryBaseURL, loaded.BinaryBaseURL)
	require.Equal(t, cfg.ReleaseIndexURL, loaded.ReleaseIndexURL)
	require.Equal(t, cfg.Timeout, loaded.Timeout)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_PartialFileKeepsDefaults ensures fields absent from the file keep defaults.
func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("binary_url: https://mirror.local/releases\n"), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://mirror.local/releases", loaded.BinaryBaseURL)
	require.Equal(t, DefaultConfigTemplateURL, loaded.ConfigTemplateURL)
	require.Equal(t, DefaultReleaseIndexURL, loaded.ReleaseIndexURL)
}
