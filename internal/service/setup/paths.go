package setup

import (
	"errors"
	"path/filepath"
)

// InstallMode selects between a system-wide and a per-user installation.
// It determines all resolved paths and the systemd scope.
type InstallMode string

const (
	// ModeSystem installs under /usr/local and /etc for all users.
	ModeSystem InstallMode = "system"
	// ModeUser installs under the caller's home directory and uses
	// the systemd user instance.
	ModeUser InstallMode = "user"
)

// ResolvedPaths holds the four filesystem locations derived from the
// install mode. All paths are absolute. They are recomputed on every run
// and never persisted.
type ResolvedPaths struct {
	// Home is the caller's home directory.
	Home string
	// BinaryDir is where the periphery executable is installed.
	BinaryDir string
	// ConfigDir is where the periphery config file lives.
	ConfigDir string
	// UnitDir is where the systemd service file lives.
	UnitDir string
}

// errEmptyHomeDir is returned when no home directory is available.
var errEmptyHomeDir = errors.New("home directory must not be empty")

// ResolvePaths maps an install mode and home directory to the four install
// locations. It performs no filesystem access.
func ResolvePaths(mode InstallMode, homeDir string) (ResolvedPaths, error) {
	if homeDir == "" {
		return ResolvedPaths{}, errEmptyHomeDir
	}

	if mode == ModeUser {
		return ResolvedPaths{
			Home:      homeDir,
			BinaryDir: filepath.Join(homeDir, ".local", "bin"),
			ConfigDir: filepath.Join(homeDir, ".config", "komodo"),
			UnitDir:   filepath.Join(homeDir, ".config", "systemd", "user"),
		}, nil
	}

	return ResolvedPaths{
		Home:      homeDir,
		BinaryDir: "/usr/local/bin",
		ConfigDir: "/etc/komodo",
		UnitDir:   "/etc/systemd/system",
	}, nil
}

// BinaryPath returns the full path of the installed executable.
func (p ResolvedPaths) BinaryPath() string {
	return filepath.Join(p.BinaryDir, BinaryName)
}

// ConfigPath returns the full path of the periphery config file.
func (p ResolvedPaths) ConfigPath() string {
	return filepath.Join(p.ConfigDir, ConfigFilename)
}

// UnitPath returns the full path of the systemd service file.
func (p ResolvedPaths) UnitPath() string {
	return filepath.Join(p.UnitDir, UnitFilename)
}
