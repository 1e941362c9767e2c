// Package setup installs the periphery agent on a systemd-managed host.
//
// It resolves a release version, downloads the platform binary, materializes
// the config file from a remote template with selective line overrides,
// writes the systemd service file, and starts the unit. Runs are idempotent:
// the binary is replaced every time, while existing config and service files
// are preserved (the latter unless recreation is forced).
package setup
