package setup

import "os"

const (
	// ServiceName is the systemd unit name the installer manages.
	ServiceName = "periphery"

	// BinaryName is the installed executable name.
	BinaryName = "periphery"

	// ConfigFilename is the name of the periphery config file.
	ConfigFilename = "periphery.config.toml"

	// UnitFilename is the name of the systemd service file.
	UnitFilename = "periphery.service"

	// UnitDescription is the Description field of the generated unit.
	UnitDescription = "Agent to connect with Komodo Core"

	// Release binary names per architecture.
	binaryX8664   = "periphery-x86_64"
	binaryAarch64 = "periphery-aarch64"

	// DefaultBinaryMode is applied to the installed executable.
	DefaultBinaryMode os.FileMode = 0o755

	// DefaultFileMode is applied to generated config and unit files.
	DefaultFileMode os.FileMode = 0o644

	// DefaultDirMode is applied to directories created by the installer.
	DefaultDirMode os.FileMode = 0o755
)
