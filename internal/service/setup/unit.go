package setup

import "fmt"

// unitTemplate is the fixed schema of the generated service file.
// Field order matters to keep repeated runs byte-identical.
const unitTemplate = `[Unit]
Description=%s

[Service]
Environment="HOME=%s"
ExecStart=/bin/sh -lc "%s --config-path %s"
Restart=on-failure
TimeoutStartSec=0

[Install]
WantedBy=default.target`

// UnitDefinition composes the systemd service file contents from the
// resolved paths. It performs no I/O; writing the file is the
// orchestrator's responsibility.
func UnitDefinition(homeDir, binaryPath, configPath, description string) string {
	return fmt.Sprintf(unitTemplate, description, homeDir, binaryPath, configPath)
}
