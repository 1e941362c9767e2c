package setup

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// SupervisorGateway abstracts the host service supervisor. The orchestrator
// drives it as an opaque capability, which keeps the sequencing logic
// testable with a fake recording calls and simulating failures.
type SupervisorGateway interface {
	// Available reports whether the supervisor is present and active on
	// this host.
	Available() bool
	// Stop stops the managed unit.
	Stop(ctx context.Context) error
	// Start starts the managed unit and returns any status text produced.
	Start(ctx context.Context) (string, error)
	// ReloadDefinitions asks the supervisor to re-read unit files.
	// Safe to call when nothing changed.
	ReloadDefinitions(ctx context.Context) error
}

// defaultSystemctlTimeout bounds individual systemctl invocations.
const defaultSystemctlTimeout = 30 * time.Second

// SystemctlGateway drives systemd through the systemctl binary, scoped to
// the system or user instance depending on the install mode.
type SystemctlGateway struct {
	// UnitName is the unit operated on, without the .service suffix.
	UnitName string
	// Mode selects between the system and --user systemctl scope.
	Mode InstallMode
	// SystemctlPath is the path to the systemctl binary.
	SystemctlPath string
	// Timeout bounds each systemctl invocation.
	Timeout time.Duration
}

// NewSystemctlGateway creates a gateway for the named unit in the scope
// matching the install mode.
func NewSystemctlGateway(unitName string, mode InstallMode) *SystemctlGateway {
	return &SystemctlGateway{
		UnitName:      unitName,
		Mode:          mode,
		SystemctlPath: "systemctl",
		Timeout:       defaultSystemctlTimeout,
	}
}

// Available reports whether systemctl is on PATH and systemd is the running
// init system.
func (g *SystemctlGateway) Available() bool {
	if _, err := exec.LookPath(g.SystemctlPath); err != nil {
		return false
	}

	_, err := os.Stat("/run/systemd/system")

	return err == nil
}

// Stop stops the unit.
func (g *SystemctlGateway) Stop(ctx context.Context) error {
	_, err := g.execSystemctl(ctx, "stop", g.UnitName)
	return err
}

// Start starts the unit.
func (g *SystemctlGateway) Start(ctx context.Context) (string, error) {
	return g.execSystemctl(ctx, "start", g.UnitName)
}

// ReloadDefinitions re-reads unit files in the gateway's scope.
func (g *SystemctlGateway) ReloadDefinitions(ctx context.Context) error {
	_, err := g.execSystemctl(ctx, "daemon-reload")
	return err
}

// execSystemctl runs systemctl with the scope flag prepended for user
// installs and returns its stdout.
func (g *SystemctlGateway) execSystemctl(ctx context.Context, args ...string) (string, error) {
	if g.Mode == ModeUser {
		args = append([]string{"--user"}, args...)
	}

	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, g.SystemctlPath, args...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w (stderr: %s)", err, stderr.String())
	}

	return stdout.String(), nil
}
