package setup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/moghtech/periphery-setup/internal/logger"
)

// errSetupAlreadyRunning guards against two installer runs racing on the
// same paths and unit.
var errSetupAlreadyRunning = errors.New("the installer is already running")

const (
	// markerFilename marks that the installer is running right now to
	// avoid parallel execution.
	markerFilename = "periphery-setup-marker.bin"

	// setupExecutable is this installer's process name, used for
	// stale-marker recovery.
	setupExecutable = "periphery-setup"

	// markerLifetime is the period after which a marker is considered
	// stale and checked against live processes.
	markerLifetime = 10 * time.Minute
)

// runMarker implements process-level mutual exclusion through a marker file
// in the temp directory.
type runMarker struct {
	path string
}

func newRunMarker() *runMarker {
	return &runMarker{path: filepath.Join(os.TempDir(), markerFilename)}
}

// acquire creates the marker file, failing if another run is active.
func (m *runMarker) acquire(ctx context.Context) error {
	if m.isActive(ctx) {
		return errSetupAlreadyRunning
	}

	marker, err := os.Create(m.path)
	if err != nil {
		return err
	}

	return marker.Close()
}

// release removes the marker file.
func (m *runMarker) release(ctx context.Context) {
	if _, err := os.Stat(m.path); err == nil {
		if err = os.Remove(m.path); err != nil {
			logger.Warnf(ctx, "Unable to remove run marker: %v", err)
		}
	}
}

// isActive checks presence of the marker file and attempts recovery if it
// looks stale.
func (m *runMarker) isActive(ctx context.Context) bool {
	fileInfo, err := os.Stat(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false
		}

		logger.Warnf(ctx, "Unable to read run marker: %v", err)

		return false
	}

	if time.Since(fileInfo.ModTime()) <= markerLifetime {
		return true
	}

	logger.Info(ctx, "The run marker is stale, checking for a live installer process")

	running, err := anotherSetupProcessRunning()
	if err != nil || running {
		return true
	}

	if err = os.Remove(m.path); err != nil {
		return true
	}

	return false
}

// anotherSetupProcessRunning reports whether an installer process other than
// this one is alive.
func anotherSetupProcessRunning() (bool, error) {
	processList, err := ps.Processes()
	if err != nil {
		return false, err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == setupExecutable {
			return true, nil
		}
	}

	return false, nil
}
