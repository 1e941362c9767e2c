package setup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRunMarker_AcquireRelease covers the single-run guard lifecycle.
func TestRunMarker_AcquireRelease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	marker := &runMarker{path: filepath.Join(t.TempDir(), markerFilename)}

	require.NoError(t, marker.acquire(ctx))

	// A second acquire while the marker is fresh is refused.
	require.ErrorIs(t, marker.acquire(ctx), errSetupAlreadyRunning)

	marker.release(ctx)

	_, err := os.Stat(marker.path)
	require.ErrorIs(t, err, os.ErrNotExist)

	// After release the marker can be taken again.
	require.NoError(t, marker.acquire(ctx))
	marker.release(ctx)
}

// TestRunMarker_MissingIsInactive ensures a missing marker never blocks a run.
func TestRunMarker_MissingIsInactive(t *testing.T) {
	t.Parallel()

	marker := &runMarker{path: filepath.Join(t.TempDir(), "missing.bin")}
	require.False(t, marker.isActive(context.Background()))
}
