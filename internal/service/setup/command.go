package setup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/google/renameio/v2"

	"github.com/moghtech/periphery-setup/internal/config"
	"github.com/moghtech/periphery-setup/internal/logger"
)

// errSystemdNotFound is the fatal precondition failure: this installer only
// targets systemd-managed hosts.
var errSystemdNotFound = errors.New("this installer requires systemd and systemd wasn't found")

// Options are inputs accepted by the installer entry point. The command
// line surface is parsed by the CLI layer; by the time they arrive here all
// ambient inputs (home directory, hostname) are explicit values.
type Options struct {
	// Version is the release tag to install, or "latest".
	Version string
	// Mode selects a system-wide or per-user install.
	Mode InstallMode
	// HomeDir is the caller's home directory. Must be non-empty.
	HomeDir string
	// Overrides are the caller-supplied config values.
	Overrides Overrides
	// ForceUnitFile recreates the service file even if it already exists.
	ForceUnitFile bool
	// Sources are the download locations. Nil means the canonical defaults.
	Sources *config.Config
}

// runner holds the collaborators for a single install execution.
// It is intentionally unexported; call Run(ctx, Options) from callers.
type runner struct {
	opts    *Options
	sources *config.Config
	paths   ResolvedPaths
	fetcher *Fetcher
	gateway SupervisorGateway
	marker  *runMarker
}

// Run executes the installer lifecycle and is the public entry point for the
// CLI. Repeated runs converge to the same end state: the binary is replaced
// every time, while an existing config or service file is left untouched.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "periphery-setup")

	r, err := newRunner(opts)
	if err != nil {
		return err
	}

	if err = r.marker.acquire(ctx); err != nil {
		return err
	}

	defer r.marker.release(ctx)

	if err = r.install(ctx); err != nil {
		logger.ErrorKV(ctx, "Install failed", "error", err)
		return err
	}

	logger.Info(ctx, "Finished periphery setup")

	return nil
}

// newRunner resolves paths and wires the default collaborators.
func newRunner(opts *Options) (*runner, error) {
	sources := opts.Sources
	if sources == nil {
		sources = config.Default()
	}

	if err := config.Validate(sources); err != nil {
		return nil, err
	}

	paths, err := ResolvePaths(opts.Mode, opts.HomeDir)
	if err != nil {
		return nil, err
	}

	return &runner{
		opts:    opts,
		sources: sources,
		paths:   paths,
		fetcher: NewFetcher(sources),
		gateway: NewSystemctlGateway(ServiceName, opts.Mode),
		marker:  newRunMarker(),
	}, nil
}

// install runs the install sequence. States are strictly sequential with no
// branching back; the first unrecoverable error halts the remaining steps.
// There is no rollback of already-applied steps.
func (r *runner) install(ctx context.Context) error {
	if !r.gateway.Available() {
		return errSystemdNotFound
	}

	version, err := r.fetcher.ResolveVersion(ctx, r.opts.Version)
	if err != nil {
		return fmt.Errorf("resolve version: %w", err)
	}

	r.logResolved(ctx, version)

	if err = r.replaceBinary(ctx, version); err != nil {
		return fmt.Errorf("replace binary: %w", err)
	}

	if err = r.ensureConfig(ctx); err != nil {
		return fmt.Errorf("ensure config: %w", err)
	}

	if err = r.ensureUnitFile(ctx); err != nil {
		return fmt.Errorf("ensure service file: %w", err)
	}

	r.startService(ctx)

	return nil
}

// logResolved reports the effective inputs for operator visibility. It has
// no decision impact.
func (r *runner) logResolved(ctx context.Context, version string) {
	logger.InfoKV(ctx, "Resolved install configuration",
		"version", version,
		"mode", r.opts.Mode,
		"home_dir", r.paths.Home,
		"bin_dir", r.paths.BinaryDir,
		"config_dir", r.paths.ConfigDir,
		"service_file_dir", r.paths.UnitDir)
}

// replaceBinary installs the release binary, replacing any previous one.
// Ordering invariant: stop the service before deleting the binary, and
// delete before writing, so the running process is never replaced in place
// and a failed download cannot leave mixed content under the final name.
func (r *runner) replaceBinary(ctx context.Context, version string) error {
	// Best-effort stop; on a fresh host the unit does not exist yet.
	if err := r.gateway.Stop(ctx); err != nil {
		logger.InfoKV(ctx, "Service stop skipped", "error", err)
	}

	if err := os.MkdirAll(r.paths.BinaryDir, DefaultDirMode); err != nil {
		return err
	}

	binaryPath := r.paths.BinaryPath()
	if _, err := os.Stat(binaryPath); err == nil {
		if err = os.Remove(binaryPath); err != nil {
			return err
		}
	}

	binaryURL := r.fetcher.BinaryURL(version)
	logger.InfoKV(ctx, "Downloading binary", "url", binaryURL)

	data, err := r.fetcher.FetchBytes(ctx, binaryURL)
	if err != nil {
		return err
	}

	// go-update expects the target to exist before applying.
	placeholder, err := os.Create(binaryPath)
	if err != nil {
		return err
	}

	if err = placeholder.Close(); err != nil {
		return err
	}

	applyOptions := goupdate.Options{
		TargetPath: binaryPath,
		TargetMode: DefaultBinaryMode,
	}
	if err = goupdate.Apply(bytes.NewReader(data), applyOptions); err != nil {
		return err
	}

	// Nothing useful remains in the backup after a forced replace.
	oldBinaryPath := binaryPath + ".old"
	if _, err = os.Stat(oldBinaryPath); err == nil {
		_ = os.Remove(oldBinaryPath)
	}

	logger.InfoKV(ctx, "Installed binary", "path", binaryPath)

	return nil
}

// ensureConfig writes the config file unless one is already present.
// First successful write wins; user edits are never clobbered.
func (r *runner) ensureConfig(ctx context.Context) error {
	configPath := r.paths.ConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		logger.InfoKV(ctx, "Config already exists, skipping", "path", configPath)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	logger.InfoKV(ctx, "Creating config", "path", configPath)

	// The directory must exist before the write.
	if err := os.MkdirAll(r.paths.ConfigDir, DefaultDirMode); err != nil {
		return err
	}

	template, err := r.fetcher.FetchText(ctx, r.sources.ConfigTemplateURL)
	if err != nil {
		return err
	}

	rendered := RenderConfig(template, r.opts.Mode, r.paths.Home, r.opts.Overrides)

	return renameio.WriteFile(configPath, []byte(rendered), DefaultFileMode)
}

// ensureUnitFile writes the service file unless one is already present,
// or recreates it when forced, then asks systemd to re-read unit files.
func (r *runner) ensureUnitFile(ctx context.Context) error {
	unitPath := r.paths.UnitPath()

	if _, err := os.Stat(unitPath); err == nil {
		if !r.opts.ForceUnitFile {
			logger.InfoKV(ctx, "Service file already exists, skipping", "path", unitPath)
			return nil
		}

		logger.InfoKV(ctx, "Deleting existing service file", "path", unitPath)

		if err = os.Remove(unitPath); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	logger.InfoKV(ctx, "Creating service file", "path", unitPath)

	if err := os.MkdirAll(r.paths.UnitDir, DefaultDirMode); err != nil {
		return err
	}

	unit := UnitDefinition(r.paths.Home, r.paths.BinaryPath(), r.paths.ConfigPath(), UnitDescription)
	if err := renameio.WriteFile(unitPath, []byte(unit), DefaultFileMode); err != nil {
		return err
	}

	if err := r.gateway.ReloadDefinitions(ctx); err != nil {
		logger.WarnKV(ctx, "Reloading unit definitions failed", "error", err)
	}

	return nil
}

// startService starts the unit and reports the outcome. A start failure is
// surfaced to the operator but does not fail the run: the artifacts are
// installed and the operator can start the unit manually.
func (r *runner) startService(ctx context.Context) {
	logger.Info(ctx, "Starting periphery")

	status, err := r.gateway.Start(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Starting periphery failed", "error", err)
	} else if status != "" {
		logger.Info(ctx, status)
	}

	scope := ""
	if r.opts.Mode == ModeUser {
		scope = " --user"
	}

	logger.Infof(ctx, "Note. Use \"systemctl%s status periphery\" to make sure periphery is running", scope)
	logger.Infof(ctx, "Note. Use \"systemctl%s enable periphery\" to have periphery start on system boot", scope)
}
