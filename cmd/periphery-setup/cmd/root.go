package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moghtech/periphery-setup/internal/config"
	"github.com/moghtech/periphery-setup/internal/logger"
	"github.com/moghtech/periphery-setup/internal/service/setup"
	"github.com/moghtech/periphery-setup/internal/version"
)

var (
	// releaseVersion is the release tag to install.
	releaseVersion string
	// userInstall selects a systemd --user install.
	userInstall bool
	// rootDirectory overrides the periphery root directory.
	rootDirectory string
	// coreAddress is the Komodo Core address for outbound connection.
	coreAddress string
	// connectAs is the server name to connect as.
	connectAs string
	// onboardingKey enables automatic server onboarding into Komodo Core.
	onboardingKey string
	// forceServiceFile recreates the systemd service file even if it already exists.
	forceServiceFile bool
	// configURL overrides the config template source.
	configURL string
	// binaryURL overrides the binary download source.
	binaryURL string
	// settingsPath is an optional YAML file with source locations.
	settingsPath string
	// logLevel controls installer verbosity.
	logLevel string

	// rootCmd represents the base command installing the periphery agent.
	rootCmd = &cobra.Command{
		Use:   "periphery-setup",
		Short: "Install systemd-managed Komodo Periphery.",
		Long: `Installs the periphery agent on this host: downloads the release binary,
creates the config file from the remote template, writes the systemd service
file and starts the service.

Repeated runs are safe: the binary is replaced every time, while an existing
config or service file is left untouched (pass --force-service-file to
recreate the service file).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			sources, err := loadSources(cmd)
			if err != nil {
				return err
			}

			homeDir, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("determine home directory: %w", err)
			}

			mode := setup.ModeSystem
			if userInstall {
				mode = setup.ModeUser
			}

			options := &setup.Options{
				Version:       releaseVersion,
				Mode:          mode,
				HomeDir:       homeDir,
				Overrides:     collectOverrides(cmd),
				ForceUnitFile: forceServiceFile,
				Sources:       sources,
			}

			return setup.Run(ctx, options)
		},
	}
)

// loadSources builds the download locations from the optional settings file
// and flag overrides.
func loadSources(cmd *cobra.Command) (*config.Config, error) {
	sources := config.Default()

	if settingsPath != "" {
		loaded, err := config.Load(settingsPath)
		if err != nil {
			return nil, err
		}

		sources = loaded
	}

	if cmd.Flags().Changed("config-url") {
		sources.ConfigTemplateURL = configURL
	}

	if cmd.Flags().Changed("binary-url") {
		sources.BinaryBaseURL = binaryURL
	}

	return sources, nil
}

// collectOverrides maps flags to config overrides. A value counts as
// supplied only when the flag was set explicitly, with one exception:
// connect-as falls back to the hostname, so the agent always registers
// under a stable name.
func collectOverrides(cmd *cobra.Command) setup.Overrides {
	var overrides setup.Overrides

	if cmd.Flags().Changed("root-directory") {
		overrides.RootDirectory = &rootDirectory
	}

	if cmd.Flags().Changed("core-address") {
		overrides.CoreAddress = &coreAddress
	}

	if connectAs != "" {
		overrides.ConnectAs = &connectAs
	}

	if cmd.Flags().Changed("onboarding-key") {
		overrides.OnboardingKey = &onboardingKey
	}

	return overrides
}

// Execute runs the periphery-setup CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	hostname, _ := os.Hostname()

	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&releaseVersion, "version", "v", "latest",
		"install a specific Komodo version, like 'v2.0.0'")
	rootCmd.Flags().BoolVarP(&userInstall, "user", "u", false,
		"install systemd --user service")
	rootCmd.Flags().StringVarP(&rootDirectory, "root-directory", "r", "",
		"specify a specific periphery root directory")
	rootCmd.Flags().StringVarP(&coreAddress, "core-address", "c", "",
		"specify the Komodo Core address for outbound connection, leave blank to enable inbound connection server")
	rootCmd.Flags().StringVarP(&connectAs, "connect-as", "n", hostname,
		"specify the server name to connect as, defaults to hostname")
	rootCmd.Flags().StringVarP(&onboardingKey, "onboarding-key", "k", "",
		"give an onboarding key for automatic server onboarding into Komodo Core")
	rootCmd.Flags().BoolVar(&forceServiceFile, "force-service-file", false,
		"recreate the systemd service file even if it already exists")
	rootCmd.Flags().StringVar(&configURL, "config-url", config.DefaultConfigTemplateURL,
		"use a custom config url")
	rootCmd.Flags().StringVar(&binaryURL, "binary-url", config.DefaultBinaryBaseURL,
		"use alternate binary source")
	rootCmd.Flags().StringVar(&settingsPath, "settings", "",
		"path to a YAML file with source locations")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info",
		"log level: debug, info, warn, error")
}
