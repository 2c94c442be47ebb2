// Package main provides the CLI entrypoint for river-tag-overlay.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Koboldthegreat/river-tag-overlay/internal/config"
	"github.com/Koboldthegreat/river-tag-overlay/internal/overlay"
	"github.com/Koboldthegreat/river-tag-overlay/internal/session"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose        bool
		configPath     string
		waitForDisplay bool
		watchConfig    bool
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "river-tag-overlay",
	Short: "Pop-up tag indicator for the river compositor",
	Long: `river-tag-overlay shows a small overlay on an output whenever its tags
change. Each tag is drawn as a square: focused tags are highlighted, tags
with an urgent view are marked, and tags holding views show an inner square.
The overlay hides itself once the tags stop changing.

Settings are read from ~/.config/river-tag-overlay/config.toml (or a YAML
file given with --config) and can be overridden with flags. Colours are
written as 0xRRGGBB or 0xRRGGBBAA.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Setup logging
		setupLogger()

		// Load configuration, then apply the flags the user set
		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := applyOverrides(cmd.Flags(), cfg); err != nil {
			return fmt.Errorf("invalid flag: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return nil
	},
	RunE: runOverlay,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/river-tag-overlay/config.toml)")
	registerConfigFlags(rootCmd.PersistentFlags())

	rootCmd.Flags().BoolVar(&globalOpts.waitForDisplay, "wait-for-display", false,
		"Wait for the compositor socket to appear instead of failing")
	rootCmd.Flags().BoolVar(&globalOpts.watchConfig, "watch-config", true,
		"Reload the config file when it changes")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelInfo
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

func runOverlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := session.Connect(ctx, globalOpts.waitForDisplay, logger)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("failed to connect to compositor: %w", err)
	}

	app := overlay.New(cfg, sess, logger)
	sess.SetHandler(app.Handle)

	if globalOpts.watchConfig {
		watcher := newConfigWatcher(cmd, app)
		watcher.Start(ctx)
		defer watcher.Stop()
	}

	logger.Info("river-tag-overlay started", "version", version)
	runErr := app.Run(ctx, sess)

	// Outputs go first, then the globals and the connection.
	if err := app.Close(); err != nil {
		logger.Warn("error tearing down outputs", "error", err)
	}
	if err := sess.Close(); err != nil {
		logger.Warn("error closing connection", "error", err)
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("river-tag-overlay stopped")
	return nil
}

// newConfigWatcher reloads the config file into app on change. Flags given on
// the command line keep overriding the file.
func newConfigWatcher(cmd *cobra.Command, app *overlay.App) *config.Watcher {
	watcher := config.NewWatcher(globalOpts.configPath, logger)
	watcher.SetReloadCallback(func(newCfg *config.Config) {
		if err := reloadConfig(cmd.Flags(), newCfg); err != nil {
			logger.Warn("ignoring reloaded config", "error", err)
			return
		}
		app.Reload(newCfg)
	})
	return watcher
}
