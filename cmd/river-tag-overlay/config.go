package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Koboldthegreat/river-tag-overlay/internal/config"
)

var configOpts struct {
	format string
	write  string
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration river-tag-overlay would run with: defaults,
overlaid with the config file, overlaid with any flags given.

The output is a valid config file, so it can seed a new one:

  river-tag-overlay config > ~/.config/river-tag-overlay/config.toml

Use --write to save it directly; the format follows the file extension.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().StringVar(&configOpts.format, "format", string(config.FormatTOML),
		"Output format (toml, yaml)")
	configCmd.Flags().StringVar(&configOpts.write, "write", "",
		"Write the configuration to this path instead of stdout")
}

func runConfig(cmd *cobra.Command, args []string) error {
	if configOpts.write != "" {
		if err := cfg.Save(configOpts.write); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		logger.Info("configuration written", "path", configOpts.write)
		return nil
	}

	data, err := cfg.Marshal(config.Format(configOpts.format))
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
