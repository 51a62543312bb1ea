/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/gdr/pkg/config"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with a generated API key",
		Long: `Write a configuration file with defaults and a freshly generated API key,
and create the archive data directory.

Examples:
  gdr init
  gdr init --config ./gdr.yaml --data-dir ./replays`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")

			if config.ConfigExists(rt.configPath) && !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration already exists at %s. Use --force to overwrite.\n", rt.configPath)
				return nil
			}

			cfg, err := config.BootstrapConfig(rt.configPath, rt.cfg.DataDir)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✅ gdr initialized\n")
			fmt.Fprintf(out, "Config file: %s\n", rt.configPath)
			fmt.Fprintf(out, "Data directory: %s\n", cfg.DataDir)
			fmt.Fprintf(out, "API key: %s\n", cfg.Security.APIKey)
			fmt.Fprintf(out, "\nYou can now start the server with:\n")
			fmt.Fprintf(out, "  gdr serve --config %s\n", rt.configPath)
			return nil
		},
	}

	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	return initCmd
}
