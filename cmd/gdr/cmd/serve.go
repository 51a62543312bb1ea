/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/gdr/pkg/api"
	"github.com/ssargent/gdr/pkg/config"
)

// newServeCmd creates the serve command
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the gdr REST API server on top of the replay archive.

Every route under /api/v1 requires the X-API-Key header. When no API key is
configured, a key is generated for this run and logged.

Examples:
  gdr serve
  gdr serve --port 9000 --bind 0.0.0.0 --api-key mysecretkey`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := sessionFrom(cmd)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("port") {
				rt.cfg.Port, _ = cmd.Flags().GetInt("port")
			}
			if cmd.Flags().Changed("bind") {
				rt.cfg.Bind, _ = cmd.Flags().GetString("bind")
			}
			if cmd.Flags().Changed("api-key") {
				rt.cfg.Security.APIKey, _ = cmd.Flags().GetString("api-key")
			}

			if err := rt.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			apiKey, generated, err := resolveAPIKey(rt.cfg.Security.APIKey)
			if err != nil {
				return err
			}
			if generated {
				rt.log.WithField("api_key", apiKey).Warn("no API key configured, generated one for this run")
			}

			archive, err := rt.openArchive()
			if err != nil {
				return err
			}
			defer archive.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serverConfig := api.ServerConfig{
				Port:            rt.cfg.Port,
				Bind:            rt.cfg.Bind,
				APIKey:          apiKey,
				DefaultFormat:   rt.cfg.DefaultFormat(),
				MaxPayloadBytes: rt.cfg.Codec.MaxPayloadBytes,
				Logger:          rt.log,
			}

			starter := getContainer().GetServerFactory().CreateServerStarter()
			return starter.StartServer(ctx, archive, rt.codec, serverConfig)
		},
	}

	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind to")
	serveCmd.Flags().String("api-key", "", "API key for authentication")
	return serveCmd
}

// resolveAPIKey returns the configured key, or a generated one when the key
// is unset or "auto"
func resolveAPIKey(configured string) (string, bool, error) {
	if configured != "" && configured != "auto" {
		return configured, false, nil
	}
	key, err := config.GenerateSecureKey(32)
	if err != nil {
		return "", false, err
	}
	return key, true, nil
}
