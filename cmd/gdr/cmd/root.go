/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssargent/gdr/pkg/api"
	"github.com/ssargent/gdr/pkg/codec"
	"github.com/ssargent/gdr/pkg/config"
	"github.com/ssargent/gdr/pkg/di"
	"github.com/ssargent/gdr/pkg/logger"
	"github.com/ssargent/gdr/pkg/storage"
)

var container *di.Container

// SetContainer injects the dependency container used by commands
func SetContainer(c *di.Container) {
	container = c
}

func getContainer() *di.Container {
	if container == nil {
		container = di.NewContainer()
	}
	return container
}

// session is the state every command shares, resolved once per invocation
type session struct {
	configPath string
	cfg        *config.Config
	log        *logrus.Logger
	codec      *codec.ReplayCodec
}

type sessionKey struct{}

var errNoSession = errors.New("command session not initialized")

func sessionFrom(cmd *cobra.Command) (*session, error) {
	rt, ok := cmd.Context().Value(sessionKey{}).(*session)
	if !ok {
		return nil, errNoSession
	}
	return rt, nil
}

// NewRootCmd builds the gdr command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gdr",
		Short: "gdr - portable replay format tools",
		Long: `gdr converts, inspects and archives recorded-input replays.

A replay is stored either as MessagePack (binary, .gdr) or as JSON (text,
.gdr.json). Every command auto-detects the encoding of its input.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rt, err := resolveSession(cmd)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), sessionKey{}, rt))
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default is $HOME/.config/gdr/config.yaml)")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory for the replay archive")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newConvertCmd(),
		newInspectCmd(),
		newFrameCmd(),
		newPutCmd(),
		newGetCmd(),
		newListCmd(),
		newDeleteCmd(),
		newInitCmd(),
		newServeCmd(),
		newServiceCmd(),
	)

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// resolveSession loads configuration (file, then environment, then flags)
// and builds the logger and codec from it
func resolveSession(cmd *cobra.Command) (*session, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg, err := config.Resolve(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	opts := append(cfg.CodecOptions(), codec.WithLogger(log))

	return &session{
		configPath: configPath,
		cfg:        cfg,
		log:        log,
		codec:      codec.NewReplayCodec(opts...),
	}, nil
}

// openArchive opens the archive in the configured data directory
func (rt *session) openArchive() (api.IReplayArchive, error) {
	archive, err := getContainer().GetArchiveFactory().OpenArchive(
		rt.cfg.DataDir,
		rt.codec,
		storage.WithLogger(rt.log),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return archive, nil
}
