// Package api provides factory implementations for dependency injection
package api

import (
	"context"
	"fmt"
	"os"

	"github.com/ssargent/gdr/pkg/codec"
	"github.com/ssargent/gdr/pkg/storage"
)

// DefaultArchiveFactory is the default implementation of ArchiveFactory
type DefaultArchiveFactory struct{}

// NewArchiveFactory creates a new archive factory
func NewArchiveFactory() ArchiveFactory {
	return &DefaultArchiveFactory{}
}

// OpenArchive creates dataDir if needed and opens the pebble archive in it
func (f *DefaultArchiveFactory) OpenArchive(dataDir string, c *codec.ReplayCodec, opts ...storage.Option) (IReplayArchive, error) {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	archive, err := storage.Open(dataDir, c, opts...)
	if err != nil {
		return nil, err
	}
	return archive, nil
}

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct{}

// NewServerFactory creates a new server factory
func NewServerFactory() ServerFactory {
	return &DefaultServerFactory{}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct{}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(
	ctx context.Context,
	archive IReplayArchive,
	c *codec.ReplayCodec,
	config ServerConfig,
) error {
	return StartServer(ctx, archive, c, config)
}
