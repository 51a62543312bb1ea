// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/gdr/pkg/codec"
	"github.com/ssargent/gdr/pkg/replay"
	"github.com/ssargent/gdr/pkg/storage"
)

// IReplayArchive defines the replay archive operations the server uses
type IReplayArchive interface {
	Create(r *replay.Replay) (ksuid.KSUID, error)
	Read(id ksuid.KSUID) ([]byte, error)
	Delete(id ksuid.KSUID) error
	List(limit int) ([]storage.Entry, error)
	Count() (int, error)
	Close() error
}

// ArchiveFactory opens replay archives
type ArchiveFactory interface {
	// OpenArchive opens the archive stored under dataDir
	OpenArchive(dataDir string, c *codec.ReplayCodec, opts ...storage.Option) (IReplayArchive, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves the API until ctx is cancelled
	StartServer(ctx context.Context, archive IReplayArchive, c *codec.ReplayCodec, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
