// Package storage persists replays in a pebble database. Every replay is
// validated on the way in and stored normalized as MessagePack under a
// time-ordered KSUID.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"

	"github.com/ssargent/gdr/pkg/codec"
	"github.com/ssargent/gdr/pkg/logger"
	"github.com/ssargent/gdr/pkg/replay"
)

var (
	keyPrefix = []byte("replay/")
	// keyPrefix with its last byte incremented, the exclusive upper bound of a scan
	keyLimit = []byte("replay0")
)

// Entry describes one stored replay
type Entry struct {
	ID        ksuid.KSUID `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Size      int         `json:"size"`
}

// Archive stores replays keyed by KSUID
type Archive struct {
	db     *pebble.DB
	codec  *codec.ReplayCodec
	write  *pebble.WriteOptions
	log    logrus.FieldLogger
	closed atomic.Bool
}

type options struct {
	fs   vfs.FS
	sync bool
	log  logrus.FieldLogger
}

// Option configures an Archive
type Option func(*options)

// WithFS runs the archive on the given filesystem. vfs.NewMem() gives an
// in-memory archive.
func WithFS(fs vfs.FS) Option {
	return func(o *options) { o.fs = fs }
}

// WithSync makes every write wait for the WAL to reach disk
func WithSync(sync bool) Option {
	return func(o *options) { o.sync = sync }
}

// WithLogger sets the logger used for archive operations
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// Open opens or creates an archive at path
func Open(path string, c *codec.ReplayCodec, opts ...Option) (*Archive, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	pebbleOpts := &pebble.Options{}
	if o.fs != nil {
		pebbleOpts.FS = o.fs
	}

	a, err := OpenWithOptions(path, c, pebbleOpts)
	if err != nil {
		return nil, err
	}
	if o.sync {
		a.write = pebble.Sync
	}
	if o.log != nil {
		a.log = o.log
	}
	return a, nil
}

// OpenWithOptions opens an archive with explicit pebble options
func OpenWithOptions(path string, c *codec.ReplayCodec, pebbleOpts *pebble.Options) (*Archive, error) {
	if c == nil {
		c = codec.NewReplayCodec()
	}

	db, err := pebble.Open(path, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive at %s: %w", path, err)
	}

	return &Archive{
		db:    db,
		codec: c,
		write: pebble.NoSync,
		log:   logger.Discard(),
	}, nil
}

// ParseID parses the string form of a replay id
func ParseID(s string) (ksuid.KSUID, error) {
	id, err := ksuid.Parse(s)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

// Create stores a replay under a new id
func (a *Archive) Create(r *replay.Replay) (ksuid.KSUID, error) {
	data, err := a.codec.Encode(r, codec.FormatBinary)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("failed to encode replay: %w", err)
	}
	return a.put(data)
}

// Import validates a payload in either encoding and stores it normalized
func (a *Archive) Import(data []byte) (ksuid.KSUID, *replay.Replay, error) {
	r, err := a.codec.Decode(data)
	if err != nil {
		return ksuid.Nil, nil, err
	}

	id, err := a.Create(r)
	if err != nil {
		return ksuid.Nil, nil, err
	}
	return id, r, nil
}

func (a *Archive) put(data []byte) (ksuid.KSUID, error) {
	if a.closed.Load() {
		return ksuid.Nil, ErrClosed
	}

	id := ksuid.New()
	if err := a.db.Set(key(id), data, a.write); err != nil {
		return ksuid.Nil, fmt.Errorf("failed to store replay: %w", err)
	}

	a.log.WithFields(logrus.Fields{"id": id.String(), "size": len(data)}).Debug("stored replay")
	return id, nil
}

// Read returns the stored MessagePack payload of a replay
func (a *Archive) Read(id ksuid.KSUID) ([]byte, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}

	value, closer, err := a.db.Get(key(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrReplayNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read replay %s: %w", id, err)
	}
	defer closer.Close()

	// value is only valid until closer is closed
	data := make([]byte, len(value))
	copy(data, value)
	return data, nil
}

// Get returns a stored replay with its inputs
func (a *Archive) Get(id ksuid.KSUID) (*replay.Replay, error) {
	data, err := a.Read(id)
	if err != nil {
		return nil, err
	}
	return a.codec.Decode(data)
}

// Header returns a stored replay without its inputs
func (a *Archive) Header(id ksuid.KSUID) (*replay.Replay, error) {
	data, err := a.Read(id)
	if err != nil {
		return nil, err
	}
	return a.codec.DecodeHeader(data)
}

// Update replaces the replay stored under id
func (a *Archive) Update(id ksuid.KSUID, r *replay.Replay) error {
	if err := a.exists(id); err != nil {
		return err
	}

	data, err := a.codec.Encode(r, codec.FormatBinary)
	if err != nil {
		return fmt.Errorf("failed to encode replay: %w", err)
	}
	if err := a.db.Set(key(id), data, a.write); err != nil {
		return fmt.Errorf("failed to update replay %s: %w", id, err)
	}
	return nil
}

// Delete removes the replay stored under id
func (a *Archive) Delete(id ksuid.KSUID) error {
	if err := a.exists(id); err != nil {
		return err
	}
	if err := a.db.Delete(key(id), a.write); err != nil {
		return fmt.Errorf("failed to delete replay %s: %w", id, err)
	}

	a.log.WithField("id", id.String()).Debug("deleted replay")
	return nil
}

// List returns stored replays oldest first. A limit of zero or less returns
// every entry.
func (a *Archive) List(limit int) ([]Entry, error) {
	entries := []Entry{}
	err := a.scan(func(id ksuid.KSUID, value []byte) bool {
		entries = append(entries, Entry{ID: id, CreatedAt: id.Time(), Size: len(value)})
		return limit <= 0 || len(entries) < limit
	})
	return entries, err
}

// Count returns the number of stored replays
func (a *Archive) Count() (int, error) {
	n := 0
	err := a.scan(func(ksuid.KSUID, []byte) bool {
		n++
		return true
	})
	return n, err
}

// scan calls fn for every stored replay in key order until fn returns false
func (a *Archive) scan(fn func(id ksuid.KSUID, value []byte) bool) error {
	if a.closed.Load() {
		return ErrClosed
	}

	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: keyPrefix,
		UpperBound: keyLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		id, err := ksuid.FromBytes(bytes.TrimPrefix(iter.Key(), keyPrefix))
		if err != nil {
			a.log.WithError(err).Warn("skipping malformed archive key")
			continue
		}
		if !fn(id, iter.Value()) {
			break
		}
	}
	return iter.Error()
}

func (a *Archive) exists(id ksuid.KSUID) error {
	_, err := a.Read(id)
	return err
}

// Close flushes and closes the underlying database
func (a *Archive) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	return a.db.Close()
}

func key(id ksuid.KSUID) []byte {
	k := make([]byte, 0, len(keyPrefix)+len(id))
	k = append(k, keyPrefix...)
	return append(k, id[:]...)
}
