// Package codec provides replay serialization and deserialization for gdr.
//
// The codec converts a replay.Replay to and from two wire encodings that share
// one logical layout: MessagePack (compact, the default) and JSON (readable).
// Decoding detects the encoding on its own, so callers never need to know
// which one a payload uses.
//
// # Wire Layout
//
// A replay is a single object:
//
//	{
//	  "gameVersion": 2.2, "description": "...", "version": 1.0,
//	  "duration": 12.5, "author": "...", "seed": 0, "coins": 0,
//	  "ldm": false, "framerate": 240.0,
//	  "bot":   {"name": "...", "version": "..."},
//	  "level": {"id": 0, "name": "..."},
//	  "inputs": [{"frame": 0, "btn": 1, "2p": false, "down": true}, ...]
//	}
//
// Every key except "framerate" and "inputs" is required. A missing
// "framerate" means 240. Each input needs all four of its keys. Any other key
// belongs to the consumer and is handed to the extension hooks.
//
// # Usage
//
//	c := codec.NewReplayCodec()
//
//	// Encode a replay
//	data, err := c.Encode(r, codec.FormatBinary)
//	if err != nil {
//	    return err
//	}
//
//	// Decode it again, from either encoding
//	decoded, err := c.Decode(data)
//	if err != nil {
//	    return err // not a valid replay
//	}
//
// DecodeHeader skips the inputs entirely, which is much cheaper for callers
// that only need metadata.
//
// # Extensions
//
// Consumers attach their own fields through ReplayExtension and
// InputExtension, passed with WithReplayExtension, WithInputExtension or
// WithExtensions. On decode a hook receives the full object for its entity
// after the known fields are assigned. On encode a hook returns the tree that
// the known fields are written over, so known keys always win. PassThrough
// is a ready-made extension that preserves unrecognized keys in the
// Extension maps of the model.
//
// # Error Handling
//
// Decode never returns a partially populated replay. Every failure wraps one
// of ErrPayloadTooLarge, ErrUnrecognizedEncoding, ErrMalformedStructure,
// ErrInvalidField or ErrInvalidInput, and the message names the offending
// key, for example "invalid replay field: bot.name: missing".
//
// # Thread Safety
//
// ReplayCodec instances are immutable after construction and safe for
// concurrent use, provided the configured extensions are. A single Replay
// must not be mutated while it is being encoded.
package codec
