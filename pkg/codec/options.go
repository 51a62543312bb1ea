package codec

import "github.com/sirupsen/logrus"

// DefaultMaxPayloadSize bounds the size of a payload accepted by Decode
const DefaultMaxPayloadSize = 64 << 20

// Option configures a ReplayCodec
type Option func(*ReplayCodec)

// WithReplayExtension sets the hook for consumer-specific top-level fields
func WithReplayExtension(ext ReplayExtension) Option {
	return func(c *ReplayCodec) {
		if ext != nil {
			c.replayExt = ext
		}
	}
}

// WithInputExtension sets the hook for consumer-specific per-input fields
func WithInputExtension(ext InputExtension) Option {
	return func(c *ReplayCodec) {
		if ext != nil {
			c.inputExt = ext
		}
	}
}

// WithExtensions sets both hooks from one value
func WithExtensions(ext interface {
	ReplayExtension
	InputExtension
}) Option {
	return func(c *ReplayCodec) {
		if ext != nil {
			c.replayExt = ext
			c.inputExt = ext
		}
	}
}

// WithMaxPayloadSize caps the payload size Decode accepts. Zero or a negative
// value disables the check.
func WithMaxPayloadSize(n int) Option {
	return func(c *ReplayCodec) {
		c.maxPayloadSize = n
	}
}

// WithLogger sets the logger used for decode diagnostics
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *ReplayCodec) {
		if log != nil {
			c.log = log
		}
	}
}

