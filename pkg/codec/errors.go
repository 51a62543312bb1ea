package codec

import "errors"

// Decode failure kinds. Every error returned by Decode and DecodeHeader wraps
// exactly one of these, so callers can either treat any error as "no replay"
// or branch with errors.Is.
var (
	ErrPayloadTooLarge      = errors.New("payload exceeds maximum size")
	ErrUnrecognizedEncoding = errors.New("payload is neither msgpack nor json")
	ErrMalformedStructure   = errors.New("malformed replay structure")
	ErrInvalidField         = errors.New("invalid replay field")
	ErrInvalidInput         = errors.New("invalid replay input")
)
