package codec

import (
	"fmt"
	"strings"
)

// Format selects the physical wire encoding
type Format int

const (
	// FormatBinary is MessagePack, the compact default encoding
	FormatBinary Format = iota
	// FormatText is JSON
	FormatText
)

// String returns the canonical name of the format
func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "msgpack"
	case FormatText:
		return "json"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ContentType returns the MIME type used when serving payloads of this format
func (f Format) ContentType() string {
	if f == FormatText {
		return "application/json"
	}
	return "application/msgpack"
}

// Extension returns the conventional file extension for the format
func (f Format) Extension() string {
	if f == FormatText {
		return ".gdr.json"
	}
	return ".gdr"
}

// ParseFormat maps a user-supplied name to a Format
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "msgpack", "binary", "bin", "gdr":
		return FormatBinary, nil
	case "json", "text":
		return FormatText, nil
	default:
		return FormatBinary, fmt.Errorf("unknown replay format: %q", name)
	}
}
