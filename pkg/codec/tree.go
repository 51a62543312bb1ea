package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/vmihailenco/msgpack/v5"
)

// Tree is the generic structured value both wire encodings decode to.
//
// Scalars inside a decoded Tree are normalized so that the two encodings of
// the same payload produce the same values: integers become int64 (uint64
// only above math.MaxInt64), floats become float64, objects become Tree and
// arrays become []any.
type Tree = map[string]any

var (
	errTrailingData = errors.New("trailing data after payload")
	errInvalidUTF8  = errors.New("payload is not valid utf-8")
	errNotObject    = errors.New("payload root is not an object")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeTree sniffs the encoding of data and decodes it. MessagePack is tried
// first; JSON is only attempted when that does not produce an object.
func decodeTree(data []byte) (Tree, Format, error) {
	tree, binErr := decodeMsgpack(data)
	if binErr == nil {
		return tree, FormatBinary, nil
	}

	tree, textErr := decodeJSON(data)
	if textErr == nil {
		return tree, FormatText, nil
	}

	return nil, FormatBinary, fmt.Errorf("%w (msgpack: %v; json: %v)", ErrUnrecognizedEncoding, binErr, textErr)
}

// decodeMsgpack decodes exactly one MessagePack value from data. Anything left
// over after the value is an error.
func decodeMsgpack(data []byte) (Tree, error) {
	rd := bytes.NewReader(data)
	dec := msgpack.NewDecoder(rd)
	dec.UseLooseInterfaceDecoding(true)

	v, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return nil, err
	}
	if rd.Len() != 0 {
		return nil, errTrailingData
	}

	return asRoot(v)
}

// decodeJSON decodes exactly one JSON value from data. A leading UTF-8 byte
// order mark is skipped.
func decodeJSON(data []byte) (Tree, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, errInvalidUTF8
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}

	return asRoot(v)
}

func asRoot(v any) (Tree, error) {
	n, err := normalize(v)
	if err != nil {
		return nil, err
	}
	tree, ok := n.(Tree)
	if !ok {
		return nil, errNotObject
	}
	return tree, nil
}

// normalize rewrites decoder output into the value set documented on Tree
func normalize(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, string, float64, int64, []byte:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint:
		return normalizeUint(uint64(val)), nil
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint64:
		return normalizeUint(val), nil
	case json.Number:
		return normalizeNumber(val)
	case map[string]any:
		for k, item := range val {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			val[k] = n
		}
		return Tree(val), nil
	case map[any]any:
		out := make(Tree, len(val))
		for k, item := range val {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("object key %v is not a string", k)
			}
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case []any:
		for i, item := range val {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			val[i] = n
		}
		return val, nil
	default:
		// msgpack extension types (timestamps and the like) pass through as decoded
		return val, nil
	}
}

func normalizeUint(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return u
}

func normalizeNumber(n json.Number) (any, error) {
	s := n.String()
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return u, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return f, nil
}

// encodeTree serializes tree in the selected format. MessagePack output uses
// compact integers and sorted keys so equal trees give equal bytes.
func encodeTree(tree Tree, format Format) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case FormatText:
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(tree); err != nil {
			return nil, fmt.Errorf("failed to encode json: %w", err)
		}
		return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
	case FormatBinary:
		enc := msgpack.NewEncoder(&buf)
		enc.SetSortMapKeys(true)
		enc.UseCompactInts(true)
		if err := enc.Encode(tree); err != nil {
			return nil, fmt.Errorf("failed to encode msgpack: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown replay format: %s", format)
	}
}
