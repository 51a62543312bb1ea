package codec

import (
	"fmt"
	"math"

	"github.com/ssargent/gdr/pkg/replay"
)

// Wire keys. These are fixed strings, independent of the Go field names.
const (
	keyBot    = "bot"
	keyLevel  = "level"
	keyInputs = "inputs"

	keyFrameRate = "framerate"

	keyFrame   = "frame"
	keyButton  = "btn"
	keyPlayer2 = "2p"
	keyDown    = "down"
)

// field binds one wire key to one slot of the target value. Every known key
// is described by exactly one entry and processed by decodeFields/encodeFields.
type field[T any] struct {
	key      string
	section  string // empty for top-level keys, otherwise the enclosing object
	required bool
	decode   func(dst *T, v any) error
	encode   func(src *T) any
}

func (f field[T]) path() string {
	if f.section == "" {
		return f.key
	}
	return f.section + "." + f.key
}

// bind builds a field from a coercion function and an accessor returning the
// address of the target slot
func bind[T, V any](section, key string, required bool, coerce func(any) (V, error), at func(*T) *V) field[T] {
	return field[T]{
		key:      key,
		section:  section,
		required: required,
		decode: func(dst *T, v any) error {
			val, err := coerce(v)
			if err != nil {
				return err
			}
			*at(dst) = val
			return nil
		},
		encode: func(src *T) any {
			return *at(src)
		},
	}
}

var replayFields = []field[replay.Replay]{
	bind("", "gameVersion", true, asFloat, func(r *replay.Replay) *float64 { return &r.GameVersion }),
	bind("", "description", true, asString, func(r *replay.Replay) *string { return &r.Description }),
	bind("", "version", true, asFloat, func(r *replay.Replay) *float64 { return &r.Version }),
	bind("", "duration", true, asFloat, func(r *replay.Replay) *float64 { return &r.Duration }),
	bind("", "author", true, asString, func(r *replay.Replay) *string { return &r.Author }),
	bind("", "seed", true, asInt64, func(r *replay.Replay) *int64 { return &r.Seed }),
	bind("", "coins", true, asInt, func(r *replay.Replay) *int { return &r.Coins }),
	bind("", "ldm", true, asBool, func(r *replay.Replay) *bool { return &r.LowDetailMode }),
	bind("", keyFrameRate, false, asFrameRate, func(r *replay.Replay) *float64 { return &r.FrameRate }),
	bind(keyBot, "name", true, asString, func(r *replay.Replay) *string { return &r.Bot.Name }),
	bind(keyBot, "version", true, asString, func(r *replay.Replay) *string { return &r.Bot.Version }),
	bind(keyLevel, "id", true, asUint32, func(r *replay.Replay) *uint32 { return &r.Level.ID }),
	bind(keyLevel, "name", true, asString, func(r *replay.Replay) *string { return &r.Level.Name }),
}

var inputFields = []field[replay.Input]{
	bind("", keyFrame, true, asUint32, func(in *replay.Input) *uint32 { return &in.Frame }),
	bind("", keyButton, true, asInt, func(in *replay.Input) *int { return &in.Button }),
	bind("", keyPlayer2, true, asBool, func(in *replay.Input) *bool { return &in.Player2 }),
	bind("", keyDown, true, asBool, func(in *replay.Input) *bool { return &in.Down }),
}

// asFrameRate accepts any positive, finite number
func asFrameRate(v any) (float64, error) {
	f, err := asFloat(v)
	if err != nil {
		return 0, err
	}
	if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("frame rate must be positive, got %v", f)
	}
	return f, nil
}

// decodeFields assigns every field of table found in tree to dst. A missing
// required field or a value that fails coercion stops decoding. prefix is
// prepended to field paths in errors.
func decodeFields[T any](table []field[T], tree Tree, dst *T, prefix string) error {
	for _, f := range table {
		scope := tree
		if f.section != "" {
			sub, ok := asTree(tree[f.section])
			if !ok {
				return fmt.Errorf("%s%s: expected object", prefix, f.section)
			}
			scope = sub
		}

		v, ok := scope[f.key]
		if !ok {
			if f.required {
				return fmt.Errorf("%s%s: missing", prefix, f.path())
			}
			continue
		}

		if err := f.decode(dst, v); err != nil {
			return fmt.Errorf("%s%s: %w", prefix, f.path(), err)
		}
	}
	return nil
}

// encodeFields writes every field of table from src into tree, replacing any
// value already present under the same key
func encodeFields[T any](table []field[T], src *T, tree Tree) {
	for _, f := range table {
		scope := tree
		if f.section != "" {
			sub, ok := asTree(tree[f.section])
			if !ok {
				sub = Tree{}
				tree[f.section] = sub
			}
			scope = sub
		}
		scope[f.key] = f.encode(src)
	}
}

// knownKeys returns the top-level keys a table owns
func knownKeys[T any](table []field[T], extra ...string) map[string]struct{} {
	keys := make(map[string]struct{}, len(table)+len(extra))
	for _, f := range table {
		if f.section == "" {
			keys[f.key] = struct{}{}
		} else {
			keys[f.section] = struct{}{}
		}
	}
	for _, k := range extra {
		keys[k] = struct{}{}
	}
	return keys
}
