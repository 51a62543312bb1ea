//go:build fuzz
// +build fuzz

package codec

import (
	"reflect"
	"testing"

	"github.com/ssargent/gdr/pkg/replay"
)

// FuzzReplayCodec_RoundTrip tests encode/decode round-trip with random field values
func FuzzReplayCodec_RoundTrip(f *testing.F) {
	c := NewReplayCodec()

	// Add seed corpus
	f.Add("alice", "desc", 1.5, int64(0), uint32(0), uint32(0), 1, true)
	f.Add("", "", 0.0, int64(-1), uint32(1<<31), uint32(99), -5, false)
	f.Add("🎯", "\x00binary\xff", 1e9, int64(1<<62), uint32(7), uint32(1<<32-1), 1<<30, true)

	f.Fuzz(func(t *testing.T, author, description string, duration float64, seed int64, levelID, frame uint32, button int, down bool) {
		r := replay.New("fuzz", "1")
		r.Author = author
		r.Description = description
		r.Duration = duration
		r.Seed = seed
		r.Level.ID = levelID
		r.AddInput(replay.Input{Frame: frame, Button: button, Down: down})

		for _, format := range []Format{FormatBinary, FormatText} {
			encoded, err := c.Encode(r, format)
			if err != nil {
				// NaN and Inf have no JSON representation
				continue
			}

			decoded, err := c.Decode(encoded)
			if err != nil {
				t.Fatalf("Decode failed for %s payload: %v", format, err)
			}

			if decoded.Seed != r.Seed || decoded.Level.ID != r.Level.ID {
				t.Errorf("Integer mismatch in %s: got %d/%d, want %d/%d",
					format, decoded.Seed, decoded.Level.ID, r.Seed, r.Level.ID)
			}

			if !reflect.DeepEqual(decoded.Inputs, r.Inputs) {
				t.Errorf("Input mismatch in %s: got %+v, want %+v", format, decoded.Inputs, r.Inputs)
			}
		}
	})
}

// FuzzReplayCodec_MalformedData tests handling of arbitrary input
func FuzzReplayCodec_MalformedData(f *testing.F) {
	c := NewReplayCodec()

	f.Add([]byte{})
	f.Add([]byte{0x80})
	f.Add([]byte(`{}`))
	f.Add([]byte(`{"bot":{},"level":{}}`))
	f.Add([]byte{0xdf, 0xff, 0xff, 0xff, 0xff})

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		// The important thing is that it doesn't panic
		r, err := c.Decode(data)
		if err == nil && r == nil {
			t.Fatal("Decode returned neither a replay nor an error")
		}
		if err != nil && r != nil {
			t.Fatal("Decode returned a partial replay alongside an error")
		}
	})
}
