package codec

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ssargent/gdr/pkg/replay"
)

func sampleReplay() *replay.Replay {
	r := replay.New("echo", "2.1.0")
	r.Author = "alice"
	r.Description = "first try 🎯"
	r.Duration = 84.25
	r.GameVersion = 2.206
	r.Seed = -1234567
	r.Coins = 3
	r.LowDetailMode = true
	r.Level = replay.NewLevel("Bloodbath", 10565740)
	r.Hold(10, 1, false)
	r.Release(24, 1, false)
	r.Hold(3, 2, true)
	r.Release(3, 2, true)
	return r
}

// rawPayload is a minimal valid wire tree, built by hand so tests can remove
// or corrupt individual keys
func rawPayload() Tree {
	return Tree{
		"gameVersion": 2.2,
		"description": "desc",
		"version":     1.0,
		"duration":    5.5,
		"author":      "bob",
		"seed":        7,
		"coins":       0,
		"ldm":         false,
		"bot":         Tree{"name": "echo", "version": "1.0"},
		"level":       Tree{"id": 42, "name": "Stereo Madness"},
		"inputs": []any{
			Tree{"frame": 1, "btn": 1, "2p": false, "down": true},
			Tree{"frame": 9, "btn": 1, "2p": false, "down": false},
		},
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func mustMsgpack(t *testing.T, v any) []byte {
	t.Helper()
	data, err := msgpack.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestReplayCodec_EncodeDecodeRoundTrip(t *testing.T) {
	c := NewReplayCodec()

	testCases := []struct {
		name   string
		format Format
	}{
		{name: "binary", format: FormatBinary},
		{name: "text", format: FormatText},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			original := sampleReplay()

			encoded, err := c.Encode(original, tc.format)
			require.NoError(t, err)

			decoded, err := c.Decode(encoded)
			require.NoError(t, err)

			assert.Equal(t, original, decoded)
		})
	}
}

func TestReplayCodec_RoundTripEmptyReplay(t *testing.T) {
	c := NewReplayCodec()
	original := replay.New("", "")

	for _, format := range []Format{FormatBinary, FormatText} {
		encoded, err := c.Encode(original, format)
		require.NoError(t, err)

		decoded, err := c.Decode(encoded)
		require.NoError(t, err, format.String())
		assert.Equal(t, original, decoded, format.String())
	}
}

func TestReplayCodec_AutoDetect(t *testing.T) {
	c := NewReplayCodec()
	original := sampleReplay()

	binary, err := c.Encode(original, FormatBinary)
	require.NoError(t, err)
	text, err := c.Encode(original, FormatText)
	require.NoError(t, err)

	fromBinary, err := c.Decode(binary)
	require.NoError(t, err)
	fromText, err := c.Decode(text)
	require.NoError(t, err)

	assert.Equal(t, fromBinary, fromText)

	format, err := c.DetectFormat(binary)
	require.NoError(t, err)
	assert.Equal(t, FormatBinary, format)

	format, err = c.DetectFormat(text)
	require.NoError(t, err)
	assert.Equal(t, FormatText, format)
}

func TestReplayCodec_TextIsJSON(t *testing.T) {
	c := NewReplayCodec()

	text, err := c.Encode(sampleReplay(), FormatText)
	require.NoError(t, err)

	var tree map[string]any
	require.NoError(t, json.Unmarshal(text, &tree))

	assert.Equal(t, "alice", tree["author"])
	assert.Equal(t, 240.0, tree["framerate"])
	assert.Equal(t, map[string]any{"id": 10565740.0, "name": "Bloodbath"}, tree["level"])
	assert.Len(t, tree["inputs"], 4)
	assert.Equal(t, map[string]any{"frame": 10.0, "btn": 1.0, "2p": false, "down": true}, tree["inputs"].([]any)[0])
}

func TestReplayCodec_BinaryIsDeterministic(t *testing.T) {
	c := NewReplayCodec()

	first, err := c.Encode(sampleReplay(), FormatBinary)
	require.NoError(t, err)
	second, err := c.Encode(sampleReplay(), FormatBinary)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReplayCodec_RequiredFields(t *testing.T) {
	c := NewReplayCodec()

	required := []struct {
		section string
		key     string
	}{
		{key: "gameVersion"},
		{key: "description"},
		{key: "version"},
		{key: "duration"},
		{key: "author"},
		{key: "seed"},
		{key: "coins"},
		{key: "ldm"},
		{section: "bot", key: "name"},
		{section: "bot", key: "version"},
		{section: "level", key: "id"},
		{section: "level", key: "name"},
	}

	for _, field := range required {
		name := field.key
		if field.section != "" {
			name = field.section + "." + field.key
		}

		t.Run(name, func(t *testing.T) {
			payload := rawPayload()
			if field.section == "" {
				delete(payload, field.key)
			} else {
				delete(payload[field.section].(Tree), field.key)
			}

			for _, data := range [][]byte{mustJSON(t, payload), mustMsgpack(t, payload)} {
				r, err := c.Decode(data)
				assert.Nil(t, r)
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidField), "unexpected error: %v", err)
				assert.Contains(t, err.Error(), name)
			}
		})
	}
}

func TestReplayCodec_MalformedStructure(t *testing.T) {
	c := NewReplayCodec()

	testCases := []struct {
		name   string
		mutate func(Tree)
	}{
		{name: "missing bot", mutate: func(p Tree) { delete(p, "bot") }},
		{name: "missing level", mutate: func(p Tree) { delete(p, "level") }},
		{name: "bot is a string", mutate: func(p Tree) { p["bot"] = "echo" }},
		{name: "level is an array", mutate: func(p Tree) { p["level"] = []any{1, "x"} }},
		{name: "inputs is an object", mutate: func(p Tree) { p["inputs"] = Tree{"frame": 1} }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payload := rawPayload()
			tc.mutate(payload)

			r, err := c.Decode(mustJSON(t, payload))
			assert.Nil(t, r)
			assert.ErrorIs(t, err, ErrMalformedStructure)
		})
	}
}

func TestReplayCodec_TypeMismatch(t *testing.T) {
	c := NewReplayCodec()

	testCases := []struct {
		name  string
		key   string
		value any
	}{
		{name: "author number", key: "author", value: 12},
		{name: "ldm number", key: "ldm", value: 1},
		{name: "seed string", key: "seed", value: "7"},
		{name: "seed fractional", key: "seed", value: 7.5},
		{name: "duration bool", key: "duration", value: true},
		{name: "coins null", key: "coins", value: nil},
		{name: "framerate zero", key: "framerate", value: 0},
		{name: "framerate negative", key: "framerate", value: -60},
		{name: "framerate string", key: "framerate", value: "240"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payload := rawPayload()
			payload[tc.key] = tc.value

			r, err := c.Decode(mustJSON(t, payload))
			assert.Nil(t, r)
			assert.ErrorIs(t, err, ErrInvalidField)
		})
	}

	t.Run("negative level id", func(t *testing.T) {
		payload := rawPayload()
		payload["level"].(Tree)["id"] = -1

		_, err := c.Decode(mustMsgpack(t, payload))
		assert.ErrorIs(t, err, ErrInvalidField)
	})

	t.Run("integral float accepted for integer", func(t *testing.T) {
		payload := rawPayload()
		payload["coins"] = 4.0

		r, err := c.Decode(mustMsgpack(t, payload))
		require.NoError(t, err)
		assert.Equal(t, 4, r.Coins)
	})
}

func TestReplayCodec_FrameRate(t *testing.T) {
	c := NewReplayCodec()

	t.Run("default when omitted", func(t *testing.T) {
		r, err := c.Decode(mustJSON(t, rawPayload()))
		require.NoError(t, err)
		assert.Equal(t, 240.0, r.FrameRate)
	})

	t.Run("override", func(t *testing.T) {
		payload := rawPayload()
		payload["framerate"] = 30

		for _, data := range [][]byte{mustJSON(t, payload), mustMsgpack(t, payload)} {
			r, err := c.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, 30.0, r.FrameRate)
			assert.Equal(t, uint32(15), r.FrameForTime(0.5))
		}
	})
}

func TestReplayCodec_InputStrictness(t *testing.T) {
	c := NewReplayCodec()

	for _, key := range []string{"frame", "btn", "2p", "down"} {
		t.Run("missing "+key, func(t *testing.T) {
			payload := rawPayload()
			delete(payload["inputs"].([]any)[1].(Tree), key)

			r, err := c.Decode(mustJSON(t, payload))
			assert.Nil(t, r)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), "inputs[1]."+key)
		})
	}

	t.Run("entry is not an object", func(t *testing.T) {
		payload := rawPayload()
		payload["inputs"] = []any{1, 2}

		_, err := c.Decode(mustMsgpack(t, payload))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("negative frame", func(t *testing.T) {
		payload := rawPayload()
		payload["inputs"].([]any)[0].(Tree)["frame"] = -3

		_, err := c.Decode(mustJSON(t, payload))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("missing inputs means none", func(t *testing.T) {
		payload := rawPayload()
		delete(payload, "inputs")

		r, err := c.Decode(mustJSON(t, payload))
		require.NoError(t, err)
		assert.Empty(t, r.Inputs)
	})

	t.Run("null inputs means none", func(t *testing.T) {
		payload := rawPayload()
		payload["inputs"] = nil

		r, err := c.Decode(mustMsgpack(t, payload))
		require.NoError(t, err)
		assert.Empty(t, r.Inputs)
	})
}

func TestReplayCodec_DecodeHeader(t *testing.T) {
	c := NewReplayCodec()

	t.Run("skips inputs", func(t *testing.T) {
		encoded, err := c.Encode(sampleReplay(), FormatBinary)
		require.NoError(t, err)

		r, err := c.DecodeHeader(encoded)
		require.NoError(t, err)
		assert.Empty(t, r.Inputs)
		assert.Equal(t, "alice", r.Author)
	})

	t.Run("does not validate inputs", func(t *testing.T) {
		payload := rawPayload()
		payload["inputs"] = []any{Tree{"frame": 1}, "garbage"}

		r, err := c.DecodeHeader(mustJSON(t, payload))
		require.NoError(t, err)
		assert.Empty(t, r.Inputs)

		_, err = c.Decode(mustJSON(t, payload))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestReplayCodec_DecodeSummary(t *testing.T) {
	c := NewReplayCodec()

	t.Run("counts raw inputs", func(t *testing.T) {
		payload := rawPayload()
		payload["inputs"] = []any{Tree{"frame": 1}, "garbage", nil}

		summary, err := c.DecodeSummary(mustMsgpack(t, payload))
		require.NoError(t, err)
		assert.Equal(t, FormatBinary, summary.Format)
		assert.Equal(t, 3, summary.InputCount)
		assert.Empty(t, summary.Replay.Inputs)
		assert.Equal(t, "bob", summary.Replay.Author)
	})

	t.Run("non-array inputs count as none", func(t *testing.T) {
		payload := rawPayload()
		payload["inputs"] = "nope"

		summary, err := c.DecodeSummary(mustJSON(t, payload))
		require.NoError(t, err)
		assert.Equal(t, FormatText, summary.Format)
		assert.Zero(t, summary.InputCount)
	})

	t.Run("header errors still fail", func(t *testing.T) {
		payload := rawPayload()
		delete(payload, "seed")

		_, err := c.DecodeSummary(mustJSON(t, payload))
		assert.ErrorIs(t, err, ErrInvalidField)
	})
}

func TestReplayCodec_DecodeWithFormat(t *testing.T) {
	c := NewReplayCodec()

	for _, format := range []Format{FormatBinary, FormatText} {
		t.Run(format.String(), func(t *testing.T) {
			encoded, err := c.Encode(sampleReplay(), format)
			require.NoError(t, err)

			r, detected, err := c.DecodeWithFormat(encoded)
			require.NoError(t, err)
			assert.Equal(t, format, detected)
			assert.Len(t, r.Inputs, 4)
		})
	}
}

func TestReplayCodec_PreservesInputOrder(t *testing.T) {
	c := NewReplayCodec()

	r := sampleReplay()
	r.Inputs = []replay.Input{
		replay.HoldInput(10, 1, false),
		replay.HoldInput(3, 1, false),
		replay.ReleaseInput(3, 1, false),
		replay.HoldInput(3, 1, false),
	}

	for _, format := range []Format{FormatBinary, FormatText} {
		encoded, err := c.Encode(r, format)
		require.NoError(t, err)

		decoded, err := c.Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, r.Inputs, decoded.Inputs, format.String())
	}
}

func TestReplayCodec_Undecodable(t *testing.T) {
	c := NewReplayCodec()

	testCases := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: []byte{}},
		{name: "garbage", data: []byte{0xc1, 0xff, 0x00}},
		{name: "truncated json", data: []byte(`{"bot": {`)},
		{name: "json array", data: []byte(`[1, 2, 3]`)},
		{name: "json scalar", data: []byte(`42`)},
		{name: "invalid utf-8", data: []byte{'{', '"', 0xff, '"', ':', '1', '}'}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := c.Decode(tc.data)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, ErrUnrecognizedEncoding)
		})
	}
}

func TestReplayCodec_TrailingData(t *testing.T) {
	c := NewReplayCodec()

	binary, err := c.Encode(sampleReplay(), FormatBinary)
	require.NoError(t, err)
	_, err = c.Decode(append(binary, 0x01))
	assert.ErrorIs(t, err, ErrUnrecognizedEncoding)

	text, err := c.Encode(sampleReplay(), FormatText)
	require.NoError(t, err)
	_, err = c.Decode(append(text, []byte(` {}`)...))
	assert.ErrorIs(t, err, ErrUnrecognizedEncoding)

	r, err := c.Decode(append(text, []byte("\n")...))
	require.NoError(t, err)
	assert.Equal(t, "alice", r.Author)
}

func TestReplayCodec_ByteOrderMark(t *testing.T) {
	c := NewReplayCodec()

	text, err := c.Encode(sampleReplay(), FormatText)
	require.NoError(t, err)

	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, text...)
	r, format, err := c.DecodeWithFormat(withBOM)
	require.NoError(t, err)
	assert.Equal(t, FormatText, format)
	assert.Equal(t, sampleReplay(), r)

	_, err = c.Decode([]byte{0xEF, 0xBB, 0xBF})
	assert.ErrorIs(t, err, ErrUnrecognizedEncoding)
}

func TestReplayCodec_MaxPayloadSize(t *testing.T) {
	encoded, err := NewReplayCodec().Encode(sampleReplay(), FormatBinary)
	require.NoError(t, err)

	small := NewReplayCodec(WithMaxPayloadSize(len(encoded) - 1))
	_, err = small.Decode(encoded)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)

	exact := NewReplayCodec(WithMaxPayloadSize(len(encoded)))
	_, err = exact.Decode(encoded)
	assert.NoError(t, err)

	unlimited := NewReplayCodec(WithMaxPayloadSize(0))
	_, err = unlimited.Decode(encoded)
	assert.NoError(t, err)
}

func TestReplayCodec_Convert(t *testing.T) {
	c := NewReplayCodec()

	binary, err := c.Encode(sampleReplay(), FormatBinary)
	require.NoError(t, err)

	text, err := c.Convert(binary, FormatText)
	require.NoError(t, err)
	assert.True(t, json.Valid(text))

	back, err := c.Convert(text, FormatBinary)
	require.NoError(t, err)
	assert.Equal(t, binary, back)

	_, err = c.Convert([]byte("nope"), FormatText)
	assert.ErrorIs(t, err, ErrUnrecognizedEncoding)
}

func TestReplayCodec_NonFiniteFloats(t *testing.T) {
	c := NewReplayCodec()

	r := sampleReplay()
	r.Duration = math.NaN()
	r.GameVersion = math.Inf(1)

	_, err := c.Encode(r, FormatText)
	assert.Error(t, err)

	binary, err := c.Encode(r, FormatBinary)
	require.NoError(t, err)

	decoded, err := c.Decode(binary)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(decoded.Duration))
	assert.True(t, math.IsInf(decoded.GameVersion, 1))

	_, err = c.Convert(binary, FormatText)
	assert.Error(t, err)
}

func TestReplayCodec_LargeSeedAndLevelID(t *testing.T) {
	c := NewReplayCodec()

	r := sampleReplay()
	r.Seed = 1<<62 + 1
	r.Level.ID = 1<<32 - 1

	for _, format := range []Format{FormatBinary, FormatText} {
		encoded, err := c.Encode(r, format)
		require.NoError(t, err)

		decoded, err := c.Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, r.Seed, decoded.Seed, format.String())
		assert.Equal(t, r.Level.ID, decoded.Level.ID, format.String())
	}
}

func TestParseFormat(t *testing.T) {
	testCases := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{input: "", expected: FormatBinary},
		{input: "msgpack", expected: FormatBinary},
		{input: "GDR", expected: FormatBinary},
		{input: "json", expected: FormatText},
		{input: " Text ", expected: FormatText},
		{input: "yaml", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			f, err := ParseFormat(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, f)
		})
	}
}

func TestFormat_Names(t *testing.T) {
	assert.Equal(t, "msgpack", FormatBinary.String())
	assert.Equal(t, "json", FormatText.String())
	assert.Equal(t, "application/json", FormatText.ContentType())
	assert.Equal(t, "application/msgpack", FormatBinary.ContentType())
	assert.Equal(t, ".gdr", FormatBinary.Extension())
	assert.Equal(t, ".gdr.json", FormatText.Extension())
}
