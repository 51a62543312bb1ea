// Package replay defines the in-memory model of a recorded input replay.
//
// A Replay carries authoring metadata, the identity of the level it was
// recorded on, timing parameters and an ordered list of Input events. The
// model performs no validation; wire-level correctness is enforced by
// pkg/codec when a payload is decoded.
package replay

import (
	"math"
	"sort"
)

const (
	// DefaultFrameRate is the frame rate assumed when a payload does not carry one.
	DefaultFrameRate = 240.0

	// DefaultFormatVersion is the format version written by new replays.
	DefaultFormatVersion = 1.0
)

// Bot identifies the software that produced a replay
type Bot struct {
	Name    string
	Version string
}

// Level identifies the playback target
type Level struct {
	ID   uint32
	Name string
}

// NewLevel creates a level descriptor
func NewLevel(name string, id uint32) Level {
	return Level{ID: id, Name: name}
}

// Replay is the root record of one recorded playback session
type Replay struct {
	Author      string
	Description string

	Duration    float64 // seconds
	GameVersion float64
	Version     float64 // format version, carried through unchanged
	FrameRate   float64

	Seed          int64
	Coins         int
	LowDetailMode bool

	Bot   Bot
	Level Level

	// Inputs are kept in insertion order. Nothing sorts them implicitly.
	// A decoded replay without inputs has a nil slice, never an empty one.
	Inputs []Input

	// Extension holds consumer-specific top-level fields. The codec never
	// interprets it. Like Inputs, it decodes as nil when empty.
	Extension map[string]any
}

// New creates a replay produced by the named bot with default timing parameters
func New(botName, botVersion string) *Replay {
	return &Replay{
		Version:   DefaultFormatVersion,
		FrameRate: DefaultFrameRate,
		Bot: Bot{
			Name:    botName,
			Version: botVersion,
		},
	}
}

// FrameForTime converts a time offset in seconds to a frame index using the
// replay's frame rate. Negative offsets and non-positive frame rates yield 0.
func (r *Replay) FrameForTime(seconds float64) uint32 {
	if r.FrameRate <= 0 || seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}

	frame := math.Floor(seconds * r.FrameRate)
	if frame >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(frame)
}

// AddInput appends inputs to the end of the replay
func (r *Replay) AddInput(inputs ...Input) {
	r.Inputs = append(r.Inputs, inputs...)
}

// Hold appends a press of button at frame
func (r *Replay) Hold(frame uint32, button int, player2 bool) {
	r.AddInput(HoldInput(frame, button, player2))
}

// Release appends a release of button at frame
func (r *Replay) Release(frame uint32, button int, player2 bool) {
	r.AddInput(ReleaseInput(frame, button, player2))
}

// InputsForPlayer returns the input stream of one player, order preserved
func (r *Replay) InputsForPlayer(player2 bool) []Input {
	var out []Input
	for _, in := range r.Inputs {
		if in.Player2 == player2 {
			out = append(out, in)
		}
	}
	return out
}

// LastFrame returns the highest frame referenced by any input
func (r *Replay) LastFrame() uint32 {
	var last uint32
	for _, in := range r.Inputs {
		if in.Frame > last {
			last = in.Frame
		}
	}
	return last
}

// SortInputs stably orders inputs by frame. Inputs on the same frame keep
// their relative order.
func SortInputs(inputs []Input) {
	sort.SliceStable(inputs, func(i, j int) bool {
		return inputs[i].Less(inputs[j])
	})
}
