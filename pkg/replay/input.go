package replay

// Input is a single press or release event within a replay
type Input struct {
	Frame   uint32
	Button  int
	Player2 bool // second of two independent input streams
	Down    bool // true = press/hold, false = release

	// Extension holds consumer-specific per-input fields; nil when there are
	// none
	Extension map[string]any
}

// HoldInput creates a press event
func HoldInput(frame uint32, button int, player2 bool) Input {
	return Input{Frame: frame, Button: button, Player2: player2, Down: true}
}

// ReleaseInput creates a release event
func ReleaseInput(frame uint32, button int, player2 bool) Input {
	return Input{Frame: frame, Button: button, Player2: player2, Down: false}
}

// Less orders inputs by frame only
func (i Input) Less(other Input) bool {
	return i.Frame < other.Frame
}
