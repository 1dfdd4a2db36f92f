// Package beat implements the realtime beat detector: microphone capture,
// a sound/silence state machine, and tempo estimation. The detector runs on
// its own goroutine and publishes a thread-safe (state, BPM) snapshot that
// the motion loop polls.
package beat

import "encoding/json"

// State represents the detector's position in the listen/dance cycle.
type State int

const (
	// Waiting means no music has been heard yet.
	Waiting State = iota
	// Listening means sound was detected and samples are accumulating
	// for tempo estimation.
	Listening
	// Ready means a tempo has been published and dancing is permitted.
	Ready
	// Silent means the music stopped after a tempo had been published.
	Silent
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Listening:
		return "listening"
	case Ready:
		return "ready"
	case Silent:
		return "silent"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "waiting":
		*s = Waiting
	case "listening":
		*s = Listening
	case "ready":
		*s = Ready
	case "silent":
		*s = Silent
	default:
		*s = Waiting
	}
	return nil
}
