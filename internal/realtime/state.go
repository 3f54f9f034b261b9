package realtime

import "fmt"

// State is a session lifecycle state.
type State int

const (
	StateInitializing State = iota
	StateReady
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// transitions lists the permitted target states for each state.
// Initializing goes straight to Terminated when the engine fails to load.
var transitions = map[State][]State{
	StateInitializing: {StateReady, StateTerminated},
	StateReady:        {StateReady, StateTerminated},
}

func canTransition(from, to State) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
