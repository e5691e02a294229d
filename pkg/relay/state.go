package relay

// State is the lifecycle position of one relay call.
type State int

// Relay states. Done and Failed are terminal.
const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StateConnecting: "connecting",
	StateStreaming:  "streaming",
	StateDone:       "done",
	StateFailed:     "failed",
}

// String returns the lower-case state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether s is Done or Failed.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransition reports whether the lifecycle allows moving from s to next.
// Connecting may repeat while falling back to the next provider.
func (s State) CanTransition(next State) bool {
	switch s {
	case StateIdle:
		return next == StateConnecting || next == StateFailed
	case StateConnecting:
		return next == StateConnecting || next == StateStreaming || next == StateFailed
	case StateStreaming:
		return next == StateDone || next == StateFailed
	default:
		return false
	}
}
