package tts

// StateType represents the current playback state.
type StateType int

const (
	// StateIdle indicates nothing is being spoken.
	StateIdle StateType = iota
	// StatePending indicates a request was accepted but the engine has not
	// confirmed start yet.
	StatePending
	// StateSpeaking indicates the engine is speaking the tracked request.
	StateSpeaking
	// StateFailed indicates the tracked request failed. It is observed once
	// and immediately followed by StateIdle.
	StateFailed
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSpeaking:
		return "speaking"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsActive returns true if a request is pending or being spoken.
func (s StateType) IsActive() bool {
	return s == StatePending || s == StateSpeaking
}

// StateMachine validates playback state transitions.
type StateMachine struct {
	current     StateType
	transitions map[StateType][]StateType
	onEnter     map[StateType]func()
}

// NewStateMachine creates a new state machine with valid transitions.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[StateType][]StateType{
			StateIdle:     {StatePending, StateIdle},
			StatePending:  {StatePending, StateSpeaking, StateFailed, StateIdle},
			StateSpeaking: {StatePending, StateFailed, StateIdle},
			StateFailed:   {StatePending, StateIdle},
		},
		onEnter: make(map[StateType]func()),
	}
}

// Transition attempts to transition to the specified state.
func (sm *StateMachine) Transition(to StateType) bool {
	valid := false
	for _, state := range sm.transitions[sm.current] {
		if state == to {
			valid = true
			break
		}
	}
	if !valid {
		return false
	}

	sm.current = to

	if enterFn, ok := sm.onEnter[to]; ok && enterFn != nil {
		enterFn()
	}
	return true
}

// Current returns the current state.
func (sm *StateMachine) Current() StateType {
	return sm.current
}

// OnEnter registers a callback for entering a state.
func (sm *StateMachine) OnEnter(state StateType, fn func()) {
	sm.onEnter[state] = fn
}
