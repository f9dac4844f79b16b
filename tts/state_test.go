package tts

import "testing"

// TestStateTypeString tests the String() method for StateType.
func TestStateTypeString(t *testing.T) {
	tests := []struct {
		state    StateType
		expected string
	}{
		{StateIdle, "idle"},
		{StatePending, "pending"},
		{StateSpeaking, "speaking"},
		{StateFailed, "failed"},
		{StateType(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := tt.state.String()
			if result != tt.expected {
				t.Errorf("StateType.String() = %v, want %v", result, tt.expected)
			}
		})
	}
}

// TestStateIsActive tests the IsActive() method.
func TestStateIsActive(t *testing.T) {
	tests := []struct {
		state    StateType
		expected bool
	}{
		{StateIdle, false},
		{StatePending, true},
		{StateSpeaking, true},
		{StateFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := tt.state.IsActive(); got != tt.expected {
				t.Errorf("IsActive() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestStateMachineTransitions tests valid and invalid transitions.
func TestStateMachineTransitions(t *testing.T) {
	tests := []struct {
		name     string
		path     []StateType
		to       StateType
		expected bool
	}{
		{"idle to pending", nil, StatePending, true},
		{"idle to speaking", nil, StateSpeaking, false},
		{"idle to failed", nil, StateFailed, false},
		{"pending to speaking", []StateType{StatePending}, StateSpeaking, true},
		{"pending to failed", []StateType{StatePending}, StateFailed, true},
		{"pending to pending", []StateType{StatePending}, StatePending, true},
		{"speaking to pending", []StateType{StatePending, StateSpeaking}, StatePending, true},
		{"speaking to idle", []StateType{StatePending, StateSpeaking}, StateIdle, true},
		{"failed to idle", []StateType{StatePending, StateFailed}, StateIdle, true},
		{"failed to speaking", []StateType{StatePending, StateFailed}, StateSpeaking, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewStateMachine()
			for _, s := range tt.path {
				if !sm.Transition(s) {
					t.Fatalf("setup transition to %v failed", s)
				}
			}

			before := sm.Current()
			got := sm.Transition(tt.to)
			if got != tt.expected {
				t.Errorf("Transition(%v) = %v, want %v", tt.to, got, tt.expected)
			}
			if !got && sm.Current() != before {
				t.Errorf("rejected transition changed state to %v", sm.Current())
			}
			if got && sm.Current() != tt.to {
				t.Errorf("Current() = %v, want %v", sm.Current(), tt.to)
			}
		})
	}
}

// TestStateMachineOnEnter tests enter callbacks.
func TestStateMachineOnEnter(t *testing.T) {
	sm := NewStateMachine()
	entered := 0
	sm.OnEnter(StateSpeaking, func() { entered++ })

	sm.Transition(StatePending)
	if entered != 0 {
		t.Fatalf("callback ran on entering pending")
	}
	sm.Transition(StateSpeaking)
	if entered != 1 {
		t.Errorf("entered = %d, want 1", entered)
	}
	// Rejected transitions never run callbacks.
	sm.Transition(StateSpeaking)
	if entered != 1 {
		t.Errorf("entered = %d after rejected transition, want 1", entered)
	}
}
