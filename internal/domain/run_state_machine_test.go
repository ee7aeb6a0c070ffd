package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunStateMachine_Transitions(t *testing.T) {
	sm := NewRunStateMachine()

	tests := []struct {
		name        string
		from        RunState
		action      RunTransition
		expectedTo  RunState
		shouldError bool
	}{
		// Valid transitions
		{"Pending -> Running via Start", RunStatePending, TransitionStart, RunStateRunning, false},
		{"Running -> Waiting via AwaitInput", RunStateRunning, TransitionAwaitInput, RunStateWaiting, false},
		{"Running -> Completed via Complete", RunStateRunning, TransitionComplete, RunStateCompleted, false},
		{"Running -> Failed via Fail", RunStateRunning, TransitionFail, RunStateFailed, false},
		{"Waiting -> Running via Resume", RunStateWaiting, TransitionResume, RunStateRunning, false},
		{"Waiting -> Failed via Fail", RunStateWaiting, TransitionFail, RunStateFailed, false},
		{"Pending -> Failed via Fail", RunStatePending, TransitionFail, RunStateFailed, false},

		// Invalid transitions
		{"Pending -> Completed (must run first)", RunStatePending, TransitionComplete, RunStatePending, true},
		{"Waiting -> Completed (must resume first)", RunStateWaiting, TransitionComplete, RunStateWaiting, true},
		{"Completed -> Running (terminal)", RunStateCompleted, TransitionResume, RunStateCompleted, true},
		{"Failed -> Running (terminal)", RunStateFailed, TransitionStart, RunStateFailed, true},
		{"Running -> Running via Start (invalid)", RunStateRunning, TransitionStart, RunStateRunning, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			newState, err := sm.Transition(tc.from, tc.action)

			if tc.shouldError {
				assert.Error(t, err)
				assert.Equal(t, tc.from, newState, "State should not change on invalid transition")
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expectedTo, newState)
			}
		})
	}
}

func TestRunStateMachine_CanTransition(t *testing.T) {
	sm := NewRunStateMachine()

	assert.True(t, sm.CanTransition(RunStatePending, TransitionStart))
	assert.True(t, sm.CanTransition(RunStateRunning, TransitionAwaitInput))
	assert.True(t, sm.CanTransition(RunStateWaiting, TransitionResume))
	assert.False(t, sm.CanTransition(RunStateCompleted, TransitionResume))
	assert.False(t, sm.CanTransition(RunStateFailed, TransitionStart))
}

func TestRunStateMachine_IsTerminal(t *testing.T) {
	sm := NewRunStateMachine()

	assert.False(t, sm.IsTerminal(RunStatePending))
	assert.False(t, sm.IsTerminal(RunStateRunning))
	assert.False(t, sm.IsTerminal(RunStateWaiting))
	assert.True(t, sm.IsTerminal(RunStateCompleted))
	assert.True(t, sm.IsTerminal(RunStateFailed))
}
