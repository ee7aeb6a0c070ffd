package domain

import (
	"fmt"
)

// RunState represents the current state of a workflow run
type RunState string

const (
	// RunStatePending indicates the run is created but not yet started
	RunStatePending RunState = "Pending"
	// RunStateRunning indicates the run is actively executing nodes
	RunStateRunning RunState = "Running"
	// RunStateWaiting indicates the run is blocked on caller input (menu node)
	RunStateWaiting RunState = "Waiting"
	// RunStateCompleted indicates the run reached a terminal node
	RunStateCompleted RunState = "Completed"
	// RunStateFailed indicates the run encountered an error
	RunStateFailed RunState = "Failed"
)

// RunTransition represents an action that can change run state
type RunTransition string

const (
	// TransitionStart begins executing a pending run
	TransitionStart RunTransition = "Start"
	// TransitionAwaitInput parks the run at a menu node
	TransitionAwaitInput RunTransition = "AwaitInput"
	// TransitionResume resumes a run after caller input arrived
	TransitionResume RunTransition = "Resume"
	// TransitionComplete marks the run as completed
	TransitionComplete RunTransition = "Complete"
	// TransitionFail marks the run as failed
	TransitionFail RunTransition = "Fail"
)

// RunStateMachine enforces valid state transitions for workflow runs.
// Invalid transitions return an error (fail-fast approach).
type RunStateMachine struct {
	// transitions maps (current state, transition) -> next state
	transitions map[stateTransitionKey]RunState
}

type stateTransitionKey struct {
	state      RunState
	transition RunTransition
}

// NewRunStateMachine creates a state machine with the run lifecycle rules.
// State diagram:
//
//	     Start
//	[Pending]──────►[Running]◄──Resume──┐
//	                  │    \            │
//	            AwaitInput  Complete    │
//	                  │       \         │
//	                  ▼        ▼        │
//	             [Waiting]  [Completed] │
//	                  │                 │
//	                  └─────────────────┘
//
//	Pending, Running and Waiting can transition to [Failed] via Fail
func NewRunStateMachine() *RunStateMachine {
	sm := &RunStateMachine{
		transitions: make(map[stateTransitionKey]RunState),
	}

	sm.addTransition(RunStatePending, TransitionStart, RunStateRunning)
	sm.addTransition(RunStatePending, TransitionFail, RunStateFailed)
	sm.addTransition(RunStateRunning, TransitionAwaitInput, RunStateWaiting)
	sm.addTransition(RunStateRunning, TransitionComplete, RunStateCompleted)
	sm.addTransition(RunStateRunning, TransitionFail, RunStateFailed)
	sm.addTransition(RunStateWaiting, TransitionResume, RunStateRunning)
	sm.addTransition(RunStateWaiting, TransitionFail, RunStateFailed)

	return sm
}

func (sm *RunStateMachine) addTransition(from RunState, via RunTransition, to RunState) {
	key := stateTransitionKey{state: from, transition: via}
	sm.transitions[key] = to
}

// Transition attempts to transition from the current state using the given action.
// Returns the new state or an error if the transition is invalid.
func (sm *RunStateMachine) Transition(current RunState, action RunTransition) (RunState, error) {
	key := stateTransitionKey{state: current, transition: action}
	next, ok := sm.transitions[key]
	if !ok {
		return current, fmt.Errorf("invalid state transition: cannot %s from %s", action, current)
	}
	return next, nil
}

// CanTransition checks if a transition is valid without performing it.
func (sm *RunStateMachine) CanTransition(current RunState, action RunTransition) bool {
	key := stateTransitionKey{state: current, transition: action}
	_, ok := sm.transitions[key]
	return ok
}

// IsTerminal returns true if the state is a terminal state (no further transitions).
func (sm *RunStateMachine) IsTerminal(state RunState) bool {
	return state == RunStateCompleted || state == RunStateFailed
}
