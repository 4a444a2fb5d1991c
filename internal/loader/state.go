package loader

import (
	"fmt"
	"sync"
)

// State identifies a phase of the load pipeline.
type State string

const (
	StateIdle            State = "IDLE"
	StateResolvingAsset  State = "RESOLVING_ASSET"
	StateReading         State = "READING"
	StateParsing         State = "PARSING"
	StateResolvingLeague State = "RESOLVING_LEAGUE"
	StateCheckingVersion State = "CHECKING_VERSION"
	StateClassifying     State = "CLASSIFYING"
	StatePersisting      State = "PERSISTING"
	StateSyncingFlags    State = "SYNCING_FLAGS"
	StateNotifying       State = "NOTIFYING"
)

// nextState is the forward edge of the pipeline. Any state may also fall
// back to IDLE, which covers the skip branch at CHECKING_VERSION and every
// failure exit.
var nextState = map[State]State{
	StateIdle:            StateResolvingAsset,
	StateResolvingAsset:  StateReading,
	StateReading:         StateParsing,
	StateParsing:         StateResolvingLeague,
	StateResolvingLeague: StateCheckingVersion,
	StateCheckingVersion: StateClassifying,
	StateClassifying:     StatePersisting,
	StatePersisting:      StateSyncingFlags,
	StateSyncingFlags:    StateNotifying,
	StateNotifying:       StateIdle,
}

// TransitionCallback is invoked after every successful transition
type TransitionCallback func(from, to State)

// StateMachine tracks pipeline progress for one game and rejects moves that
// skip or reorder stages.
type StateMachine struct {
	mu       sync.Mutex
	current  State
	onChange TransitionCallback
}

// NewStateMachine creates a state machine in IDLE.
func NewStateMachine() *StateMachine {
	return &StateMachine{current: StateIdle}
}

// Current returns the current state.
func (m *StateMachine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// OnTransition sets the callback invoked after each transition.
func (m *StateMachine) OnTransition(fn TransitionCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// TransitionTo moves to the given state if the move is legal.
func (m *StateMachine) TransitionTo(next State) error {
	m.mu.Lock()

	if next != StateIdle && nextState[m.current] != next {
		current := m.current
		m.mu.Unlock()
		return fmt.Errorf("illegal transition from %s to %s", current, next)
	}

	from := m.current
	m.current = next
	onChange := m.onChange
	m.mu.Unlock()

	if onChange != nil && from != next {
		onChange(from, next)
	}

	return nil
}

// IsIdle reports whether no load is in flight.
func (m *StateMachine) IsIdle() bool {
	return m.Current() == StateIdle
}
