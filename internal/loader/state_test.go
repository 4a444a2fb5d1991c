package loader

import (
	"testing"
)

// TestStateMachine_WalksFullPipeline tests that the linear stage order is
// accepted end to end
func TestStateMachine_WalksFullPipeline(t *testing.T) {
	m := NewStateMachine()

	if m.Current() != StateIdle {
		t.Fatalf("Expected IDLE initially, got: %s", m.Current())
	}

	order := []State{
		StateResolvingAsset,
		StateReading,
		StateParsing,
		StateResolvingLeague,
		StateCheckingVersion,
		StateClassifying,
		StatePersisting,
		StateSyncingFlags,
		StateNotifying,
		StateIdle,
	}

	for _, next := range order {
		if err := m.TransitionTo(next); err != nil {
			t.Fatalf("Expected transition to %s to succeed, got: %v", next, err)
		}
		if m.Current() != next {
			t.Errorf("Expected state %s, got: %s", next, m.Current())
		}
	}

	if !m.IsIdle() {
		t.Error("Expected machine to be idle after full pipeline")
	}
}

// TestStateMachine_RejectsSkippedStages tests that stages cannot be skipped
// or reordered
func TestStateMachine_RejectsSkippedStages(t *testing.T) {
	m := NewStateMachine()

	if err := m.TransitionTo(StateParsing); err == nil {
		t.Error("Expected error when skipping from IDLE to PARSING")
	}

	m.TransitionTo(StateResolvingAsset)

	if err := m.TransitionTo(StatePersisting); err == nil {
		t.Error("Expected error when skipping ahead to PERSISTING")
	}

	if m.Current() != StateResolvingAsset {
		t.Errorf("Expected state unchanged after rejected transition, got: %s", m.Current())
	}
}

// TestStateMachine_IdleReachableFromAnyStage tests the skip and failure
// exits back to IDLE
func TestStateMachine_IdleReachableFromAnyStage(t *testing.T) {
	m := NewStateMachine()

	// The version check may return to IDLE without running the tail
	m.TransitionTo(StateResolvingAsset)
	m.TransitionTo(StateReading)
	m.TransitionTo(StateParsing)
	m.TransitionTo(StateResolvingLeague)
	m.TransitionTo(StateCheckingVersion)

	if err := m.TransitionTo(StateIdle); err != nil {
		t.Fatalf("Expected skip exit to IDLE to succeed, got: %v", err)
	}

	// A failure during read also falls back to IDLE
	m.TransitionTo(StateResolvingAsset)
	m.TransitionTo(StateReading)

	if err := m.TransitionTo(StateIdle); err != nil {
		t.Fatalf("Expected failure exit to IDLE to succeed, got: %v", err)
	}
}

// TestStateMachine_OnTransition tests that the callback sees every move
func TestStateMachine_OnTransition(t *testing.T) {
	m := NewStateMachine()

	type move struct{ from, to State }
	var moves []move
	m.OnTransition(func(from, to State) {
		moves = append(moves, move{from, to})
	})

	m.TransitionTo(StateResolvingAsset)
	m.TransitionTo(StateReading)
	m.TransitionTo(StateIdle)

	if len(moves) != 3 {
		t.Fatalf("Expected 3 transitions, got: %d", len(moves))
	}
	if moves[0].from != StateIdle || moves[0].to != StateResolvingAsset {
		t.Errorf("Unexpected first transition: %+v", moves[0])
	}
	if moves[2].to != StateIdle {
		t.Errorf("Expected final transition to IDLE, got: %+v", moves[2])
	}
}

// TestStateMachine_NoCallbackOnIdleToIdle tests that resetting an idle
// machine stays silent
func TestStateMachine_NoCallbackOnIdleToIdle(t *testing.T) {
	m := NewStateMachine()

	calls := 0
	m.OnTransition(func(from, to State) { calls++ })

	m.TransitionTo(StateIdle)

	if calls != 0 {
		t.Errorf("Expected no callback for IDLE to IDLE, got: %d", calls)
	}
}
