package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/navali-creations/soothsayer-sub003/internal/cards"
)

// TestBroadcaster_DeliversToAllSinks tests that every registered sink
// receives the event
func TestBroadcaster_DeliversToAllSinks(t *testing.T) {
	first := newMockSinkForTest(nil)
	second := newMockSinkForTest(nil)

	b := NewBroadcaster(first, second)

	event := Event{
		Game:     cards.GamePoE1,
		League:   "Keepers of the Flame",
		Count:    2,
		LoadedAt: time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC),
		RunID:    "run-1",
	}

	if err := b.Notify(context.Background(), event); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	for _, sink := range []*mockSinkForTest{first, second} {
		select {
		case got := <-sink.received:
			if got.League != "Keepers of the Flame" {
				t.Errorf("Expected league 'Keepers of the Flame', got: %s", got.League)
			}
			if got.Count != 2 {
				t.Errorf("Expected count 2, got: %d", got.Count)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Sink never received the event")
		}
	}
}

// TestBroadcaster_FailingSinkDoesNotBlockOthers tests that a failing sink
// does not prevent delivery to the remaining sinks
func TestBroadcaster_FailingSinkDoesNotBlockOthers(t *testing.T) {
	failing := newMockSinkForTest(errors.New("sink down"))
	healthy := newMockSinkForTest(nil)

	b := NewBroadcaster(failing, healthy)

	if err := b.Notify(context.Background(), Event{Game: cards.GamePoE2, Count: 1}); err != nil {
		t.Fatalf("Expected no error from broadcast, got: %v", err)
	}

	select {
	case got := <-healthy.received:
		if got.Game != cards.GamePoE2 {
			t.Errorf("Expected game poe2, got: %s", got.Game)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Healthy sink never received the event")
	}

	// The failing sink was still attempted
	select {
	case <-failing.received:
	case <-time.After(2 * time.Second):
		t.Fatal("Failing sink was never attempted")
	}
}

// TestBroadcaster_AddSink tests that sinks registered after construction
// receive subsequent events
func TestBroadcaster_AddSink(t *testing.T) {
	b := NewBroadcaster()

	late := newMockSinkForTest(nil)
	b.AddSink(late)

	if err := b.Notify(context.Background(), Event{Game: cards.GamePoE1, Count: 5}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	select {
	case got := <-late.received:
		if got.Count != 5 {
			t.Errorf("Expected count 5, got: %d", got.Count)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Late-registered sink never received the event")
	}

	if late.calls.Load() != 1 {
		t.Errorf("Expected 1 delivery, got: %d", late.calls.Load())
	}
}

// TestBroadcaster_NoSinks tests that broadcasting with no sinks is a no-op
func TestBroadcaster_NoSinks(t *testing.T) {
	b := NewBroadcaster()

	if err := b.Notify(context.Background(), Event{Game: cards.GamePoE1}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}

// mockSinkForTest records deliveries and can simulate failures
type mockSinkForTest struct {
	err      error
	received chan Event
	calls    atomic.Int32
}

func newMockSinkForTest(err error) *mockSinkForTest {
	return &mockSinkForTest{
		err:      err,
		received: make(chan Event, 4),
	}
}

func (m *mockSinkForTest) Notify(ctx context.Context, event Event) error {
	m.calls.Add(1)
	m.received <- event
	return m.err
}
