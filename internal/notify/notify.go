package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/navali-creations/soothsayer-sub003/internal/cards"
)

// Event describes one completed weight load.
type Event struct {
	Game     cards.Game `json:"game"`
	League   string     `json:"league"`
	Count    int        `json:"count"`
	LoadedAt time.Time  `json:"loadedAt"`
	RunID    string     `json:"runId"`
}

// Sink receives load events.
type Sink interface {
	Notify(ctx context.Context, event Event) error
}

// Broadcaster fans load events out to every registered sink. Sinks are
// isolated from each other: each delivery runs in its own goroutine and a
// failing sink only logs.
type Broadcaster struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewBroadcaster creates a broadcaster over the given sinks.
func NewBroadcaster(sinks ...Sink) *Broadcaster {
	return &Broadcaster{sinks: sinks}
}

// AddSink registers another sink.
func (b *Broadcaster) AddSink(sink Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, sink)
}

// Notify delivers the event to all sinks and always reports success.
func (b *Broadcaster) Notify(ctx context.Context, event Event) error {
	b.mu.RLock()
	sinks := make([]Sink, len(b.sinks))
	copy(sinks, b.sinks)
	b.mu.RUnlock()

	for _, sink := range sinks {
		go func(s Sink) {
			if err := s.Notify(ctx, event); err != nil {
				log.Printf("[Notify] Sink delivery failed: %v", err)
			}
		}(sink)
	}

	return nil
}
