package orchestrator

import (
	"sync"

	"github.com/radium-run/radium/pkg/radium"
)

// eventBusBufferSize bounds each consumer's channel; a slow consumer lags
// rather than blocking the producer (spec.md §4.5: "bounded, lossy").
const eventBusBufferSize = 256

// Broadcaster is a bounded, lossy, multi-consumer event channel. Producers
// never block: a consumer that falls behind has its oldest queued event
// dropped in favor of the new one, and is told how many it missed via
// LaggedCount on its next delivered event. Grounded on
// internal/agent/event_sink.go's multi-sink fan-out, adapted to the
// bounded-channel contract spec.md §4.5 requires.
type Broadcaster struct {
	mu        sync.Mutex
	consumers map[int]*consumer
	nextID    int
}

type consumer struct {
	ch            chan radium.OrchestrationEvent
	correlationID string
	lagged        int
}

// NewBroadcaster constructs an empty event broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{consumers: make(map[int]*consumer)}
}

// Subscribe registers a new consumer filtered to one correlation id. The
// returned channel is closed by Unsubscribe; callers should range over it
// until closed or call Unsubscribe when done.
func (b *Broadcaster) Subscribe(correlationID string) (<-chan radium.OrchestrationEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	c := &consumer{ch: make(chan radium.OrchestrationEvent, eventBusBufferSize), correlationID: correlationID}
	b.consumers[id] = c

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.consumers[id]; ok {
			close(existing.ch)
			delete(b.consumers, id)
		}
	}
	return c.ch, unsubscribe
}

// Publish delivers ev to every consumer subscribed to its correlation id.
// A full consumer channel has its oldest event dropped to make room,
// incrementing that consumer's lag counter, which is surfaced on the next
// event that does fit (spec.md §4.5: "reports skipped counts rather than
// blocking producers").
func (b *Broadcaster) Publish(ev radium.OrchestrationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range b.consumers {
		if c.correlationID != "" && ev.CorrelationID != "" && c.correlationID != ev.CorrelationID {
			continue
		}
		toSend := ev
		if c.lagged > 0 {
			toSend.LaggedCount = c.lagged
		}

		select {
		case c.ch <- toSend:
			c.lagged = 0
		default:
			select {
			case <-c.ch:
				c.lagged++
			default:
			}
			select {
			case c.ch <- toSend:
				c.lagged = 0
			default:
				c.lagged++
			}
		}
	}
}
