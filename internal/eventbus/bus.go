// Package eventbus carries dispatcher lifecycle signals (reconciled,
// skipped, failed) to in-process consumers like the stats collector.
package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event is one dispatcher lifecycle signal.
//
// Contract:
//   - Publish MUST be non-blocking.
//   - Subscribers MUST drain promptly; slow subscribers drop events.
type Event struct {
	Type string
	Time time.Time

	// Path identifies the dispatch path ("broadcast" or "chat").
	Path string
	// Record is the id of the triggering document.
	Record string
	// Reason explains a skip or failure.
	Reason string
	// Sent/Failed carry per-token accounting for reconciled dispatches.
	Sent   int
	Failed int
}

// Well-known event types.
const (
	TypeReconciled = "dispatch.reconciled"
	TypeSkipped    = "dispatch.skipped"
	TypeFailed     = "dispatch.failed"
)

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns a simple in-memory fanout bus.
//
// It intentionally does not own any background goroutines.
func New() Bus {
	return &fanoutBus{subs: map[uint64]chan Event{}}
}

type fanoutBus struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID atomic.Uint64
}

func (b *fanoutBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	// Snapshot subscribers so Publish doesn't hold locks while attempting sends.
	b.mu.RLock()
	targets := make([]chan Event, 0, len(b.subs))
	for _, ch := range b.subs {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		offer(ch, e)
	}
}

// offer attempts a non-blocking send. If the subscriber unsubscribed
// concurrently and the channel closed, the send panic is recovered.
func offer(ch chan Event, e Event) {
	defer func() { _ = recover() }()
	select {
	case ch <- e:
	default:
	}
}

func (b *fanoutBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)
	id := b.nextID.Add(1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			// Closing is safe because offer() recovers from send panics.
			close(ch)
		})
	}
	return ch, unsub
}
