// Package input turns pointer activity into queued damage events.
package input

import (
	"sync"

	"github.com/pthm-cable/regrow/grid"
)

// DamageEvent is a pointer sample mapped into grid coordinates.
type DamageEvent = grid.Point

// Queue collects damage events from the input side until the scheduler
// drains them. Push may be called from any goroutine.
type Queue struct {
	mu     sync.Mutex
	events []DamageEvent
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends an event.
func (q *Queue) Push(ev DamageEvent) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
}

// Drain swaps the pending events for an empty queue and returns them.
// An event pushed concurrently lands in exactly one drain.
func (q *Queue) Drain() []DamageEvent {
	q.mu.Lock()
	evs := q.events
	q.events = nil
	q.mu.Unlock()
	return evs
}

// Len reports how many events are pending.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
