// Package router serializes backend events onto the player's control loop.
//
// Any number of backend goroutines may Publish; exactly one goroutine
// drains. Events come out in publish order. Each one is checked against
// the currently active backend identity at the moment it is handed over,
// so anything published by a backend that has since been replaced is
// dropped, even if the replacement happened part-way through a drain.
package router

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"player-control/internal/backend"
	"player-control/internal/log"
	"player-control/internal/metrics"
)

// Router is a multi-producer, single-consumer FIFO with stale-event
// suppression.
type Router struct {
	mu     sync.Mutex
	queue  []backend.Event
	ready  chan struct{}
	active uuid.UUID
	log    *logrus.Entry
}

// New returns an empty router with no active backend.
func New() *Router {
	return &Router{
		ready: make(chan struct{}, 1),
		log:   log.For("router"),
	}
}

// Publish enqueues ev. Safe for concurrent use; never blocks on the
// consumer.
func (r *Router) Publish(ev backend.Event) {
	r.mu.Lock()
	r.queue = append(r.queue, ev)
	r.mu.Unlock()

	select {
	case r.ready <- struct{}{}:
	default:
	}
}

// Ready is signaled after Publish. A single signal may cover many events.
func (r *Router) Ready() <-chan struct{} {
	return r.ready
}

// SetActive makes id the only identity whose events are delivered.
// uuid.Nil suppresses everything.
func (r *Router) SetActive(id uuid.UUID) {
	r.mu.Lock()
	r.active = id
	r.mu.Unlock()
}

// Active returns the identity currently accepted.
func (r *Router) Active() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Len returns the number of queued events, stale ones included.
func (r *Router) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// next pops the head of the queue and reports whether it belongs to the
// active backend.
func (r *Router) next() (ev backend.Event, live, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return backend.Event{}, false, false
	}
	ev = r.queue[0]
	r.queue[0] = backend.Event{}
	r.queue = r.queue[1:]
	if len(r.queue) == 0 {
		r.queue = nil
	}
	return ev, r.active != uuid.Nil && ev.Source == r.active, true
}

// Drain hands every queued event to fn, one at a time and in publish
// order, skipping stale ones. fn may call SetActive; the new identity
// applies to the events that follow. Events published while draining are
// delivered in the same call. Drain returns the number delivered.
//
// Only the control goroutine may call Drain.
func (r *Router) Drain(fn func(backend.Event)) int {
	delivered := 0
	for {
		ev, live, ok := r.next()
		if !ok {
			return delivered
		}
		if !live {
			metrics.IncEventStale()
			r.log.WithFields(logrus.Fields{"event": ev.String(), "source": ev.Source}).Debug("dropping stale event")
			continue
		}
		metrics.IncEventRouted(ev.Type.String())
		fn(ev)
		delivered++
	}
}
