package dispatch

import (
	"context"

	"github.com/waitline/waitline/internal/domain"
)

// Queue fans queue events out to the delivery workers over two buffered
// channels.
//
// Buffer sizes reflect expected traffic:
//
//	urgent: 1 000, turn calls and proximity fires; small buffer applies
//	        back-pressure quickly
//	normal: 5 000, join confirmations and position updates
//
// Workers dequeue via the double-select pattern, which guarantees urgent
// events are always served before normal ones while still letting a
// worker sleep when both channels are empty.
type Queue struct {
	urgent chan Event
	normal chan Event
}

func New() *Queue {
	return &Queue{
		urgent: make(chan Event, 1000),
		normal: make(chan Event, 5000),
	}
}

// Enqueue places an event on the appropriate channel. It is
// non-blocking: when the target channel is full, ErrDispatchFull is
// returned immediately rather than stalling the coordinator.
func (q *Queue) Enqueue(e Event) error {
	target := q.normal
	if e.Urgent() {
		target = q.urgent
	}
	select {
	case target <- e:
		return nil
	default:
		return domain.ErrDispatchFull
	}
}

// Dequeue blocks until an event is available or ctx is cancelled.
//
// The first non-blocking select drains urgent before entering a fair
// blocking select across both channels, so urgent events cannot starve
// behind a backlog of normal ones. Returns (Event{}, false) when ctx is
// cancelled (graceful shutdown signal).
func (q *Queue) Dequeue(ctx context.Context) (Event, bool) {
	select {
	case e := <-q.urgent:
		return e, true
	default:
	}

	select {
	case e := <-q.urgent:
		return e, true
	case e := <-q.normal:
		return e, true
	case <-ctx.Done():
		return Event{}, false
	}
}

// Depths returns the number of events waiting in each tier. Used by the
// metrics snapshot endpoint and the prometheus gauges.
func (q *Queue) Depths() (urgent, normal int) {
	return len(q.urgent), len(q.normal)
}
