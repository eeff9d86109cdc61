package mqtt

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sweeney/cylon-meter/internal/logic"
)

// ErrQueueFull is returned when the delivery goroutine has fallen too far
// behind and a message is dropped.
var ErrQueueFull = errors.New("mqtt queue full")

// queued holds exactly one of a display or a system event.
type queued struct {
	event  *logic.Event
	system *SystemEvent
}

// Queue hands messages to another Publisher on its own goroutine, so a slow
// broker never blocks the caller. Publish and PublishSystem only enqueue;
// Run does the delivery.
type Queue struct {
	next Publisher
	log  *zap.SugaredLogger
	msgs chan queued
}

// NewQueue wraps next with a queue holding up to size pending messages.
func NewQueue(next Publisher, size int, log *zap.SugaredLogger) *Queue {
	return &Queue{
		next: next,
		log:  log,
		msgs: make(chan queued, size),
	}
}

// Publish enqueues a display event.
func (q *Queue) Publish(event logic.Event) error {
	return q.enqueue(queued{event: &event})
}

// PublishSystem enqueues a system event.
func (q *Queue) PublishSystem(event SystemEvent) error {
	return q.enqueue(queued{system: &event})
}

func (q *Queue) enqueue(m queued) error {
	select {
	case q.msgs <- m:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run delivers queued messages until ctx is done. Messages enqueued before
// ctx was cancelled are still delivered before Run returns.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case m := <-q.msgs:
			q.deliver(m)
		case <-ctx.Done():
			q.flush()
			return ctx.Err()
		}
	}
}

func (q *Queue) flush() {
	for {
		select {
		case m := <-q.msgs:
			q.deliver(m)
		default:
			return
		}
	}
}

func (q *Queue) deliver(m queued) {
	if m.event != nil {
		if err := q.next.Publish(*m.event); err != nil {
			q.log.Warnw("publish error", "event", m.event.Type, "error", err)
		}
		return
	}
	if err := q.next.PublishSystem(*m.system); err != nil {
		q.log.Warnw("system publish error", "event", m.system.Event, "error", err)
	}
}

// IsConnected reports the wrapped publisher's connection state, or false if
// it does not track one.
func (q *Queue) IsConnected() bool {
	if cs, ok := q.next.(ConnectionStatus); ok {
		return cs.IsConnected()
	}
	return false
}

// Close closes the wrapped publisher. Call it once Run has returned.
func (q *Queue) Close() error {
	return q.next.Close()
}
