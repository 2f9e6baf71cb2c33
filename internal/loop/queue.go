// Package loop funnels callbacks arriving on arbitrary goroutines onto the single
// control goroutine that owns the display grid.
package loop

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// ErrQueueClosed is returned when posting to a closed queue
var ErrQueueClosed = errors.New("event queue is closed")

// WithLogger sets the logger for the queue
func WithLogger(logger *slog.Logger) func(*Queue) {
	return func(q *Queue) {
		q.logger = logger.With(slog.String("component", "loop"))
	}
}

type event struct {
	name string
	fn   func()
}

// Queue is an unbounded FIFO of events. Post never blocks and may be called from any
// goroutine; Drain runs the events on the calling goroutine in the order they were
// posted.
type Queue struct {
	mu      sync.Mutex
	pending []event
	closed  bool

	ready  chan struct{}
	logger *slog.Logger
}

// NewQueue creates an empty queue
func NewQueue(options ...func(*Queue)) *Queue {
	q := Queue{
		ready:  make(chan struct{}, 1),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&q)
	}

	return &q
}

// Post appends an event. name is only used for logging.
func (q *Queue) Post(name string, fn func()) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.pending = append(q.pending, event{name: name, fn: fn})
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default: // already signalled
	}
	return nil
}

// Ready is signalled whenever events are waiting to be drained
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Len returns the number of pending events
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain runs pending events until the queue is empty, including events posted by the
// events themselves. It returns the number of events run.
func (q *Queue) Drain() int {
	var n int
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return n
		}
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, ev := range batch {
			q.logger.Debug("running event", slog.String("event", ev.name))
			ev.fn()
			n++
		}
	}
}

// Run drains the queue whenever it is signalled until ctx is done
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			q.Drain()
			return ctx.Err()
		case <-q.ready:
			q.Drain()
		}
	}
}

// Close rejects further events. Pending events can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}
