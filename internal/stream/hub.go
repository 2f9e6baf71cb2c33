package stream

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Handle identifies a single listener registration
type Handle string

// Upstream is a device level push source. Start requests updates and returns
// immediately; values arrive later through emit, on any goroutine.
type Upstream[T any] interface {
	Start(emit func(T)) error
	Stop() error
}

// Poster posts work onto the control goroutine
type Poster interface {
	Post(name string, fn func()) error
}

// WithLogger sets the logger for the hub
func WithLogger[T any](logger *slog.Logger) func(*Hub[T]) {
	return func(h *Hub[T]) {
		h.logger = logger.With(slog.String("stream", h.name))
	}
}

type listener[T any] struct {
	handle Handle
	fn     func(T)
}

// Hub multiplexes one upstream subscription to any number of listeners. The
// upstream runs while at least one listener is registered. Values are delivered
// to listeners on the control goroutine, in registration order.
type Hub[T any] struct {
	name     string
	upstream Upstream[T]
	poster   Poster

	mu        sync.Mutex
	listeners []listener[T]
	running   bool

	logger *slog.Logger
}

// NewHub creates a hub over upstream. Deliveries are posted through poster.
func NewHub[T any](name string, upstream Upstream[T], poster Poster, options ...func(*Hub[T])) *Hub[T] {
	h := Hub[T]{
		name:     name,
		upstream: upstream,
		poster:   poster,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&h)
	}

	return &h
}

// Name returns the stream name
func (h *Hub[T]) Name() string {
	return h.name
}

// Subscribe registers fn and starts the upstream if it is the first listener.
// If the upstream fails to start nothing is registered.
func (h *Hub[T]) Subscribe(fn func(T)) (Handle, error) {
	if fn == nil {
		return "", errors.New("stream: nil listener")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		if err := h.upstream.Start(h.Publish); err != nil {
			return "", fmt.Errorf("starting %s stream: %w", h.name, err)
		}
		h.running = true
		h.logger.Info("stream started")
	}

	handle := Handle(uuid.NewString())
	h.listeners = append(h.listeners, listener[T]{handle: handle, fn: fn})
	h.logger.Debug("listener registered", slog.String("handle", string(handle)), slog.Int("listeners", len(h.listeners)))

	return handle, nil
}

// Unsubscribe removes a listener and stops the upstream after the last one. It
// reports whether handle was registered; unknown handles are ignored.
func (h *Hub[T]) Unsubscribe(handle Handle) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := -1
	for i, l := range h.listeners {
		if l.handle == handle {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	h.listeners = append(h.listeners[:idx], h.listeners[idx+1:]...)
	h.logger.Debug("listener removed", slog.String("handle", string(handle)), slog.Int("listeners", len(h.listeners)))

	if len(h.listeners) == 0 && h.running {
		if err := h.upstream.Stop(); err != nil {
			h.logger.Warn(fmt.Sprintf("stopping stream: %s", err.Error()))
		}
		h.running = false
		h.logger.Info("stream stopped")
	}

	return true
}

// Publish hands v to the listeners. It may be called from any goroutine; delivery
// happens on the control goroutine.
func (h *Hub[T]) Publish(v T) {
	if err := h.poster.Post(h.name, func() { h.dispatch(v) }); err != nil {
		h.logger.Debug("dropping value", slog.String("reason", err.Error()))
	}
}

func (h *Hub[T]) dispatch(v T) {
	h.mu.Lock()
	snapshot := make([]listener[T], len(h.listeners))
	copy(snapshot, h.listeners)
	h.mu.Unlock()

	for _, l := range snapshot {
		if !h.registered(l.handle) {
			continue // removed by an earlier listener in this dispatch
		}
		l.fn(v)
	}
}

func (h *Hub[T]) registered(handle Handle) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, l := range h.listeners {
		if l.handle == handle {
			return true
		}
	}
	return false
}

// Len returns the number of registered listeners
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// Running reports whether the upstream is started
func (h *Hub[T]) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}
