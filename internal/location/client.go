// Package location shares a single positioning session between every cell that needs
// fixes. The session is connected while at least one listener is subscribed.
package location

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sony/gobreaker"

	"github.com/roman-kulish/wrist-telemetry/internal/stream"
	"github.com/roman-kulish/wrist-telemetry/internal/telemetry"
)

// ErrUnavailable is returned when the positioning service cannot be reached
var ErrUnavailable = errors.New("positioning service unavailable")

// Backend is the device positioning service
type Backend interface {
	Connect(ctx context.Context) error
	Disconnect() error

	// LastKnown returns the most recent fix the service knows about, if any
	LastKnown() (telemetry.Fix, bool)

	// Start requests fix updates delivered through emit until Stop is called
	Start(emit func(telemetry.Fix)) error
	Stop() error
}

// FixStore persists the most recent fix
type FixStore interface {
	SaveFix(ctx context.Context, f telemetry.Fix) error
	LastFix(ctx context.Context) (telemetry.Fix, bool, error)
}

const (
	defaultConnectTimeout = 10 * time.Second
	defaultBreakerTimeout = 30 * time.Second
	defaultTripAfter      = 3
)

// WithLogger sets the logger for the client
func WithLogger(logger *slog.Logger) func(*Client) {
	return func(c *Client) {
		c.logger = logger.With(slog.String("component", "location"))
	}
}

// WithStore persists fixes to store and restores the last one on start
func WithStore(store FixStore) func(*Client) {
	return func(c *Client) {
		c.store = store
	}
}

// WithFallback sets a fix reported by LastKnown when nothing else is known
func WithFallback(f telemetry.Fix) func(*Client) {
	return func(c *Client) {
		c.fallback = &f
	}
}

// WithConnectTimeout bounds a single connection attempt
func WithConnectTimeout(d time.Duration) func(*Client) {
	return func(c *Client) {
		if d > 0 {
			c.connectTimeout = d
		}
	}
}

// WithBreaker configures the circuit breaker guarding connection attempts: after
// tripAfter consecutive failures no attempt is made for timeout.
func WithBreaker(tripAfter uint32, timeout time.Duration) func(*Client) {
	return func(c *Client) {
		if tripAfter > 0 {
			c.tripAfter = tripAfter
		}
		if timeout > 0 {
			c.breakerTimeout = timeout
		}
	}
}

// Client is the process-wide positioning session
type Client struct {
	backend  Backend
	store    FixStore
	fallback *telemetry.Fix
	hub      *stream.Hub[telemetry.Fix]
	breaker  *gobreaker.CircuitBreaker

	connectTimeout time.Duration
	breakerTimeout time.Duration
	tripAfter      uint32

	mu        sync.Mutex
	last      *telemetry.Fix
	connected bool

	logger *slog.Logger
}

// NewClient creates a client over backend. Fix deliveries are posted through poster.
func NewClient(backend Backend, poster stream.Poster, options ...func(*Client)) *Client {
	c := Client{
		backend:        backend,
		connectTimeout: defaultConnectTimeout,
		breakerTimeout: defaultBreakerTimeout,
		tripAfter:      defaultTripAfter,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "location",
		MaxRequests: 1,
		Timeout:     c.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.tripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})

	c.hub = stream.NewHub[telemetry.Fix]("location", (*session)(&c), poster, stream.WithLogger[telemetry.Fix](c.logger))
	c.restore()

	return &c
}

func (c *Client) restore() {
	if c.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.connectTimeout)
	defer cancel()

	f, ok, err := c.store.LastFix(ctx)
	if err != nil {
		c.logger.Warn(fmt.Sprintf("restoring last fix: %s", err.Error()))
		return
	}
	if ok {
		c.last = &f
		c.logger.Info("restored last fix", slog.String("age", humanize.Time(f.Timestamp)))
	}
}

// Subscribe registers fn for fix updates, connecting the session if needed. An error
// means no subscription was made; the caller may retry later.
func (c *Client) Subscribe(fn func(telemetry.Fix)) (stream.Handle, error) {
	return c.hub.Subscribe(fn)
}

// Unsubscribe removes a listener and disconnects the session after the last one.
// Unknown handles are ignored.
func (c *Client) Unsubscribe(h stream.Handle) bool {
	return c.hub.Unsubscribe(h)
}

// Connected reports whether the session is connected
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Listeners returns the number of subscribed listeners
func (c *Client) Listeners() int {
	return c.hub.Len()
}

// LastKnown returns the freshest fix from the session cache, the backend, the store,
// or the fallback, in that order of preference.
func (c *Client) LastKnown() (telemetry.Fix, bool) {
	c.mu.Lock()
	cached := c.last
	c.mu.Unlock()

	best := cached
	if f, ok := c.backend.LastKnown(); ok && (best == nil || f.Timestamp.After(best.Timestamp)) {
		best = &f
	}
	if best != nil {
		return *best, true
	}
	if c.fallback != nil {
		return *c.fallback, true
	}
	return telemetry.Fix{}, false
}

func (c *Client) receive(f telemetry.Fix) {
	c.mu.Lock()
	if c.last != nil && f.Timestamp.Before(c.last.Timestamp) {
		c.mu.Unlock()
		c.logger.Debug("dropping out of order fix", slog.Time("timestamp", f.Timestamp))
		return
	}
	c.last = &f
	c.mu.Unlock()

	if c.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), c.connectTimeout)
		if err := c.store.SaveFix(ctx, f); err != nil {
			c.logger.Warn(fmt.Sprintf("saving fix: %s", err.Error()))
		}
		cancel()
	}

	c.hub.Publish(f)
}

// session adapts the client to the hub upstream: started on the first listener and
// stopped after the last.
type session Client

func (s *session) Start(func(telemetry.Fix)) error {
	c := (*Client)(s)

	_, err := c.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), c.connectTimeout)
		defer cancel()

		if err := c.backend.Connect(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return fmt.Errorf("connecting: %w", err)
	}

	// fixes are cached and persisted by receive before it publishes them
	if err = c.backend.Start(c.receive); err != nil {
		_ = c.backend.Disconnect()
		return fmt.Errorf("requesting updates: %w", err)
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	c.logger.Info("positioning session connected")

	return nil
}

func (s *session) Stop() error {
	c := (*Client)(s)

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	err := errors.Join(c.backend.Stop(), c.backend.Disconnect())
	c.logger.Info("positioning session disconnected")

	return err
}
