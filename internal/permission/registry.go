package permission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Capability is a runtime permission a cell can require
type Capability string

const (
	Location    Capability = "location"
	BodySensors Capability = "body_sensors"
)

// Status is the user's answer to a permission request
type Status string

const (
	Granted             Status = "granted"
	Denied              Status = "denied"
	DeniedDoNotAskAgain Status = "denied_do_not_ask_again"
)

// ErrUnknownStatus is returned when parsing an unsupported status
var ErrUnknownStatus = errors.New("unknown permission status")

// ParseCapability validates a capability name
func ParseCapability(s string) (Capability, error) {
	switch c := Capability(s); c {
	case Location, BodySensors:
		return c, nil
	}
	return "", fmt.Errorf("unknown capability %q", s)
}

// ParseStatus validates a status name
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case Granted, Denied, DeniedDoNotAskAgain:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Gate answers whether a capability is currently granted
type Gate interface {
	Has(c Capability) bool
}

// Watcher is notified on the control goroutine when a capability flips
type Watcher func(c Capability, granted bool)

// Poster posts work onto the control goroutine
type Poster interface {
	Post(name string, fn func()) error
}

// StatusStore persists permission statuses between runs
type StatusStore interface {
	SavePermission(ctx context.Context, capability, status string) error
	Permissions(ctx context.Context) (map[string]string, error)
}

// WithLogger sets the logger for the registry
func WithLogger(logger *slog.Logger) func(*Registry) {
	return func(r *Registry) {
		r.logger = logger.With(slog.String("component", "permission"))
	}
}

// WithStore persists statuses to store
func WithStore(store StatusStore) func(*Registry) {
	return func(r *Registry) {
		r.store = store
	}
}

// Registry holds the current status of every capability. Unknown capabilities are
// treated as denied.
type Registry struct {
	poster Poster
	store  StatusStore

	mu       sync.RWMutex
	statuses map[Capability]Status
	watchers []Watcher

	logger *slog.Logger
}

// NewRegistry creates a registry. Statuses saved in the store, if any, are loaded.
func NewRegistry(poster Poster, options ...func(*Registry)) (*Registry, error) {
	r := Registry{
		poster:   poster,
		statuses: make(map[Capability]Status),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&r)
	}

	if r.store != nil {
		saved, err := r.store.Permissions(context.Background())
		if err != nil {
			return nil, fmt.Errorf("loading permissions: %w", err)
		}
		for name, status := range saved {
			c, err := ParseCapability(name)
			if err != nil {
				r.logger.Warn("ignoring saved permission", slog.String("capability", name))
				continue
			}
			st, err := ParseStatus(status)
			if err != nil {
				r.logger.Warn("ignoring saved permission", slog.String("capability", name), slog.String("status", status))
				continue
			}
			r.statuses[c] = st
		}
	}

	return &r, nil
}

// Has implements Gate
func (r *Registry) Has(c Capability) bool {
	return r.Status(c) == Granted
}

// Status returns the status of c, Denied if it was never set
func (r *Registry) Status(c Capability) Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if st, ok := r.statuses[c]; ok {
		return st
	}
	return Denied
}

// CanAskAgain reports whether the host may prompt the user for c
func (r *Registry) CanAskAgain(c Capability) bool {
	return r.Status(c) != DeniedDoNotAskAgain
}

// Watch registers w. Watchers are called in registration order.
func (r *Registry) Watch(w Watcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers = append(r.watchers, w)
}

// Set records a new status for c. It may be called from any goroutine: the change is
// applied and watchers are notified on the control goroutine. Setting the current
// status again is a no-op.
func (r *Registry) Set(c Capability, st Status) error {
	if _, err := ParseStatus(string(st)); err != nil {
		return err
	}
	return r.poster.Post("permission", func() { r.apply(c, st) })
}

func (r *Registry) apply(c Capability, st Status) {
	r.mu.Lock()
	prev, known := r.statuses[c]
	if known && prev == st {
		r.mu.Unlock()
		return
	}
	if !known {
		prev = Denied
	}
	r.statuses[c] = st
	watchers := make([]Watcher, len(r.watchers))
	copy(watchers, r.watchers)
	r.mu.Unlock()

	r.logger.Info("permission changed", slog.String("capability", string(c)), slog.String("status", string(st)))

	if r.store != nil {
		if err := r.store.SavePermission(context.Background(), string(c), string(st)); err != nil {
			r.logger.Error(fmt.Sprintf("saving permission: %s", err.Error()))
		}
	}

	wasGranted, granted := prev == Granted, st == Granted
	if wasGranted == granted {
		return // denied <-> denied_do_not_ask_again
	}
	for _, w := range watchers {
		w(c, granted)
	}
}
