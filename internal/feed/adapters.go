package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/roman-kulish/wrist-telemetry/internal/telemetry"
)

var ErrNotConnected = errors.New("positioning service is not connected")

// Barometer is the pressure sensor upstream. Readings pushed while nobody listens are
// dropped, as a sensor that is not sampling would.
type Barometer struct {
	mu   sync.Mutex
	emit func(telemetry.Pressure)
}

func (b *Barometer) Start(emit func(telemetry.Pressure)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emit = emit
	return nil
}

func (b *Barometer) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emit = nil
	return nil
}

// Sampling reports whether the sensor is started
func (b *Barometer) Sampling() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.emit != nil
}

func (b *Barometer) Push(p telemetry.Pressure) {
	b.mu.Lock()
	emit := b.emit
	b.mu.Unlock()

	if emit != nil {
		emit(p)
	}
}

// GPS is the positioning service backend. It remembers the last pushed fix whether or
// not updates were requested.
type GPS struct {
	mu        sync.Mutex
	connected bool
	emit      func(telemetry.Fix)
	last      *telemetry.Fix
}

func (g *GPS) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connected = true
	return nil
}

func (g *GPS) Disconnect() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connected = false
	return nil
}

func (g *GPS) LastKnown() (telemetry.Fix, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last == nil {
		return telemetry.Fix{}, false
	}
	return *g.last, true
}

func (g *GPS) Start(emit func(telemetry.Fix)) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.connected {
		return ErrNotConnected
	}
	g.emit = emit
	return nil
}

func (g *GPS) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.emit = nil
	return nil
}

func (g *GPS) Push(f telemetry.Fix) {
	g.mu.Lock()
	g.last = &f
	emit := g.emit
	g.mu.Unlock()

	if emit != nil {
		emit(f)
	}
}

// Battery is the battery meter
type Battery struct {
	mu    sync.Mutex
	level int
	known bool
}

func (b *Battery) Level() (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.level, b.known
}

func (b *Battery) Set(level int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.level, b.known = level, true
}

// HostHandler receives the records that steer the host: permission answers, ambient
// mode and visibility.
type HostHandler func(r Record)

// WithRouterLogger sets the logger for the router
func WithRouterLogger(logger *slog.Logger) func(*Router) {
	return func(r *Router) {
		r.logger = logger.With(slog.String("component", "feed"))
	}
}

// Router sends each record to the adapter that owns it
type Router struct {
	Barometer *Barometer
	GPS       *GPS
	Battery   *Battery
	Host      HostHandler

	logger *slog.Logger
}

// NewRouter creates a router with fresh adapters
func NewRouter(host HostHandler, options ...func(*Router)) *Router {
	r := Router{
		Barometer: &Barometer{},
		GPS:       &GPS{},
		Battery:   &Battery{},
		Host:      host,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&r)
	}

	return &r
}

func (r *Router) Handle(rec Record) {
	switch rec.Kind {
	case KindPressure:
		r.Barometer.Push(rec.Pressure)
	case KindFix:
		r.GPS.Push(rec.Fix)
	case KindBattery:
		r.Battery.Set(rec.Battery)
	case KindPermission, KindAmbient, KindVisible:
		if r.Host == nil {
			r.logger.Debug("no host handler", slog.String("record", string(rec.Kind)))
			return
		}
		r.Host(rec)
	default:
		r.logger.Debug("ignoring record", slog.String("record", string(rec.Kind)))
	}
}
