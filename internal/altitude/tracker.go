package altitude

import (
	"time"

	"github.com/roman-kulish/wrist-telemetry/internal/telemetry"
)

// Tracker keeps the most recent raw sample of each source and fuses them on demand.
// It is not safe for concurrent use; it lives on the control goroutine.
type Tracker struct {
	engine   *Engine
	pressure *PressureSample
	location *LocationSample
}

// NewTracker creates a tracker backed by engine
func NewTracker(engine *Engine) *Tracker {
	return &Tracker{engine: engine}
}

// UpdatePressure records the latest pressure reading
func (t *Tracker) UpdatePressure(p telemetry.Pressure) {
	t.pressure = &PressureSample{Pressure: p.Value, Timestamp: p.Timestamp}
}

// UpdateLocation records the latest position fix
func (t *Tracker) UpdateLocation(f telemetry.Fix) {
	s := FromFix(f)
	t.location = &s
}

// ClearLocation forgets the location sample, e.g. after the permission was revoked
func (t *Tracker) ClearLocation() {
	t.location = nil
}

// HasPressure reports whether a pressure reading has been seen
func (t *Tracker) HasPressure() bool {
	return t.pressure != nil
}

// Fused fuses the latest samples
func (t *Tracker) Fused(now time.Time) (Fused, error) {
	return t.engine.Fuse(t.pressure, t.location, now)
}
