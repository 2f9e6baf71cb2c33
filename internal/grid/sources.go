package grid

import (
	"github.com/roman-kulish/wrist-telemetry/internal/stream"
	"github.com/roman-kulish/wrist-telemetry/internal/telemetry"
)

// PressureSource pushes barometer readings
type PressureSource interface {
	Subscribe(fn func(telemetry.Pressure)) (stream.Handle, error)
	Unsubscribe(h stream.Handle) bool
}

// LocationSource pushes positioning fixes and answers last-known queries
type LocationSource interface {
	telemetry.Provider
	Subscribe(fn func(telemetry.Fix)) (stream.Handle, error)
	Unsubscribe(h stream.Handle) bool
}
