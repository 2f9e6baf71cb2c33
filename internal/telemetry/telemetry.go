package telemetry

import (
	"time"
)

// Fix is a single position fix reported by the positioning service
type Fix struct {
	Timestamp time.Time // Time the fix was taken
	Latitude  float64   // Latitude in degrees
	Longitude float64   // Longitude in degrees
	Altitude  *float64  // Altitude above sea level in meters, nil when unknown
	Accuracy  float64   // Horizontal accuracy radius in meters, lower is better
	Provider  string    // Name of the source that produced the fix
}

// HasAltitude reports whether the fix carries altitude information
func (f Fix) HasAltitude() bool {
	return f.Altitude != nil
}

// Pressure is a raw barometric reading from the pressure sensor
type Pressure struct {
	Timestamp time.Time // Time the reading was taken
	Value     float64   // Static pressure in Pascal
}

// Float returns a pointer to v, handy for optional fields such as Fix.Altitude
func Float(v float64) *float64 {
	return &v
}
