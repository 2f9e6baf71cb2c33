package altitude

import (
	"errors"
	"math"
	"time"

	"github.com/roman-kulish/wrist-telemetry/internal/telemetry"
)

const (
	// StandardPressure is the sea level pressure of the standard atmosphere in Pascal
	StandardPressure = 101325.0

	// DefaultMaxAccuracy is the worst location accuracy, in meters, still trusted for fusion
	DefaultMaxAccuracy = 200.0

	// DefaultMaxAge is the oldest location fix still trusted for fusion
	DefaultMaxAge = time.Hour

	// DefaultAccuracyWeight and DefaultAgeWeight are the coefficients of the location
	// confidence weighting
	DefaultAccuracyWeight = 0.3
	DefaultAgeWeight      = 0.7
)

var (
	// ErrNoPressure is returned when fusion is attempted without a pressure reading
	ErrNoPressure = errors.New("altitude: no pressure reading")

	// ErrInvalidPressure is returned for physically impossible pressure readings
	ErrInvalidPressure = errors.New("altitude: pressure must be positive")
)

// Source tells which inputs contributed to a fused value
type Source string

const (
	SourcePressure Source = "pressure"
	SourceCombined Source = "combined"
)

// PressureSample is a raw barometric reading
type PressureSample struct {
	Pressure  float64   // Static pressure in Pascal
	Timestamp time.Time // Time of the reading
}

// LocationSample is the altitude related part of a position fix
type LocationSample struct {
	Altitude    float64   // Altitude in meters, meaningful only when HasAltitude is set
	HasAltitude bool      // Whether the fix carried altitude information
	Accuracy    float64   // Accuracy in meters, lower is better
	Timestamp   time.Time // Time the fix was taken
	Valid       bool      // Whether the fix is usable at all
}

// FromFix converts a position fix to a location sample
func FromFix(f telemetry.Fix) LocationSample {
	s := LocationSample{
		Accuracy:  f.Accuracy,
		Timestamp: f.Timestamp,
		Valid:     !f.Timestamp.IsZero(),
	}
	if f.HasAltitude() {
		s.Altitude = *f.Altitude
		s.HasAltitude = true
	}
	return s
}

// Fused is the output of the fusion engine
type Fused struct {
	Value      float64   // Altitude in meters
	ComputedAt time.Time // Time the value was computed
	Source     Source    // Inputs that contributed to Value
	Weight     float64   // Location confidence weight, zero for pressure only results
}

// PressureAltitude converts a pressure reading to an altitude in meters using the
// international standard atmosphere relative to the reference pressure p0.
func PressureAltitude(p, p0 float64) (float64, error) {
	if !(p > 0) || math.IsInf(p, 0) {
		return 0, ErrInvalidPressure
	}
	if !(p0 > 0) || math.IsInf(p0, 0) {
		return 0, ErrInvalidPressure
	}
	return 44330.0 * (1.0 - math.Pow(p/p0, 1.0/5.255)), nil
}
