package altitude

import (
	"io"
	"log/slog"
	"math"
	"time"
)

// Config holds the fusion thresholds and weights
type Config struct {
	SeaLevelPressure float64       `yaml:"seaLevelPressure" validate:"gte=0"` // Reference pressure in Pascal
	MaxAccuracy      float64       `yaml:"maxAccuracy" validate:"gte=0"`      // Worst accepted fix accuracy in meters
	MaxAge           time.Duration `yaml:"maxAge" validate:"gte=0"`           // Oldest accepted fix
	AccuracyWeight   float64       `yaml:"accuracyWeight" validate:"gte=0"`
	AgeWeight        float64       `yaml:"ageWeight" validate:"gte=0"`
	Weighting        string        `yaml:"weighting" validate:"omitempty,oneof=timestamp age"`
}

// DefaultConfig returns the thresholds the watch face ships with
func DefaultConfig() Config {
	return Config{
		SeaLevelPressure: StandardPressure,
		MaxAccuracy:      DefaultMaxAccuracy,
		MaxAge:           DefaultMaxAge,
		AccuracyWeight:   DefaultAccuracyWeight,
		AgeWeight:        DefaultAgeWeight,
		Weighting:        "timestamp",
	}
}

// WithPolicy replaces the location weighting policy
func WithPolicy(p WeightPolicy) func(*Engine) {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithLogger sets the logger for the engine
func WithLogger(logger *slog.Logger) func(*Engine) {
	return func(e *Engine) {
		e.logger = logger.With(slog.String("component", "altitude"))
	}
}

// Engine combines a pressure altitude with a location altitude. Fuse is a pure
// function of its inputs; the engine keeps no state between calls.
type Engine struct {
	config Config
	policy WeightPolicy
	logger *slog.Logger
}

// NewEngine creates an engine. Zero config values fall back to the defaults.
func NewEngine(config Config, options ...func(*Engine)) *Engine {
	def := DefaultConfig()
	if config.SeaLevelPressure == 0 {
		config.SeaLevelPressure = def.SeaLevelPressure
	}
	if config.MaxAccuracy == 0 {
		config.MaxAccuracy = def.MaxAccuracy
	}
	if config.MaxAge == 0 {
		config.MaxAge = def.MaxAge
	}
	if config.AccuracyWeight == 0 && config.AgeWeight == 0 {
		config.AccuracyWeight = def.AccuracyWeight
		config.AgeWeight = def.AgeWeight
	}

	policy, ok := PolicyByName(config.Weighting)
	if !ok {
		policy = TimestampWeight
	}

	e := Engine{
		config: config,
		policy: policy,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&e)
	}

	return &e
}

// Config returns the effective configuration
func (e *Engine) Config() Config {
	return e.config
}

// Fuse computes the fused altitude. Pressure is required; the location sample only
// refines it and is ignored when missing, invalid, without altitude, too inaccurate
// or too old.
func (e *Engine) Fuse(pressure *PressureSample, loc *LocationSample, now time.Time) (Fused, error) {
	if pressure == nil {
		return Fused{}, ErrNoPressure
	}

	pAlt, err := PressureAltitude(pressure.Pressure, e.config.SeaLevelPressure)
	if err != nil {
		return Fused{}, err
	}

	pressureOnly := Fused{Value: pAlt, ComputedAt: now, Source: SourcePressure}

	if !e.usable(loc, now) {
		return pressureOnly, nil
	}

	w := e.policy(*loc, now, e.config)
	if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		e.logger.Debug("location weight unusable, using pressure altitude", slog.Float64("weight", w))
		return pressureOnly, nil
	}

	value := (pAlt*0.5 + loc.Altitude*w*0.5) / (0.5 + 0.5*w)

	return Fused{Value: value, ComputedAt: now, Source: SourceCombined, Weight: w}, nil
}

func (e *Engine) usable(loc *LocationSample, now time.Time) bool {
	switch {
	case loc == nil, !loc.Valid, !loc.HasAltitude:
		return false
	case loc.Accuracy > e.config.MaxAccuracy:
		return false
	case now.Sub(loc.Timestamp) > e.config.MaxAge:
		return false
	}
	return true
}
