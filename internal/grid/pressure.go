package grid

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/wrist-telemetry/internal/telemetry"
)

const (
	pressureUnknown = "-- hPa"

	DefaultPressureWindow = time.Minute
)

// WithWindow sets the averaging window of the pressure cell
func WithWindow(d time.Duration) func(*PressureCell) {
	return func(c *PressureCell) {
		if d > 0 {
			c.window = d
		}
	}
}

// PressureCell shows the barometric pressure averaged over a sliding window
type PressureCell struct {
	*base
	window  time.Duration
	samples []telemetry.Pressure
}

func NewPressureCell(id string, env Env, pressure PressureSource, options ...func(*PressureCell)) *PressureCell {
	c := PressureCell{
		base:   newBase(id, env),
		window: DefaultPressureWindow,
	}

	for _, option := range options {
		option(&c)
	}

	c.update = c.render
	c.subscribe("pressure", "", func() (func(), error) {
		h, err := pressure.Subscribe(c.onPressure)
		if err != nil {
			return nil, err
		}
		return func() { pressure.Unsubscribe(h) }, nil
	})

	return &c
}

func (c *PressureCell) onPressure(p telemetry.Pressure) {
	c.samples = append(c.samples, p)
	c.render(c.env.Now())
}

// Mean returns the average of the samples inside the window ending at now
func (c *PressureCell) Mean(now time.Time) (float64, bool) {
	cutoff := now.Add(-c.window)

	kept := c.samples[:0]
	for _, s := range c.samples {
		if !s.Timestamp.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	c.samples = kept

	if len(kept) == 0 {
		return 0, false
	}

	var sum float64
	for _, s := range kept {
		sum += s.Value
	}
	return sum / float64(len(kept)), true
}

func (c *PressureCell) render(now time.Time) {
	mean, ok := c.Mean(now)
	if !ok {
		c.setText(pressureUnknown)
		return
	}
	c.setText(humanize.FormatFloat("#,###.#", mean/100) + " hPa")
}
