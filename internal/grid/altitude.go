package grid

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/wrist-telemetry/internal/altitude"
	"github.com/roman-kulish/wrist-telemetry/internal/permission"
	"github.com/roman-kulish/wrist-telemetry/internal/telemetry"
)

const altitudeUnknown = "-- m"

// AltitudeCell shows the fused altitude. The barometer is always subscribed while
// visible; fixes are mixed in only while location is permitted.
type AltitudeCell struct {
	*base
	tracker *altitude.Tracker
}

func NewAltitudeCell(id string, env Env, engine *altitude.Engine, pressure PressureSource, location LocationSource) *AltitudeCell {
	c := AltitudeCell{
		base:    newBase(id, env),
		tracker: altitude.NewTracker(engine),
	}
	c.update = c.render

	c.subscribe("pressure", "", func() (func(), error) {
		h, err := pressure.Subscribe(c.onPressure)
		if err != nil {
			return nil, err
		}
		return func() { pressure.Unsubscribe(h) }, nil
	})

	if location != nil {
		c.subscribe("location", permission.Location, func() (func(), error) {
			h, err := location.Subscribe(c.onFix)
			if err != nil {
				return nil, err
			}
			if f, ok := location.LastKnown(); ok {
				c.tracker.UpdateLocation(f)
			}
			return func() {
				location.Unsubscribe(h)
				c.tracker.ClearLocation()
			}, nil
		})
	}

	return &c
}

func (c *AltitudeCell) onPressure(p telemetry.Pressure) {
	c.tracker.UpdatePressure(p)
	c.render(c.env.Now())
}

func (c *AltitudeCell) onFix(f telemetry.Fix) {
	c.tracker.UpdateLocation(f)
	c.render(c.env.Now())
}

func (c *AltitudeCell) render(now time.Time) {
	fused, err := c.tracker.Fused(now)
	switch {
	case errors.Is(err, altitude.ErrNoPressure):
		c.setText(altitudeUnknown)
		return
	case err != nil:
		// keep the last text
		c.logger.Warn(fmt.Sprintf("fusing altitude: %s", err.Error()))
		return
	}

	c.setText(FormatAltitude(fused.Value))
	c.logger.Debug("altitude", slog.Float64("value", fused.Value), slog.String("source", string(fused.Source)))
}

// FormatAltitude renders meters rounded to whole meters with thousands separators
func FormatAltitude(v float64) string {
	return humanize.Comma(int64(math.Round(v))) + " m"
}
