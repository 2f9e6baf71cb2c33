package grid

import (
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/roman-kulish/wrist-telemetry/internal/permission"
	"github.com/roman-kulish/wrist-telemetry/internal/telemetry"
)

const (
	sunUnknown = "--:--"

	sunriseGlyph = "↑"
	sunsetGlyph  = "↓"
)

// SunMode selects which events a SunCell shows
type SunMode int

const (
	SunriseAndSunset SunMode = iota
	SunsetOnly
)

// SunCell shows today's sunrise and sunset at the last known position. It needs the
// location permission; without it the cell stays inactive with placeholder text.
type SunCell struct {
	*base
	mode SunMode
	fix  *telemetry.Fix
}

func NewSunCell(id string, env Env, mode SunMode, location LocationSource) *SunCell {
	c := SunCell{
		base: newBase(id, env),
		mode: mode,
	}
	c.update = c.render
	c.require(permission.Location)

	c.subscribe("location", permission.Location, func() (func(), error) {
		h, err := location.Subscribe(c.onFix)
		if err != nil {
			return nil, err
		}
		if f, ok := location.LastKnown(); ok {
			c.fix = &f
		}
		return func() { location.Unsubscribe(h) }, nil
	})

	return &c
}

func (c *SunCell) onFix(f telemetry.Fix) {
	c.fix = &f
	c.render(c.env.Now())
}

func (c *SunCell) render(now time.Time) {
	if c.fix == nil || !c.has(permission.Location) {
		c.setText(c.format(sunUnknown, sunUnknown))
		return
	}

	rise, set := SunTimes(*c.fix, now, c.env.Timezone)
	c.setText(c.format(rise, set))
}

func (c *SunCell) format(rise, set string) string {
	if c.mode == SunsetOnly {
		return sunsetGlyph + set
	}
	return sunriseGlyph + rise + " " + sunsetGlyph + set
}

// SunTimes returns today's sunrise and sunset at the fix position as "15:04" in tz.
// Days without a sunrise or sunset, such as polar day or night, yield "--:--".
func SunTimes(f telemetry.Fix, now time.Time, tz *time.Location) (rise, set string) {
	local := now.In(tz)
	r, s := sunrise.SunriseSunset(f.Latitude, f.Longitude, local.Year(), local.Month(), local.Day())

	rise, set = sunUnknown, sunUnknown
	if !r.IsZero() {
		rise = r.In(tz).Format("15:04")
	}
	if !s.IsZero() {
		set = s.In(tz).Format("15:04")
	}
	return rise, set
}
