package grid

import (
	"fmt"
	"time"
)

const clockInteractiveScale = 0.8

// With12Hour switches the clock to a 12 hour format
func With12Hour() func(*ClockCell) {
	return func(c *ClockCell) {
		c.hour24 = false
	}
}

// ClockCell shows the time of day. Seconds are shown only outside ambient mode.
type ClockCell struct {
	*base
	hour24 bool
}

func NewClockCell(id string, env Env, options ...func(*ClockCell)) *ClockCell {
	c := ClockCell{
		base:   newBase(id, env),
		hour24: true,
	}

	for _, option := range options {
		option(&c)
	}

	c.scale = func(ambient bool) float64 {
		if ambient {
			return 1
		}
		return clockInteractiveScale
	}
	c.update = c.render

	return &c
}

func (c *ClockCell) render(now time.Time) {
	c.setText(FormatClock(now.In(c.env.Timezone), c.hour24, !c.ambient))
}

// FormatClock formats t without a leading zero on the hour
func FormatClock(t time.Time, hour24, seconds bool) string {
	var s string
	if hour24 {
		s = fmt.Sprintf("%d:%02d", t.Hour(), t.Minute())
	} else {
		s = t.Format("3:04")
	}
	if seconds {
		s += fmt.Sprintf(":%02d", t.Second())
	}
	return s
}
