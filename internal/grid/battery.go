package grid

import (
	"fmt"
	"time"

	"github.com/roman-kulish/wrist-telemetry/internal/telemetry"
)

// BatteryCell shows the charge level reported by the meter
type BatteryCell struct {
	*base
	meter telemetry.BatteryMeter
}

func NewBatteryCell(id string, env Env, meter telemetry.BatteryMeter) *BatteryCell {
	c := BatteryCell{
		base:  newBase(id, env),
		meter: meter,
	}
	c.update = c.render
	return &c
}

func (c *BatteryCell) render(time.Time) {
	if c.meter == nil {
		c.setText("--%")
		return
	}
	level, ok := c.meter.Level()
	if !ok {
		c.setText("--%")
		return
	}
	c.setText(fmt.Sprintf("%d%%", level))
}
