package grid

import (
	"time"
)

const dateLayout = "02.01.2006"

// DateCell shows the current date
type DateCell struct {
	*base
}

func NewDateCell(id string, env Env) *DateCell {
	c := DateCell{base: newBase(id, env)}
	c.update = func(now time.Time) {
		c.setText(now.In(c.env.Timezone).Format(dateLayout))
	}
	return &c
}
