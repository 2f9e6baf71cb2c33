package grid

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/roman-kulish/wrist-telemetry/internal/permission"
)

// WithLogger sets the logger for the grid
func WithLogger(logger *slog.Logger) func(*Grid) {
	return func(g *Grid) {
		g.logger = logger.With(slog.String("component", "grid"))
	}
}

// WithColors sets the initial background and text colors
func WithColors(background, text colorful.Color) func(*Grid) {
	return func(g *Grid) {
		g.background = background
		g.text = text
	}
}

// Grid is an insertion-ordered set of named rows. It owns no subscriptions; it only
// propagates display state to its cells, rows first and then cells in order.
type Grid struct {
	order []string
	rows  map[string]*Row

	background colorful.Color
	text       colorful.Color

	visible  bool
	ambient  bool
	lowPower bool
	burnIn   bool
	started  bool

	logger *slog.Logger
}

// New creates an empty, visible grid with white text on black
func New(options ...func(*Grid)) *Grid {
	g := Grid{
		rows:       make(map[string]*Row),
		background: Black,
		text:       White,
		visible:    true,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&g)
	}

	return &g
}

// PutRow adds r. A row with the same name is destroyed and replaced in place. The
// cells of r take on the grid's display state and are started if the grid is.
func (g *Grid) PutRow(r *Row) {
	if old, ok := g.rows[r.Name()]; ok {
		if old == r {
			return
		}
		old.destroy()
	} else {
		g.order = append(g.order, r.Name())
	}
	g.rows[r.Name()] = r

	r.each(func(c Cell) {
		g.apply(c)
		if g.started {
			c.Start()
		}
	})
}

// RemoveRow destroys every cell of the row and drops it
func (g *Grid) RemoveRow(name string) bool {
	r, ok := g.rows[name]
	if !ok {
		return false
	}
	r.destroy()

	delete(g.rows, name)
	for i, v := range g.order {
		if v == name {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return true
}

func (g *Grid) Row(name string) (*Row, bool) {
	r, ok := g.rows[name]
	return r, ok
}

// Rows returns the rows in insertion order
func (g *Grid) Rows() []*Row {
	rows := make([]*Row, 0, len(g.order))
	for _, name := range g.order {
		rows = append(rows, g.rows[name])
	}
	return rows
}

// AddCell puts c into the named row, creating the row if needed. The cell takes on
// the grid's current display state and is started if the grid is.
func (g *Grid) AddCell(row string, c Cell) error {
	r, ok := g.rows[row]
	if !ok {
		r = NewRow(row)
		g.PutRow(r)
	}
	if err := r.Put(c); err != nil {
		return fmt.Errorf("adding cell: %w", err)
	}

	g.apply(c)
	if g.started {
		c.Start()
	}
	g.logger.Info("cell added", slog.String("row", row), slog.String("cell", c.ID()))

	return nil
}

func (g *Grid) apply(c Cell) {
	c.SetTextColor(g.text)
	c.SetAmbient(g.ambient)
	c.SetLowPowerRendering(g.lowPower)
	c.SetBurnInProtection(g.burnIn)
	c.SetVisible(g.visible)
}

func (g *Grid) each(fn func(Cell)) {
	for _, name := range g.order {
		g.rows[name].each(fn)
	}
}

// Start applies the grid state to every cell and starts them
func (g *Grid) Start() {
	g.started = true
	g.each(func(c Cell) {
		g.apply(c)
		c.Start()
	})
}

// Destroy tears down every cell
func (g *Grid) Destroy() {
	g.started = false
	g.each(func(c Cell) { c.Destroy() })
	g.logger.Info("grid destroyed")
}

func (g *Grid) SetVisible(visible bool) {
	g.visible = visible
	g.each(func(c Cell) { c.SetVisible(visible) })
}

func (g *Grid) SetAmbient(ambient bool) {
	g.ambient = ambient
	g.each(func(c Cell) { c.SetAmbient(ambient) })
}

// SetLowPowerRendering disables anti-aliasing on every cell
func (g *Grid) SetLowPowerRendering(lowPower bool) {
	g.lowPower = lowPower
	g.each(func(c Cell) { c.SetLowPowerRendering(lowPower) })
}

func (g *Grid) SetBurnInProtection(burnIn bool) {
	g.burnIn = burnIn
	g.each(func(c Cell) { c.SetBurnInProtection(burnIn) })
}

func (g *Grid) SetTextColor(c colorful.Color) {
	g.text = c
	g.each(func(cell Cell) { cell.SetTextColor(c) })
}

func (g *Grid) SetBackgroundColor(c colorful.Color) {
	g.background = c
}

// InvertColors swaps between white on black and black on white
func (g *Grid) InvertColors() {
	if g.background == Black {
		g.SetBackgroundColor(White)
	} else {
		g.SetBackgroundColor(Black)
	}
	if g.text == White {
		g.SetTextColor(Black)
	} else {
		g.SetTextColor(White)
	}
}

// PermissionChanged forwards a permission flip to every cell
func (g *Grid) PermissionChanged(c permission.Capability, granted bool) {
	g.each(func(cell Cell) { cell.PermissionChanged(c, granted) })
}

// Tick refreshes every cell
func (g *Grid) Tick(now time.Time) {
	g.each(func(c Cell) { c.Refresh(now) })
}

func (g *Grid) BackgroundColor() colorful.Color {
	return g.background
}

func (g *Grid) TextColor() colorful.Color {
	return g.text
}

func (g *Grid) Visible() bool {
	return g.visible
}

func (g *Grid) Ambient() bool {
	return g.ambient
}

func (g *Grid) LowPowerRendering() bool {
	return g.lowPower
}

func (g *Grid) BurnInProtection() bool {
	return g.burnIn
}
