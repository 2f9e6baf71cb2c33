package watchface

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roman-kulish/wrist-telemetry/internal/altitude"
	"github.com/roman-kulish/wrist-telemetry/internal/grid"
	"github.com/roman-kulish/wrist-telemetry/internal/telemetry"
)

// Services are the sources and settings the cells are built from
type Services struct {
	Env      grid.Env
	Engine   *altitude.Engine
	Pressure grid.PressureSource
	Location grid.LocationSource
	Battery  telemetry.BatteryMeter
}

// NewCell builds the cell described by spec
func (s Services) NewCell(spec CellSpec) (grid.Cell, error) {
	id := spec.CellID()

	switch spec.Kind {
	case Clock:
		var options []func(*grid.ClockCell)
		if spec.Hour24 != nil && !*spec.Hour24 {
			options = append(options, grid.With12Hour())
		}
		return grid.NewClockCell(id, s.Env, options...), nil

	case Date:
		return grid.NewDateCell(id, s.Env), nil

	case Battery:
		return grid.NewBatteryCell(id, s.Env, s.Battery), nil

	case Altitude:
		if s.Pressure == nil {
			return nil, fmt.Errorf("%s cell needs a pressure source", spec.Kind)
		}
		engine := s.Engine
		if engine == nil {
			engine = altitude.NewEngine(altitude.DefaultConfig())
		}
		return grid.NewAltitudeCell(id, s.Env, engine, s.Pressure, s.Location), nil

	case SunriseSunset, Sunset:
		if s.Location == nil {
			return nil, fmt.Errorf("%s cell needs a location source", spec.Kind)
		}
		mode := grid.SunriseAndSunset
		if spec.Kind == Sunset {
			mode = grid.SunsetOnly
		}
		return grid.NewSunCell(id, s.Env, mode, s.Location), nil

	case Pressure:
		if s.Pressure == nil {
			return nil, fmt.Errorf("%s cell needs a pressure source", spec.Kind)
		}
		return grid.NewPressureCell(id, s.Env, s.Pressure, grid.WithWindow(spec.Window)), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownCell, spec.Kind)
}

// Build assembles a grid from layout. The grid is not started.
func Build(layout Layout, s Services, options ...func(*grid.Grid)) (*grid.Grid, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	g := grid.New(options...)
	for _, r := range layout.Rows {
		g.PutRow(grid.NewRow(r.Name))
		for _, spec := range r.Cells {
			if err := s.EnableCell(g, r.Name, spec); err != nil {
				g.Destroy()
				return nil, fmt.Errorf("building row %q: %w", r.Name, err)
			}
		}
	}

	return g, nil
}

// EnableCell adds the cell described by spec to the row. It takes on the grid's
// current state and is started if the grid is running.
func (s Services) EnableCell(g *grid.Grid, row string, spec CellSpec) error {
	c, err := s.NewCell(spec)
	if err != nil {
		return err
	}
	return g.AddCell(row, c)
}

// ToggleCell enables the cell if it is absent from the row and removes it otherwise.
// It reports whether the cell is now enabled.
func (s Services) ToggleCell(g *grid.Grid, t Toggle) (bool, error) {
	if r, ok := g.Row(t.Row); ok {
		if _, ok = r.Get(t.Cell.CellID()); ok {
			if err := r.Remove(t.Cell.CellID()); err != nil {
				return true, err
			}
			s.logger().Info("cell disabled", slog.String("row", t.Row), slog.String("cell", t.Cell.CellID()))
			return false, nil
		}
	}

	if err := s.EnableCell(g, t.Row, t.Cell); err != nil {
		return false, err
	}
	return true, nil
}

func (s Services) logger() *slog.Logger {
	if s.Env.Logger != nil {
		return s.Env.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
