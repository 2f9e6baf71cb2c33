// Package watchface knows the catalog of cells and assembles a grid from a layout.
package watchface

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Kind names a cell type in the catalog
type Kind string

const (
	Clock         Kind = "clock"
	Date          Kind = "date"
	Battery       Kind = "battery"
	Altitude      Kind = "altitude"
	SunriseSunset Kind = "sunrise-sunset"
	Sunset        Kind = "sunset"
	Pressure      Kind = "pressure"
)

// ErrUnknownCell is returned for a cell kind missing from the catalog
var ErrUnknownCell = errors.New("unknown cell kind")

// ErrDuplicateRow is returned when two layout rows share a name
var ErrDuplicateRow = errors.New("duplicate row name")

// CellSpec describes one cell
type CellSpec struct {
	Kind   Kind          `yaml:"kind" validate:"required"`
	ID     string        `yaml:"id"`
	Hour24 *bool         `yaml:"hour24"`
	Window time.Duration `yaml:"window" validate:"gte=0"`
}

// CellID returns the id of the cell, the kind when none is set
func (s CellSpec) CellID() string {
	if s.ID != "" {
		return s.ID
	}
	return string(s.Kind)
}

// RowSpec describes one row
type RowSpec struct {
	Name  string     `yaml:"name" validate:"required"`
	Cells []CellSpec `yaml:"cells" validate:"dive"`
}

// Toggle is a cell that can be switched on and off at runtime
type Toggle struct {
	Row  string   `yaml:"row" validate:"required"`
	Cell CellSpec `yaml:"cell"`
}

// Layout is the arrangement of the watch face
type Layout struct {
	Rows     []RowSpec `yaml:"rows" validate:"required,dive"`
	Optional []Toggle  `yaml:"optional" validate:"max=9,dive"`
}

// DefaultLayout is date above a large clock, the sun times below, then battery and
// altitude side by side.
func DefaultLayout() Layout {
	return Layout{
		Rows: []RowSpec{
			{Name: "top", Cells: []CellSpec{{Kind: Date}}},
			{Name: "center", Cells: []CellSpec{{Kind: Clock}}},
			{Name: "sun", Cells: []CellSpec{{Kind: SunriseSunset}}},
			{Name: "bottom", Cells: []CellSpec{{Kind: Battery}, {Kind: Altitude}}},
		},
		Optional: []Toggle{
			{Row: "bottom", Cell: CellSpec{Kind: Pressure}},
			{Row: "sun", Cell: CellSpec{Kind: Sunset}},
		},
	}
}

// SetHour24 sets the clock format of every clock cell that does not choose one
func (l *Layout) SetHour24(hour24 bool) {
	set := func(s *CellSpec) {
		if s.Kind == Clock && s.Hour24 == nil {
			s.Hour24 = &hour24
		}
	}
	for i := range l.Rows {
		for j := range l.Rows[i].Cells {
			set(&l.Rows[i].Cells[j])
		}
	}
	for i := range l.Optional {
		set(&l.Optional[i].Cell)
	}
}

// Validate checks the layout structure and that every kind is known
func (l Layout) Validate() error {
	if err := validator.New().Struct(l); err != nil {
		return fmt.Errorf("validating layout: %w", err)
	}

	check := func(s CellSpec) error {
		if !s.Kind.valid() {
			return fmt.Errorf("%w: %q", ErrUnknownCell, s.Kind)
		}
		return nil
	}

	names := make(map[string]struct{}, len(l.Rows))
	for _, r := range l.Rows {
		if _, ok := names[r.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateRow, r.Name)
		}
		names[r.Name] = struct{}{}

		for _, c := range r.Cells {
			if err := check(c); err != nil {
				return err
			}
		}
	}
	for _, t := range l.Optional {
		if err := check(t.Cell); err != nil {
			return err
		}
	}

	return nil
}

func (k Kind) valid() bool {
	switch k {
	case Clock, Date, Battery, Altitude, SunriseSunset, Sunset, Pressure:
		return true
	}
	return false
}
