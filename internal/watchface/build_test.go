package watchface

import (
	"errors"
	"testing"
	"time"

	"github.com/roman-kulish/wrist-telemetry/internal/grid"
	"github.com/roman-kulish/wrist-telemetry/internal/loop"
	"github.com/roman-kulish/wrist-telemetry/internal/permission"
	"github.com/roman-kulish/wrist-telemetry/internal/stream"
	"github.com/roman-kulish/wrist-telemetry/internal/telemetry"
)

type nopUpstream[T any] struct{}

func (nopUpstream[T]) Start(func(T)) error { return nil }
func (nopUpstream[T]) Stop() error         { return nil }

type staticLocation struct {
	*stream.Hub[telemetry.Fix]
}

func (staticLocation) LastKnown() (telemetry.Fix, bool) {
	return telemetry.Fix{Latitude: 41, Longitude: 11, Accuracy: 3}, true
}

type allowAll struct{}

func (allowAll) Has(permission.Capability) bool { return true }

func testServices() Services {
	q := loop.NewQueue()
	return Services{
		Env: grid.Env{
			Gate:     allowAll{},
			Now:      func() time.Time { return time.Date(2025, time.June, 21, 12, 0, 0, 0, time.UTC) },
			Timezone: time.UTC,
		},
		Pressure: stream.NewHub[telemetry.Pressure]("pressure", nopUpstream[telemetry.Pressure]{}, q),
		Location: staticLocation{stream.NewHub[telemetry.Fix]("location", nopUpstream[telemetry.Fix]{}, q)},
	}
}

func TestBuild_DefaultLayout(t *testing.T) {
	g, err := Build(DefaultLayout(), testServices())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g.Start()
	defer g.Destroy()

	var ids []string
	for _, r := range g.Rows() {
		for _, c := range r.Cells() {
			ids = append(ids, c.ID())
		}
	}
	want := []string{"date", "clock", "sunrise-sunset", "battery", "altitude"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}

	r, _ := g.Row("top")
	c, _ := r.Get("date")
	if c.Text() != "21.06.2025" || c.State() != grid.Active {
		t.Errorf("expected an active date cell, got %q (%s)", c.Text(), c.State())
	}
}

func TestBuild_UnknownKind(t *testing.T) {
	layout := Layout{Rows: []RowSpec{{Name: "top", Cells: []CellSpec{{Kind: "heart-rate"}}}}}
	if _, err := Build(layout, testServices()); !errors.Is(err, ErrUnknownCell) {
		t.Fatalf("expected ErrUnknownCell, got %v", err)
	}
}

func TestBuild_InvalidLayout(t *testing.T) {
	layout := Layout{Rows: []RowSpec{{Cells: []CellSpec{{Kind: Clock}}}}}
	if _, err := Build(layout, testServices()); err == nil {
		t.Fatal("expected an error for a row without a name")
	}
}

func TestBuild_DuplicateRow(t *testing.T) {
	layout := Layout{Rows: []RowSpec{
		{Name: "a", Cells: []CellSpec{{Kind: Clock}}},
		{Name: "a", Cells: []CellSpec{{Kind: Date}}},
	}}
	if _, err := Build(layout, testServices()); !errors.Is(err, ErrDuplicateRow) {
		t.Fatalf("expected ErrDuplicateRow, got %v", err)
	}
}

func TestToggleCell(t *testing.T) {
	s := testServices()
	g, err := Build(DefaultLayout(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g.Start()
	g.SetAmbient(true)

	toggle := DefaultLayout().Optional[0]

	enabled, err := s.ToggleCell(g, toggle)
	if err != nil || !enabled {
		t.Fatalf("expected the cell enabled, got %v err=%v", enabled, err)
	}
	r, _ := g.Row(toggle.Row)
	c, ok := r.Get(toggle.Cell.CellID())
	if !ok || c.State() != grid.Active {
		t.Fatalf("expected a started cell, got ok=%v", ok)
	}
	if c.Style().AntiAlias {
		t.Error("expected the new cell to take on ambient mode")
	}

	enabled, err = s.ToggleCell(g, toggle)
	if err != nil || enabled {
		t.Fatalf("expected the cell disabled, got %v err=%v", enabled, err)
	}
	if c.State() != grid.Detached {
		t.Errorf("expected the removed cell destroyed, got %s", c.State())
	}
}

func TestLayout_SetHour24(t *testing.T) {
	explicit := true
	layout := Layout{
		Rows: []RowSpec{{Name: "main", Cells: []CellSpec{{Kind: Clock}, {Kind: Clock, ID: "utc", Hour24: &explicit}, {Kind: Date}}}},
		Optional: []Toggle{{Row: "main", Cell: CellSpec{Kind: Clock, ID: "second"}}},
	}

	layout.SetHour24(false)

	cells := layout.Rows[0].Cells
	if cells[0].Hour24 == nil || *cells[0].Hour24 {
		t.Errorf("expected the clock switched to 12h, got %v", cells[0].Hour24)
	}
	if !*cells[1].Hour24 {
		t.Error("expected an explicit clock format to be kept")
	}
	if cells[2].Hour24 != nil {
		t.Error("expected non-clock cells untouched")
	}
	if h := layout.Optional[0].Cell.Hour24; h == nil || *h {
		t.Errorf("expected the optional clock switched to 12h, got %v", h)
	}
}
