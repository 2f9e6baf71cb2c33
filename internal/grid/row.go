package grid

import (
	"fmt"
)

// Row is an insertion-ordered set of cells with unique ids
type Row struct {
	name  string
	order []string
	cells map[string]Cell
}

// NewRow creates an empty row
func NewRow(name string) *Row {
	return &Row{
		name:  name,
		cells: make(map[string]Cell),
	}
}

func (r *Row) Name() string {
	return r.name
}

// Put appends c. A cell with the same id already in the row is an error.
func (r *Row) Put(c Cell) error {
	if _, ok := r.cells[c.ID()]; ok {
		return fmt.Errorf("%w: %q in row %q", ErrDuplicateCell, c.ID(), r.name)
	}
	r.order = append(r.order, c.ID())
	r.cells[c.ID()] = c
	return nil
}

// Remove destroys the cell and drops it from the row
func (r *Row) Remove(id string) error {
	c, ok := r.cells[id]
	if !ok {
		return fmt.Errorf("%w: %q in row %q", ErrCellNotFound, id, r.name)
	}
	c.Destroy()

	delete(r.cells, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *Row) Get(id string) (Cell, bool) {
	c, ok := r.cells[id]
	return c, ok
}

// Cells returns the cells in insertion order
func (r *Row) Cells() []Cell {
	cells := make([]Cell, 0, len(r.order))
	for _, id := range r.order {
		cells = append(cells, r.cells[id])
	}
	return cells
}

func (r *Row) Len() int {
	return len(r.order)
}

func (r *Row) each(fn func(Cell)) {
	for _, id := range r.order {
		fn(r.cells[id])
	}
}

func (r *Row) destroy() {
	r.each(func(c Cell) { c.Destroy() })
}
