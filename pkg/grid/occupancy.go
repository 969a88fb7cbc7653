package grid

import "fmt"

// Cell addresses one grid cell. Both coordinates are 1-based.
type Cell struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// String returns the cell as "(col,row)".
func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.Col, c.Row) }

// Occupancy is a set of occupied cells.
type Occupancy struct {
	cells  map[Cell]struct{}
	maxRow int
}

// NewOccupancy returns an empty occupancy set.
func NewOccupancy() *Occupancy {
	return &Occupancy{cells: make(map[Cell]struct{})}
}

// Has reports whether c is occupied.
func (o *Occupancy) Has(c Cell) bool {
	_, ok := o.cells[c]
	return ok
}

// Len returns the number of occupied cells.
func (o *Occupancy) Len() int { return len(o.cells) }

// MaxRow returns the lowest occupied row, or 0 when empty.
func (o *Occupancy) MaxRow() int { return o.maxRow }

// fill marks the w×h rectangle at (col,row).
func (o *Occupancy) fill(col, row, w, h int) {
	for r := row; r < row+h; r++ {
		for c := col; c < col+w; c++ {
			o.cells[Cell{Col: c, Row: r}] = struct{}{}
		}
	}
	if last := row + h - 1; last > o.maxRow {
		o.maxRow = last
	}
}

// free reports whether every cell of the w×h rectangle at (col,row) is free.
func (o *Occupancy) free(col, row, w, h int) bool {
	for r := row; r < row+h; r++ {
		for c := col; c < col+w; c++ {
			if o.Has(Cell{Col: c, Row: r}) {
				return false
			}
		}
	}
	return true
}

// Mark adds the cells covered by b. Unplaced blocks are ignored.
func (e *Engine) Mark(o *Occupancy, b Block) {
	if !b.Placed() {
		return
	}
	o.fill(b.Column, b.Row, e.width(b), e.height(b))
}

// Fits reports whether b would be entirely on free cells at its own
// coordinates. Unplaced blocks never fit.
func (e *Engine) Fits(o *Occupancy, b Block) bool {
	if !b.Placed() {
		return false
	}
	return o.free(b.Column, b.Row, e.width(b), e.height(b))
}

// OccupiedCells returns the cells covered by all blocks except those whose
// id is listed in exclude.
func (e *Engine) OccupiedCells(blocks []Block, exclude ...string) *Occupancy {
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	o := NewOccupancy()
	for _, b := range blocks {
		if skip[b.ID] {
			continue
		}
		e.Mark(o, b)
	}
	return o
}

// Overlaps reports whether a and b share at least one cell. Blocks that only
// touch along an edge do not overlap.
func (e *Engine) Overlaps(a, b Block) bool {
	if !a.Placed() || !b.Placed() {
		return false
	}
	aRight, bRight := a.Column+e.width(a), b.Column+e.width(b)
	aBottom, bBottom := a.Row+e.height(a), b.Row+e.height(b)
	return a.Column < bRight && b.Column < aRight &&
		a.Row < bBottom && b.Row < aBottom
}
