package grid

// FindPosition returns the first free slot for b in reading order, starting
// at startRow.
//
// Rows startRow through startRow+SearchRows-1 are scanned first, then the rows
// above startRow. If neither scan finds room, the result of FallbackPosition
// is returned. The block's current coordinates are ignored; only its spans
// matter.
func (e *Engine) FindPosition(b Block, occupied *Occupancy, startRow int) Cell {
	if occupied == nil {
		occupied = NewOccupancy()
	}
	if startRow < 1 {
		startRow = 1
	}
	w, h := e.width(b), e.height(b)

	if c, ok := e.scan(occupied, w, h, startRow, startRow+e.searchRows()-1); ok {
		return c
	}
	if c, ok := e.scan(occupied, w, h, 1, startRow-1); ok {
		return c
	}
	return e.FallbackPosition(occupied, startRow)
}

// scan looks for a w×h free rectangle with its top row in [from, to].
func (e *Engine) scan(o *Occupancy, w, h, from, to int) (Cell, bool) {
	lastCol := e.Columns - w + 1
	for row := from; row <= to; row++ {
		for col := 1; col <= lastCol; col++ {
			if o.free(col, row, w, h) {
				return Cell{Col: col, Row: row}, true
			}
		}
	}
	return Cell{}, false
}

// FallbackPosition is the append policy used when a bounded scan finds no
// room. The block goes to column 1, just past the search bound and below
// every occupied row, so the returned slot is always free.
func (e *Engine) FallbackPosition(occupied *Occupancy, startRow int) Cell {
	if startRow < 1 {
		startRow = 1
	}
	row := startRow + e.searchRows()
	if occupied != nil && occupied.MaxRow() >= row {
		row = occupied.MaxRow() + 1
	}
	return Cell{Col: 1, Row: row}
}

// placeAfter returns the first free slot for b that comes strictly after
// prev in reading order: later columns of prev's row, then the rows below.
// Unlike FindPosition it never wraps back above prev, which keeps compaction
// monotone.
func (e *Engine) placeAfter(b Block, occupied *Occupancy, prev Cell) Cell {
	w, h := e.width(b), e.height(b)
	row := max(prev.Row, 1)

	for col := prev.Col + 1; col <= e.Columns-w+1; col++ {
		if occupied.free(col, row, w, h) {
			return Cell{Col: col, Row: row}
		}
	}
	if c, ok := e.scan(occupied, w, h, row+1, row+e.searchRows()); ok {
		return c
	}
	return e.FallbackPosition(occupied, row+1)
}
