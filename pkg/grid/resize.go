package grid

// Resize sets the spans of the block with the given id.
//
// The column span is clamped to [1, Columns-Column+1] so the block cannot grow
// past the right edge, and the row span to [1, MaxRowSpan]. When the clamped
// spans differ from the current ones the block is updated and moved to the end
// of the slice so it paints above its neighbours.
//
// Resize does not repack. Unknown ids, unplaced targets and unchanged spans
// return an unmodified copy. Callers run Reflow once the resize is committed.
func (e *Engine) Resize(blocks []Block, id string, colSpan, rowSpan int) []Block {
	out := clone(blocks)
	i := indexOf(out, id)
	if i < 0 || !out[i].Placed() {
		return out
	}

	b := out[i]
	colSpan = clamp(colSpan, 1, e.Columns-b.Column+1)
	rowSpan = clamp(rowSpan, 1, e.maxRowSpan())
	if colSpan == b.ColSpan && rowSpan == b.RowSpan {
		return out
	}

	b.ColSpan, b.RowSpan = colSpan, rowSpan
	out[i] = b
	toEnd(out, i)
	return out
}

// SpansToCell returns the spans a block anchored at its top-left corner would
// need to reach cell. Results are at least 1; callers clamp via Resize.
func SpansToCell(b Block, cell Cell) (colSpan, rowSpan int) {
	colSpan = cell.Col - b.Column + 1
	rowSpan = cell.Row - b.Row + 1
	if colSpan < 1 {
		colSpan = 1
	}
	if rowSpan < 1 {
		rowSpan = 1
	}
	return colSpan, rowSpan
}

// Move places the block with the given id at cell and moves it to the end of
// the slice. The column is clamped so the block stays inside the grid and the
// row is at least 1. Overlaps created by the move are left for
// ResolveOverlaps. Unknown ids return an unmodified copy.
func (e *Engine) Move(blocks []Block, id string, cell Cell) []Block {
	out := clone(blocks)
	i := indexOf(out, id)
	if i < 0 {
		return out
	}

	b := e.clampSpans(out[i])
	b.Column = clamp(cell.Col, 1, e.Columns-e.width(b)+1)
	b.Row = max(cell.Row, 1)
	out[i] = b
	toEnd(out, i)
	return out
}
