package grid

import (
	"cmp"
	"slices"
)

// Normalize returns a copy of blocks in which every block has valid
// coordinates.
//
// Positioned blocks are clamped into the grid first: the column into
// [1, Columns], the column span so the block ends at or before the right
// edge, the row span into [1, MaxRowSpan]. Unplaced blocks are then placed in
// slice order with FindPosition against everything placed so far, so earlier
// blocks win ties for a slot.
//
// Normalize does not move positioned blocks that overlap each other; that is
// the job of ResolveOverlaps.
func (e *Engine) Normalize(blocks []Block) []Block {
	out := clone(blocks)
	occ := NewOccupancy()

	for i := range out {
		if !out[i].Placed() {
			continue
		}
		out[i] = e.clampPlaced(out[i])
		e.Mark(occ, out[i])
	}

	for i := range out {
		if out[i].Placed() {
			continue
		}
		b := e.clampSpans(out[i])
		pos := e.FindPosition(b, occ, 1)
		b.Column, b.Row = pos.Col, pos.Row
		e.Mark(occ, b)
		out[i] = b
	}
	return out
}

// clampSpans bounds the spans of b without looking at its position.
func (e *Engine) clampSpans(b Block) Block {
	b.ColSpan = clamp(b.ColSpan, 1, e.Columns)
	b.RowSpan = clamp(b.RowSpan, 1, e.maxRowSpan())
	return b
}

// clampPlaced bounds the coordinates and spans of a positioned block.
func (e *Engine) clampPlaced(b Block) Block {
	b.Column = clamp(b.Column, 1, e.Columns)
	if b.Row < 1 {
		b.Row = 1
	}
	b.ColSpan = clamp(b.ColSpan, 1, e.Columns-b.Column+1)
	b.RowSpan = clamp(b.RowSpan, 1, e.maxRowSpan())
	return b
}

// readingOrder returns the indices of blocks sorted by (row, column).
// Unplaced blocks follow all placed ones in slice order.
func readingOrder(blocks []Block) []int {
	idx := make([]int, len(blocks))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		ba, bb := blocks[a], blocks[b]
		switch {
		case ba.Placed() && !bb.Placed():
			return -1
		case !ba.Placed() && bb.Placed():
			return 1
		case !ba.Placed() && !bb.Placed():
			return 0
		}
		if c := cmp.Compare(ba.Row, bb.Row); c != 0 {
			return c
		}
		return cmp.Compare(ba.Column, bb.Column)
	})
	return idx
}
