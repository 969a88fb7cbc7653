package grid

// Reflow repacks blocks from the top-left, removing gaps.
//
// Blocks are taken in their current reading order and placed again one by
// one, each at the first free slot after the block placed before it (see
// placeAfter). No block can claim a hole ahead of its predecessor, so the
// output's reading order equals the input's and a second Reflow changes
// nothing. Gaps remain only where spans force them. The returned slice keeps
// the input slice order.
func (e *Engine) Reflow(blocks []Block) []Block {
	out := clone(blocks)
	occ := NewOccupancy()

	prev := Cell{Col: 0, Row: 1}
	for _, i := range readingOrder(blocks) {
		b := e.clampSpans(out[i].Unplace())
		pos := e.placeAfter(b, occ, prev)
		b.Column, b.Row = pos.Col, pos.Row
		e.Mark(occ, b)
		out[i] = b
		prev = pos
	}
	return out
}
