package grid

// ResolveOverlaps returns a copy of blocks with no two blocks sharing a cell.
//
// Blocks are visited in reading order. A block is kept in place when none of
// its cells are taken by a block kept before it; otherwise it is an intruder.
// Once every block has been classified, intruders and unplaced blocks are
// moved, still in reading order, to the first free slot at or below their
// own row.
//
// A block that overlapped nothing is always kept, so its coordinates never
// change. Slice order (and so paint order) is preserved.
func (e *Engine) ResolveOverlaps(blocks []Block) []Block {
	out := clone(blocks)
	occ := NewOccupancy()

	var intruders []int
	for _, i := range readingOrder(out) {
		if e.Fits(occ, out[i]) {
			e.Mark(occ, out[i])
			continue
		}
		intruders = append(intruders, i)
	}

	for _, i := range intruders {
		b := out[i]
		pos := e.FindPosition(b, occ, b.Row)
		b.Column, b.Row = pos.Col, pos.Row
		e.Mark(occ, b)
		out[i] = b
	}
	return out
}

// Conflicts returns the pairs of block ids that overlap, in reading order.
func (e *Engine) Conflicts(blocks []Block) [][2]string {
	order := readingOrder(blocks)
	var pairs [][2]string
	for x, i := range order {
		for _, j := range order[x+1:] {
			if e.Overlaps(blocks[i], blocks[j]) {
				pairs = append(pairs, [2]string{blocks[i].ID, blocks[j].ID})
			}
		}
	}
	return pairs
}
