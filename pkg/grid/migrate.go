package grid

// NeedsMigration reports whether blocks still look like they were laid out on
// a grid of from columns rather than to columns.
//
// The decision is made from span magnitudes alone and is part of the
// migration contract:
//
//   - Equal or non-positive resolutions, or an empty block set, never need
//     migration.
//   - Upscaling (to > from) is needed when every block fits inside the old
//     grid and at least one block has a column or row span smaller than the
//     ratio to/from. Migrated blocks are always at least ratio×ratio, so a
//     second call returns false. A single block that does not fit the old
//     grid vetoes the upscale for the whole set, even if the remaining
//     blocks look legacy: a block wider than the old grid is taken as proof
//     that the layout is already in the new resolution. Callers that know a
//     layout is legacy despite such a block use Rescale.
//   - Downscaling (to < from) is needed when some block does not fit inside
//     the new grid.
//
// A small block deliberately sized in the new resolution can be mistaken for
// a legacy one. Documents that carry an explicit grid version should not
// consult this function.
func NeedsMigration(blocks []Block, from, to int) bool {
	if from <= 0 || to <= 0 || from == to || len(blocks) == 0 {
		return false
	}

	if to < from {
		for _, b := range blocks {
			if !fitsColumns(b, to) {
				return true
			}
		}
		return false
	}

	ratio := to / from
	small := false
	for _, b := range blocks {
		if !fitsColumns(b, from) {
			return false
		}
		if b.ColSpan < ratio || b.RowSpan < ratio {
			small = true
		}
	}
	return small
}

// fitsColumns reports whether b lies within a grid of the given width.
func fitsColumns(b Block, columns int) bool {
	if b.ColSpan > columns {
		return false
	}
	if b.Placed() && b.Column+max(b.ColSpan, 1)-1 > columns {
		return false
	}
	return true
}

// Migrate rescales blocks from a grid of from columns to one of to columns
// when NeedsMigration reports true, and otherwise returns an unmodified copy.
// This makes repeated calls safe.
func (e *Engine) Migrate(blocks []Block, from, to int) []Block {
	if !NeedsMigration(blocks, from, to) {
		return clone(blocks)
	}
	return e.Rescale(blocks, from, to)
}

// Rescale maps blocks from a grid of from columns to one of to columns
// without consulting NeedsMigration. Callers that know the source resolution,
// such as a document with an explicit grid version, use it directly.
//
// Spans are multiplied by to/from (never below 1) and 1-based coordinates are
// mapped with (v-1)*to/from+1, so a block at column 2 of a 3-column grid lands
// on column 4 of a 9-column grid. Results are clamped to the new column count
// and MaxRowSpan. Unplaced blocks stay unplaced. Non-positive resolutions
// return an unmodified copy.
func (e *Engine) Rescale(blocks []Block, from, to int) []Block {
	out := clone(blocks)
	if from <= 0 || to <= 0 || from == to {
		return out
	}

	for i, b := range out {
		b.ColSpan = max(scale(max(b.ColSpan, 1), from, to), 1)
		b.RowSpan = max(scale(max(b.RowSpan, 1), from, to), 1)
		if b.Placed() {
			b.Column = scale(b.Column-1, from, to) + 1
			b.Row = scale(b.Row-1, from, to) + 1
		}

		b.ColSpan = clamp(b.ColSpan, 1, to)
		b.RowSpan = clamp(b.RowSpan, 1, e.maxRowSpan())
		if b.Placed() {
			b.Column = clamp(b.Column, 1, to)
			b.Row = max(b.Row, 1)
			b.ColSpan = clamp(b.ColSpan, 1, to-b.Column+1)
		}
		out[i] = b
	}
	return out
}

// scale maps v from one resolution to another with integer arithmetic.
func scale(v, from, to int) int {
	return v * to / from
}
