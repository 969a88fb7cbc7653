package grid

// Default engine parameters.
const (
	// DefaultColumns is the column count of the current grid resolution.
	DefaultColumns = 9

	// LegacyColumns is the column count used by version 1 documents.
	LegacyColumns = 3

	// DefaultMaxRowSpan bounds block height in rows.
	DefaultMaxRowSpan = 12

	// DefaultSearchRows bounds how many rows a single placement scan covers.
	DefaultSearchRows = 500
)

// Block is a rectangle placed on the grid.
//
// Column and Row are 1-based. A zero in either field means the block is
// unplaced and needs auto-placement.
type Block struct {
	ID      string
	Kind    string
	Column  int
	Row     int
	ColSpan int
	RowSpan int

	// Payload carries kind-specific data. The engine never inspects it.
	Payload any
}

// Placed reports whether the block has coordinates.
func (b Block) Placed() bool { return b.Column != 0 && b.Row != 0 }

// Position returns the top-left cell of the block.
func (b Block) Position() Cell { return Cell{Col: b.Column, Row: b.Row} }

// Unplace returns a copy of b without coordinates.
func (b Block) Unplace() Block {
	b.Column, b.Row = 0, 0
	return b
}

// Engine holds the grid geometry. The zero value is not usable; use New or
// Default.
type Engine struct {
	Columns    int // grid width in cells
	MaxRowSpan int // upper bound for Block.RowSpan
	SearchRows int // rows covered by one placement scan
}

// New returns an engine for a grid of the given column count with default
// row limits. Non-positive counts fall back to DefaultColumns.
func New(columns int) *Engine {
	if columns <= 0 {
		columns = DefaultColumns
	}
	return &Engine{
		Columns:    columns,
		MaxRowSpan: DefaultMaxRowSpan,
		SearchRows: DefaultSearchRows,
	}
}

// Default returns an engine for the current 9-column resolution.
func Default() *Engine { return New(DefaultColumns) }

// width returns the effective occupancy width of b.
func (e *Engine) width(b Block) int {
	return clamp(b.ColSpan, 1, e.Columns)
}

// height returns the effective occupancy height of b.
func (e *Engine) height(b Block) int {
	if b.RowSpan < 1 {
		return 1
	}
	return b.RowSpan
}

func (e *Engine) maxRowSpan() int {
	if e.MaxRowSpan < 1 {
		return DefaultMaxRowSpan
	}
	return e.MaxRowSpan
}

func (e *Engine) searchRows() int {
	if e.SearchRows < 1 {
		return DefaultSearchRows
	}
	return e.SearchRows
}

// clone copies blocks into a new slice.
func clone(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	copy(out, blocks)
	return out
}

// indexOf returns the slice index of the block with the given id, or -1.
func indexOf(blocks []Block, id string) int {
	for i := range blocks {
		if blocks[i].ID == id {
			return i
		}
	}
	return -1
}

// toEnd moves blocks[i] to the end of the slice in place.
func toEnd(blocks []Block, i int) {
	b := blocks[i]
	copy(blocks[i:], blocks[i+1:])
	blocks[len(blocks)-1] = b
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
