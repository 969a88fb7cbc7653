// Package pipeline applies layout mutations to page documents.
//
// This package is the single entry point used by the CLI, the HTTP API and
// the MCP tools. Each mutation runs the same sequence of engine passes
// regardless of who asked for it:
//
//	add      place at hint or first free slot → normalize → resolve
//	move     move → normalize → resolve
//	resize   resize → reflow
//	delete   remove → reflow
//	compact  reflow
//	import   upgrade → normalize → resolve (cached by document hash)
//
// Every mutation first upgrades documents that are not on the current grid
// version.
//
// # Usage
//
//	runner := pipeline.NewRunner(grid.Default(), cache, nil, logger)
//	res, err := runner.Apply(ctx, doc, pipeline.MoveBlock{ID: "b1", To: grid.Cell{Col: 4, Row: 2}})
//	if err != nil {
//	    return err
//	}
//	doc = res.Document
package pipeline

import (
	"time"

	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/grid"
	"github.com/matzehuels/gridpage/pkg/page"
)

// Operation names.
const (
	OpAdd     = "add"
	OpMove    = "move"
	OpResize  = "resize"
	OpDelete  = "delete"
	OpCompact = "compact"
	OpImport  = "import"
)

// ValidOps is the set of supported mutation names.
var ValidOps = map[string]bool{
	OpAdd:     true,
	OpMove:    true,
	OpResize:  true,
	OpDelete:  true,
	OpCompact: true,
	OpImport:  true,
}

// =============================================================================
// Mutations
// =============================================================================

// Mutation is one edit of a page.
type Mutation interface {
	Op() string
}

// AddBlock appends a block. With a Hint the block goes to the hinted cell if
// it is free, otherwise to the first free slot at or below the hint row.
// Without a Hint the block's own coordinates are ignored and it takes the
// first free slot from the top.
type AddBlock struct {
	Block grid.Block
	Hint  *grid.Cell
}

// MoveBlock moves a block's top-left corner to To. Blocks it lands on are
// relocated.
type MoveBlock struct {
	ID string
	To grid.Cell
}

// ResizeBlock sets a block's spans and reflows the page.
type ResizeBlock struct {
	ID      string
	ColSpan int
	RowSpan int
}

// DeleteBlock removes a block and reflows the page.
type DeleteBlock struct {
	ID string
}

// Compact reflows the page without any other change.
type Compact struct{}

// Import repairs a document read from outside: upgrade, normalize, resolve.
type Import struct{}

func (AddBlock) Op() string    { return OpAdd }
func (MoveBlock) Op() string   { return OpMove }
func (ResizeBlock) Op() string { return OpResize }
func (DeleteBlock) Op() string { return OpDelete }
func (Compact) Op() string     { return OpCompact }
func (Import) Op() string      { return OpImport }

// =============================================================================
// Results
// =============================================================================

// Result contains the outcome of one mutation.
type Result struct {
	// Document is the new page. The input document is never modified.
	Document *page.Document `json:"document"`

	// Stats contains timing and size information.
	Stats Stats `json:"stats"`

	// CacheHit reports whether the layout came from the cache (import only).
	CacheHit bool `json:"cacheHit"`
}

// Stats contains mutation statistics.
type Stats struct {
	Blocks    int           `json:"blocks"`
	Relocated int           `json:"relocated"` // blocks whose coordinates changed
	Migrated  bool          `json:"migrated"`  // the document was rescaled to the current grid
	Duration  time.Duration `json:"durationNs"`
}

// =============================================================================
// Args - mutation requests from the API, MCP tools and CLI flags
// =============================================================================

// Args is the flat form of a mutation used by the outer surfaces. Zero
// coordinates mean "not given".
type Args struct {
	Op      string `json:"op"`
	ID      string `json:"id,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Column  int    `json:"column,omitempty"`
	Row     int    `json:"row,omitempty"`
	ColSpan int    `json:"colSpan,omitempty"`
	RowSpan int    `json:"rowSpan,omitempty"`
}

// ParseMutation converts args into a Mutation.
//
// For add, Kind selects the block kind and its default spans; positive
// ColSpan and RowSpan override them, and Column and Row (both positive) give
// the hint. A non-empty ID replaces the generated one.
func ParseMutation(args Args) (Mutation, error) {
	if !ValidOps[args.Op] {
		return nil, errors.New(errors.ErrCodeInvalidMutation,
			"invalid op: %q (must be one of: add, move, resize, delete, compact, import)", args.Op)
	}

	switch args.Op {
	case OpAdd:
		b, err := page.NewBlock(args.Kind)
		if err != nil {
			return nil, err
		}
		if args.ID != "" {
			b.ID = args.ID
		}
		if args.ColSpan > 0 {
			b.ColSpan = args.ColSpan
		}
		if args.RowSpan > 0 {
			b.RowSpan = args.RowSpan
		}
		m := AddBlock{Block: b}
		if args.Column > 0 && args.Row > 0 {
			m.Hint = &grid.Cell{Col: args.Column, Row: args.Row}
		}
		return m, nil
	case OpCompact:
		return Compact{}, nil
	case OpImport:
		return Import{}, nil
	}

	if err := errors.ValidateBlockID(args.ID); err != nil {
		return nil, err
	}

	switch args.Op {
	case OpMove:
		if args.Column < 1 || args.Row < 1 {
			return nil, errors.New(errors.ErrCodeInvalidMutation, "move requires column and row")
		}
		return MoveBlock{ID: args.ID, To: grid.Cell{Col: args.Column, Row: args.Row}}, nil
	case OpResize:
		if args.ColSpan < 1 || args.RowSpan < 1 {
			return nil, errors.New(errors.ErrCodeInvalidMutation, "resize requires colSpan and rowSpan")
		}
		return ResizeBlock{ID: args.ID, ColSpan: args.ColSpan, RowSpan: args.RowSpan}, nil
	default:
		return DeleteBlock{ID: args.ID}, nil
	}
}
