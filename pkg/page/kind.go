package page

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/grid"
)

// Block kinds.
const (
	KindLink    = "link"
	KindText    = "text"
	KindImage   = "image"
	KindSocial  = "social"
	KindSpacer  = "spacer"
	KindSection = "section"
	KindMap     = "map"
	KindVideo   = "video"
)

// defaultSpans holds the initial [colSpan, rowSpan] of each kind on the
// 9-column grid.
var defaultSpans = map[string][2]int{
	KindLink:    {3, 1},
	KindText:    {3, 2},
	KindImage:   {3, 3},
	KindSocial:  {3, 1},
	KindSpacer:  {9, 1},
	KindSection: {9, 1},
	KindMap:     {6, 3},
	KindVideo:   {6, 3},
}

// Kinds returns the known block kinds in sorted order.
func Kinds() []string {
	kinds := make([]string, 0, len(defaultSpans))
	for k := range defaultSpans {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// ValidKind reports whether kind is a known block kind.
func ValidKind(kind string) bool {
	_, ok := defaultSpans[kind]
	return ok
}

// NewBlock returns an unplaced block of the given kind with a random id and
// the kind's default spans.
func NewBlock(kind string) (grid.Block, error) {
	spans, ok := defaultSpans[kind]
	if !ok {
		return grid.Block{}, errors.New(errors.ErrCodeInvalidBlock,
			"unknown block kind %q (must be one of: %v)", kind, Kinds())
	}
	return grid.Block{
		ID:      uuid.NewString(),
		Kind:    kind,
		ColSpan: spans[0],
		RowSpan: spans[1],
	}, nil
}
