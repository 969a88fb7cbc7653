package page

import (
	"slices"
	"time"

	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/grid"
)

// Grid versions.
const (
	VersionUnknown = 0
	VersionLegacy  = 1 // 3 columns
	VersionCurrent = 2 // 9 columns
)

// Columns returns the column count of a grid version, or 0 when unknown.
func Columns(version int) int {
	switch version {
	case VersionLegacy:
		return grid.LegacyColumns
	case VersionCurrent:
		return grid.DefaultColumns
	default:
		return 0
	}
}

// Document is one page.
type Document struct {
	ID          string
	Title       string
	GridVersion int
	Blocks      []grid.Block
	UpdatedAt   time.Time
}

// New returns an empty document at the current grid version.
func New(id, title string) *Document {
	return &Document{
		ID:          id,
		Title:       title,
		GridVersion: VersionCurrent,
	}
}

// Clone returns a deep copy of d. Kind fields are shared; they are never
// modified in place.
func (d *Document) Clone() *Document {
	c := *d
	c.Blocks = slices.Clone(d.Blocks)
	return &c
}

// Block returns the block with the given id.
func (d *Document) Block(id string) (grid.Block, bool) {
	for _, b := range d.Blocks {
		if b.ID == id {
			return b, true
		}
	}
	return grid.Block{}, false
}

// Touch sets UpdatedAt to now in UTC, truncated to milliseconds.
func (d *Document) Touch() {
	d.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
}

// Validate checks the document id, that every block has a valid unique id and
// a kind. Geometry is not checked; the engine repairs it.
func Validate(d *Document) error {
	if d == nil {
		return errors.New(errors.ErrCodeInvalidDocument, "document is nil")
	}
	if d.ID != "" {
		if err := errors.ValidatePageID(d.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDocument, err, "invalid page id")
		}
	}
	if d.GridVersion < VersionUnknown || d.GridVersion > VersionCurrent {
		return errors.New(errors.ErrCodeInvalidDocument, "unsupported gridVersion %d", d.GridVersion)
	}

	seen := make(map[string]bool, len(d.Blocks))
	for i, b := range d.Blocks {
		if err := errors.ValidateBlockID(b.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidBlock, err, "block %d", i)
		}
		if seen[b.ID] {
			return errors.New(errors.ErrCodeInvalidBlock, "duplicate block id %q", b.ID)
		}
		seen[b.ID] = true
		if b.Kind == "" {
			return errors.New(errors.ErrCodeInvalidBlock, "block %q has no kind", b.ID)
		}
	}
	return nil
}

// NeedsUpgrade reports whether Upgrade would rescale d.
func NeedsUpgrade(d *Document) bool {
	switch d.GridVersion {
	case VersionCurrent:
		return false
	case VersionLegacy:
		return len(d.Blocks) > 0
	default:
		return grid.NeedsMigration(d.Blocks, grid.LegacyColumns, grid.DefaultColumns)
	}
}

// Upgrade returns a copy of d laid out on the current grid and reports
// whether any rescaling happened. The version is set to VersionCurrent.
//
// An explicit legacy version is rescaled unconditionally. Documents without
// a version are rescaled only when grid.NeedsMigration says so.
func Upgrade(e *grid.Engine, d *Document) (*Document, bool) {
	out := d.Clone()
	if d.GridVersion == VersionCurrent {
		return out, false
	}
	migrated := NeedsUpgrade(d)
	if migrated {
		out.Blocks = e.Rescale(d.Blocks, grid.LegacyColumns, grid.DefaultColumns)
	}
	out.GridVersion = VersionCurrent
	return out, migrated
}
