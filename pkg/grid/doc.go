// Package grid implements the block placement engine for gridpage.
//
// # Overview
//
// A page is a fixed-width grid of [Engine.Columns] columns and an unbounded
// number of rows. Each [Block] covers a rectangle of cells addressed by
// 1-based (column, row) coordinates. A block without coordinates is
// "unplaced" and is given a position by the engine.
//
// The engine is a set of pure functions over block slices:
//
//   - [Engine.Normalize] clamps positioned blocks into bounds and places
//     unplaced ones with a first-fit search.
//   - [Engine.ResolveOverlaps] relocates blocks that intersect others while
//     leaving non-conflicting blocks where they are.
//   - [Engine.Reflow] repacks everything from the top-left in reading order.
//   - [Engine.Resize] and [Engine.Move] apply a single user edit.
//   - [Engine.Migrate] rescales coordinates between grid resolutions.
//
// None of these functions modify their input slice. Blocks are values; the
// returned slice is always a fresh copy.
//
// # Reading order and z-order
//
// Reading order is row-major: lower row first, then lower column. It
// determines which block claims a free slot first during compaction, and
// compaction preserves it: after Reflow every block sits after its
// predecessor.
//
// Paint order is slice order: the last block renders on top. [Engine.Move]
// and [Engine.Resize] move the touched block to the end of the slice so it
// stays visible while an interactive gesture is in progress.
//
// # Placement search
//
// [Engine.FindPosition] scans at most [Engine.SearchRows] rows starting at
// the requested row, then wraps to the rows above it. When both scans fail it
// falls back to [Engine.FallbackPosition], which appends the block below
// everything else. Rows are unbounded, so a search never reports "no room".
//
// # Interactive sessions
//
// [ResizeSession] and [DragSession] hold a committed snapshot and a preview.
// Samples update the preview cheaply; only Commit runs the expensive repack.
// Cancel returns the committed snapshot untouched.
//
// # Migration
//
// Legacy documents used a 3-column grid. [Engine.Migrate] scales them to the
// current resolution. [NeedsMigration] decides from span magnitudes whether a
// block set is still in the old resolution, which makes migration idempotent.
package grid
