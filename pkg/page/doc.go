// Package page defines the persisted page document and its JSON format.
//
// A [Document] is an ordered list of grid blocks plus a little metadata. The
// slice order of Blocks is the paint order: later blocks draw on top.
//
// # Grid versions
//
// Documents written by the original 3-column editor carry gridVersion 1 (or
// no version at all). The current 9-column layout is gridVersion 2. [Upgrade]
// brings any document to the current version: explicit legacy versions are
// rescaled unconditionally, and documents without a version fall back to
// [grid.NeedsMigration].
//
// # JSON format
//
//	{
//	  "id": "home",
//	  "title": "My page",
//	  "gridVersion": 2,
//	  "updatedAt": "2026-03-01T10:00:00Z",
//	  "blocks": [
//	    {"id": "b1", "kind": "link", "gridColumn": 1, "gridRow": 1,
//	     "colSpan": 3, "rowSpan": 1, "url": "https://example.com"}
//	  ]
//	}
//
// gridColumn and gridRow are omitted for unplaced blocks. Block fields other
// than id, kind, gridColumn, gridRow, colSpan and rowSpan belong to the block
// kind; they are kept verbatim in [Fields] and written back unchanged.
package page
