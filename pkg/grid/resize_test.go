package grid

import "testing"

func TestResize(t *testing.T) {
	e := Default()

	tests := []struct {
		name       string
		blocks     []Block
		id         string
		colSpan    int
		rowSpan    int
		wantSpans  [2]int
		wantLastID string
	}{
		{
			name:       "grow",
			blocks:     []Block{blk("a", 1, 1, 3, 3), blk("b", 4, 1, 3, 3)},
			id:         "a",
			colSpan:    6,
			rowSpan:    4,
			wantSpans:  [2]int{6, 4},
			wantLastID: "a",
		},
		{
			name:       "clamped at right edge",
			blocks:     []Block{blk("a", 7, 1, 3, 3), blk("b", 1, 1, 3, 3)},
			id:         "a",
			colSpan:    9,
			rowSpan:    3,
			wantSpans:  [2]int{3, 3},
			wantLastID: "b",
		},
		{
			name:       "clamped to minimum",
			blocks:     []Block{blk("a", 1, 1, 3, 3), blk("b", 4, 1, 3, 3)},
			id:         "a",
			colSpan:    -4,
			rowSpan:    0,
			wantSpans:  [2]int{1, 1},
			wantLastID: "a",
		},
		{
			name:       "row span clamped to max",
			blocks:     []Block{blk("a", 1, 1, 3, 3)},
			id:         "a",
			colSpan:    3,
			rowSpan:    99,
			wantSpans:  [2]int{3, DefaultMaxRowSpan},
			wantLastID: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.Resize(tt.blocks, tt.id, tt.colSpan, tt.rowSpan)
			i := indexOf(out, tt.id)
			if got := [2]int{out[i].ColSpan, out[i].RowSpan}; got != tt.wantSpans {
				t.Errorf("spans = %v, want %v", got, tt.wantSpans)
			}
			if last := out[len(out)-1].ID; last != tt.wantLastID {
				t.Errorf("last block = %s, want %s", last, tt.wantLastID)
			}
		})
	}
}

func TestResizeNoOps(t *testing.T) {
	e := Default()
	blocks := []Block{blk("a", 1, 1, 3, 3), blk("u", 0, 0, 2, 2), blk("b", 4, 1, 3, 3)}

	tests := []struct {
		name string
		id   string
		cs   int
		rs   int
	}{
		{"unknown id", "missing", 6, 6},
		{"unplaced target", "u", 6, 6},
		{"same spans", "a", 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.Resize(blocks, tt.id, tt.cs, tt.rs)
			for i := range blocks {
				if out[i] != blocks[i] {
					t.Errorf("out[%d] = %+v, want %+v", i, out[i], blocks[i])
				}
			}
		})
	}
}

func TestResizeThenReflowDisplacesSibling(t *testing.T) {
	e := Default()
	blocks := []Block{blk("a", 1, 1, 3, 1), blk("b", 4, 1, 6, 1)}

	resized := e.Resize(blocks, "a", 9, 1)
	got := positions(e.Reflow(resized))

	if got["a"] != (Cell{1, 1}) {
		t.Errorf("a at %v, want (1,1)", got["a"])
	}
	if got["b"] != (Cell{1, 2}) {
		t.Errorf("b at %v, want (1,2)", got["b"])
	}
}

func TestSpansToCell(t *testing.T) {
	b := blk("a", 3, 2, 1, 1)

	tests := []struct {
		cell   Cell
		cs, rs int
	}{
		{Cell{3, 2}, 1, 1},
		{Cell{5, 4}, 3, 3},
		{Cell{1, 1}, 1, 1},
		{Cell{9, 2}, 7, 1},
	}

	for _, tt := range tests {
		cs, rs := SpansToCell(b, tt.cell)
		if cs != tt.cs || rs != tt.rs {
			t.Errorf("SpansToCell(%v) = (%d,%d), want (%d,%d)", tt.cell, cs, rs, tt.cs, tt.rs)
		}
	}
}

func TestMove(t *testing.T) {
	e := Default()
	blocks := []Block{blk("a", 1, 1, 3, 3), blk("b", 4, 1, 3, 3)}

	tests := []struct {
		name string
		cell Cell
		want Cell
	}{
		{"inside grid", Cell{2, 2}, Cell{2, 2}},
		{"past right edge", Cell{9, 1}, Cell{7, 1}},
		{"above first row", Cell{1, -3}, Cell{1, 1}},
		{"left of first column", Cell{-1, 4}, Cell{1, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.Move(blocks, "a", tt.cell)
			last := out[len(out)-1]
			if last.ID != "a" {
				t.Fatalf("moved block not last: %s", last.ID)
			}
			if last.Position() != tt.want {
				t.Errorf("a at %v, want %v", last.Position(), tt.want)
			}
		})
	}

	if out := e.Move(blocks, "missing", Cell{5, 5}); out[0] != blocks[0] || out[1] != blocks[1] {
		t.Error("Move() with unknown id changed the layout")
	}
}
