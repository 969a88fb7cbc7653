package grid

import "testing"

func positions(blocks []Block) map[string]Cell {
	out := make(map[string]Cell, len(blocks))
	for _, b := range blocks {
		out[b.ID] = b.Position()
	}
	return out
}

func TestNormalizePlacesUnplacedInSliceOrder(t *testing.T) {
	e := Default()

	tests := []struct {
		name   string
		blocks []Block
		want   map[string]Cell
	}{
		{
			name: "wide block wraps below tall pair",
			blocks: []Block{
				blk("a", 0, 0, 3, 3),
				blk("b", 0, 0, 3, 3),
				blk("c", 0, 0, 9, 1),
			},
			want: map[string]Cell{"a": {1, 1}, "b": {4, 1}, "c": {1, 4}},
		},
		{
			name: "wide block wraps to next row",
			blocks: []Block{
				blk("a", 0, 0, 3, 1),
				blk("b", 0, 0, 3, 1),
				blk("c", 0, 0, 9, 1),
			},
			want: map[string]Cell{"a": {1, 1}, "b": {4, 1}, "c": {1, 2}},
		},
		{
			name: "unplaced fills gap beside positioned",
			blocks: []Block{
				blk("x", 0, 0, 3, 1),
				blk("p", 1, 1, 3, 1),
			},
			want: map[string]Cell{"x": {4, 1}, "p": {1, 1}},
		},
		{
			name: "earlier unplaced block wins the slot",
			blocks: []Block{
				blk("p", 1, 1, 6, 1),
				blk("first", 0, 0, 3, 1),
				blk("second", 0, 0, 3, 1),
			},
			want: map[string]Cell{"p": {1, 1}, "first": {7, 1}, "second": {1, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := positions(e.Normalize(tt.blocks))
			for id, want := range tt.want {
				if got[id] != want {
					t.Errorf("block %s at %v, want %v", id, got[id], want)
				}
			}
		})
	}
}

func TestNormalizeClampsPositioned(t *testing.T) {
	e := Default()

	tests := []struct {
		name string
		in   Block
		want Block
	}{
		{
			name: "span past right edge",
			in:   blk("a", 7, 1, 6, 2),
			want: blk("a", 7, 1, 3, 2),
		},
		{
			name: "column past right edge",
			in:   blk("a", 12, 3, 2, 1),
			want: blk("a", 9, 3, 1, 1),
		},
		{
			name: "negative column",
			in:   blk("a", -2, 1, 3, 1),
			want: blk("a", 1, 1, 3, 1),
		},
		{
			name: "negative row",
			in:   blk("a", 2, -5, 1, 1),
			want: blk("a", 2, 1, 1, 1),
		},
		{
			name: "zero spans",
			in:   blk("a", 1, 1, 0, 0),
			want: blk("a", 1, 1, 1, 1),
		},
		{
			name: "row span above max",
			in:   blk("a", 1, 1, 1, 40),
			want: blk("a", 1, 1, 1, DefaultMaxRowSpan),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Normalize([]Block{tt.in})[0]
			if got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeClampsUnplacedSpans(t *testing.T) {
	e := Default()
	got := e.Normalize([]Block{blk("a", 0, 0, 30, 30)})[0]

	if got.ColSpan != 9 || got.RowSpan != DefaultMaxRowSpan {
		t.Errorf("spans = (%d,%d), want (9,%d)", got.ColSpan, got.RowSpan, DefaultMaxRowSpan)
	}
	if got.Position() != (Cell{1, 1}) {
		t.Errorf("position = %v, want (1,1)", got.Position())
	}
}

func TestNormalizeDoesNotModifyInput(t *testing.T) {
	e := Default()
	in := []Block{blk("a", 0, 0, 3, 3), blk("b", 20, 1, 3, 3)}
	_ = e.Normalize(in)

	if in[0].Placed() {
		t.Error("Normalize() modified input block a")
	}
	if in[1].Column != 20 {
		t.Error("Normalize() modified input block b")
	}
}

func TestNormalizeEmpty(t *testing.T) {
	e := Default()
	if got := e.Normalize(nil); len(got) != 0 {
		t.Errorf("Normalize(nil) returned %d blocks", len(got))
	}
}
