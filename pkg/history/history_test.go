package history

import (
	"fmt"
	"testing"

	"github.com/matzehuels/gridpage/pkg/grid"
	"github.com/matzehuels/gridpage/pkg/page"
)

// docAt returns a page with one block at column col.
func docAt(col int) *page.Document {
	d := page.New("p", "")
	d.Blocks = []grid.Block{{ID: "a", Kind: "link", Column: col, Row: 1, ColSpan: 1, RowSpan: 1}}
	return d
}

func col(d *page.Document) int { return d.Blocks[0].Column }

func TestStackUndoRedo(t *testing.T) {
	s := NewStack(docAt(1), 0)
	s.Push("move", docAt(2))
	s.Push("move", docAt(3))

	if got := col(s.Current()); got != 3 {
		t.Fatalf("Current() col = %d, want 3", got)
	}

	steps := []struct {
		op     string
		want   int
		wantOK bool
	}{
		{"undo", 2, true},
		{"undo", 1, true},
		{"undo", 1, false},
		{"redo", 2, true},
		{"redo", 3, true},
		{"redo", 3, false},
	}
	for i, st := range steps {
		var d *page.Document
		var ok bool
		if st.op == "undo" {
			d, ok = s.Undo()
		} else {
			d, ok = s.Redo()
		}
		if col(d) != st.want || ok != st.wantOK {
			t.Errorf("step %d %s = (%d, %v), want (%d, %v)", i, st.op, col(d), ok, st.want, st.wantOK)
		}
	}
}

func TestStackPushDiscardsRedo(t *testing.T) {
	s := NewStack(docAt(1), 0)
	s.Push("a", docAt(2))
	s.Push("b", docAt(3))
	s.Undo()
	s.Undo()
	s.Push("c", docAt(7))

	if s.CanRedo() {
		t.Error("CanRedo() = true after Push")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	labels, pos := s.Labels()
	if fmt.Sprint(labels) != "[open c]" || pos != 1 {
		t.Errorf("Labels() = %v, %d", labels, pos)
	}
}

func TestStackPrunesOldest(t *testing.T) {
	s := NewStack(docAt(1), 3)
	for c := 2; c <= 6; c++ {
		s.Push("move", docAt(c))
	}

	if s.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", s.Len())
	}
	var last *page.Document
	for s.CanUndo() {
		last, _ = s.Undo()
	}
	if col(last) != 3 {
		t.Errorf("oldest kept col = %d, want 3", col(last))
	}
}

func TestStackSnapshotsAreCopies(t *testing.T) {
	d := docAt(1)
	s := NewStack(d, 0)
	d.Blocks[0].Column = 9

	got := s.Current()
	if col(got) != 1 {
		t.Error("NewStack() kept a reference to the caller's document")
	}
	got.Blocks[0].Column = 5
	if col(s.Current()) != 1 {
		t.Error("Current() returned a shared document")
	}
}

func TestSessionPreviewCommitCancel(t *testing.T) {
	s := NewSession(docAt(1), 0)

	if _, ok := s.Commit("noop"); ok {
		t.Error("Commit() without preview reported a commit")
	}

	s.Preview(docAt(4))
	if !s.Pending() {
		t.Fatal("Pending() = false after Preview")
	}
	if col(s.View()) != 4 || col(s.Committed()) != 1 {
		t.Errorf("View/Committed = %d/%d, want 4/1", col(s.View()), col(s.Committed()))
	}

	if got := s.Cancel(); col(got) != 1 || s.Pending() {
		t.Errorf("Cancel() = %d, pending %v", col(got), s.Pending())
	}

	s.Preview(docAt(5))
	s.Preview(docAt(6))
	got, ok := s.Commit("resize")
	if !ok || col(got) != 6 {
		t.Errorf("Commit() = %d, %v; want 6, true", col(got), ok)
	}
	if s.Stack().Len() != 2 {
		t.Errorf("stack Len() = %d, want 2", s.Stack().Len())
	}

	s.Preview(docAt(8))
	if d, ok := s.Undo(); !ok || col(d) != 1 || s.Pending() {
		t.Errorf("Undo() = %d, %v, pending %v", col(d), ok, s.Pending())
	}
	if d, ok := s.Redo(); !ok || col(d) != 6 {
		t.Errorf("Redo() = %d, %v", col(d), ok)
	}
}
