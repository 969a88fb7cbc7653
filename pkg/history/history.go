// Package history keeps page snapshots for undo, redo and uncommitted
// previews.
//
// A [Stack] holds committed snapshots. A [Session] sits in front of a stack
// and holds at most one preview: the state shown while a gesture is in
// progress. Commit pushes the preview onto the stack; Cancel drops it.
// Snapshots are cloned on the way in and on the way out, so callers can
// mutate what they get back.
package history

import (
	"sync"

	"github.com/matzehuels/gridpage/pkg/page"
)

// DefaultDepth is the number of undo steps a stack keeps.
const DefaultDepth = 40

// Entry is one committed snapshot.
type Entry struct {
	Label string
	Doc   *page.Document
}

// Stack is a bounded undo/redo stack. It is safe for concurrent use.
type Stack struct {
	mu      sync.Mutex
	entries []Entry
	pos     int
	depth   int
}

// NewStack returns a stack whose only entry is initial. A non-positive depth
// means DefaultDepth.
func NewStack(initial *page.Document, depth int) *Stack {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Stack{
		entries: []Entry{{Label: "open", Doc: initial.Clone()}},
		depth:   depth,
	}
}

// Push records doc as the new current snapshot. Redo entries above the
// current position are discarded. When more than depth undo steps would be
// kept, the oldest entries are pruned.
func (s *Stack) Push(label string, doc *page.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries[:s.pos+1], Entry{Label: label, Doc: doc.Clone()})
	s.pos++
	if extra := len(s.entries) - (s.depth + 1); extra > 0 {
		s.entries = append([]Entry(nil), s.entries[extra:]...)
		s.pos -= extra
	}
}

// Undo moves one step back and returns the snapshot there.
func (s *Stack) Undo() (*page.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos == 0 {
		return s.entries[0].Doc.Clone(), false
	}
	s.pos--
	return s.entries[s.pos].Doc.Clone(), true
}

// Redo moves one step forward and returns the snapshot there.
func (s *Stack) Redo() (*page.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos == len(s.entries)-1 {
		return s.entries[s.pos].Doc.Clone(), false
	}
	s.pos++
	return s.entries[s.pos].Doc.Clone(), true
}

// Current returns the snapshot at the current position.
func (s *Stack) Current() *page.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[s.pos].Doc.Clone()
}

// CanUndo reports whether Undo would move.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos > 0
}

// CanRedo reports whether Redo would move.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos < len(s.entries)-1
}

// Len returns the number of stored snapshots, including redo entries.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Labels returns the entry labels from oldest to newest and the index of
// the current one.
func (s *Stack) Labels() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	labels := make([]string, len(s.entries))
	for i, e := range s.entries {
		labels[i] = e.Label
	}
	return labels, s.pos
}
