package history

import (
	"sync"

	"github.com/matzehuels/gridpage/pkg/page"
)

// Session separates the committed page from an in-progress preview.
type Session struct {
	mu      sync.Mutex
	stack   *Stack
	preview *page.Document
}

// NewSession starts a session on doc with a stack of the given depth.
func NewSession(doc *page.Document, depth int) *Session {
	return &Session{stack: NewStack(doc, depth)}
}

// Stack returns the underlying undo stack.
func (s *Session) Stack() *Stack { return s.stack }

// Committed returns the last committed snapshot.
func (s *Session) Committed() *page.Document { return s.stack.Current() }

// View returns the preview when one is pending, else the committed snapshot.
func (s *Session) View() *page.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preview != nil {
		return s.preview.Clone()
	}
	return s.stack.Current()
}

// Preview replaces the pending preview with doc.
func (s *Session) Preview(doc *page.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preview = doc.Clone()
}

// Pending reports whether a preview is waiting to be committed.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview != nil
}

// Commit pushes the pending preview onto the stack under label and returns
// the new committed snapshot. Without a preview it returns the committed
// snapshot and false.
func (s *Session) Commit(label string) (*page.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preview == nil {
		return s.stack.Current(), false
	}
	s.stack.Push(label, s.preview)
	s.preview = nil
	return s.stack.Current(), true
}

// Cancel drops the pending preview and returns the committed snapshot.
func (s *Session) Cancel() *page.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preview = nil
	return s.stack.Current()
}

// Undo drops any preview and steps the stack back.
func (s *Session) Undo() (*page.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preview = nil
	return s.stack.Undo()
}

// Redo drops any preview and steps the stack forward.
func (s *Session) Redo() (*page.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preview = nil
	return s.stack.Redo()
}
