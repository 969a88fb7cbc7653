package grid

// SessionState is the lifecycle state of an interactive gesture.
type SessionState int

const (
	// Idle means no gesture has started yet.
	Idle SessionState = iota
	// Sizing means pointer samples are being applied to the preview.
	Sizing
	// Committed means the gesture ended and the result was repacked.
	Committed
	// Cancelled means the gesture was abandoned.
	Cancelled
)

var stateNames = [...]string{
	Idle:      "idle",
	Sizing:    "sizing",
	Committed: "committed",
	Cancelled: "cancelled",
}

// String implements fmt.Stringer.
func (s SessionState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Done reports whether the session has ended.
func (s SessionState) Done() bool { return s == Committed || s == Cancelled }

// ResizeSession tracks one interactive resize of a single block.
//
// Each pointer sample recomputes the spans from the block's fixed top-left
// anchor and applies Resize to the committed snapshot. Samples never repack;
// Commit runs Reflow once on the final preview.
type ResizeSession struct {
	engine    *Engine
	id        string
	anchor    Block
	committed []Block
	preview   []Block
	state     SessionState
}

// BeginResize starts a resize session for the block with the given id. If the
// id is unknown or the block is unplaced the session starts already
// cancelled, and every method returns the committed snapshot.
func (e *Engine) BeginResize(blocks []Block, id string) *ResizeSession {
	s := &ResizeSession{
		engine:    e,
		id:        id,
		committed: clone(blocks),
		preview:   clone(blocks),
	}
	i := indexOf(blocks, id)
	if i < 0 || !blocks[i].Placed() {
		s.state = Cancelled
		return s
	}
	s.anchor = blocks[i]
	return s
}

// State returns the current session state.
func (s *ResizeSession) State() SessionState { return s.state }

// Preview returns the latest preview snapshot.
func (s *ResizeSession) Preview() []Block { return clone(s.preview) }

// Sample applies a pointer position in grid cells and returns the new preview.
func (s *ResizeSession) Sample(cell Cell) []Block {
	if s.state.Done() {
		return s.Preview()
	}
	s.state = Sizing
	colSpan, rowSpan := SpansToCell(s.anchor, cell)
	s.preview = s.engine.Resize(s.committed, s.id, colSpan, rowSpan)
	return s.Preview()
}

// Commit ends the session and returns the repacked layout.
func (s *ResizeSession) Commit() []Block {
	switch s.state {
	case Committed:
		return s.Preview()
	case Cancelled:
		return clone(s.committed)
	case Idle:
		// Nothing sampled: keep the layout as it was.
		s.state = Committed
		s.preview = clone(s.committed)
		return s.Preview()
	}
	s.state = Committed
	s.preview = s.engine.Reflow(s.preview)
	return s.Preview()
}

// Cancel ends the session and returns the committed snapshot.
func (s *ResizeSession) Cancel() []Block {
	if s.state != Committed {
		s.state = Cancelled
		s.preview = clone(s.committed)
	}
	return s.Preview()
}

// DragSession tracks one interactive move of a single block. Samples move the
// block on a preview; Commit resolves overlaps once.
type DragSession struct {
	engine    *Engine
	id        string
	committed []Block
	preview   []Block
	state     SessionState
}

// BeginDrag starts a drag session for the block with the given id. Unknown ids
// start a cancelled session.
func (e *Engine) BeginDrag(blocks []Block, id string) *DragSession {
	s := &DragSession{
		engine:    e,
		id:        id,
		committed: clone(blocks),
		preview:   clone(blocks),
	}
	if indexOf(blocks, id) < 0 {
		s.state = Cancelled
	}
	return s
}

// State returns the current session state.
func (s *DragSession) State() SessionState { return s.state }

// Preview returns the latest preview snapshot.
func (s *DragSession) Preview() []Block { return clone(s.preview) }

// Sample moves the dragged block's top-left corner to cell.
func (s *DragSession) Sample(cell Cell) []Block {
	if s.state.Done() {
		return s.Preview()
	}
	s.state = Sizing
	s.preview = s.engine.Move(s.committed, s.id, cell)
	return s.Preview()
}

// Commit ends the drag and returns the layout with overlaps resolved.
func (s *DragSession) Commit() []Block {
	switch s.state {
	case Committed:
		return s.Preview()
	case Cancelled:
		return clone(s.committed)
	}
	s.state = Committed
	s.preview = s.engine.ResolveOverlaps(s.preview)
	return s.Preview()
}

// Cancel ends the drag and returns the committed snapshot.
func (s *DragSession) Cancel() []Block {
	if s.state != Committed {
		s.state = Cancelled
		s.preview = clone(s.committed)
	}
	return s.Preview()
}
