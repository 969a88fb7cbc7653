package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/grid"
	"github.com/matzehuels/gridpage/pkg/history"
	"github.com/matzehuels/gridpage/pkg/page"
	"github.com/matzehuels/gridpage/pkg/pipeline"
)

var (
	editorModeStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	editorStatusStyle = lipgloss.NewStyle().Foreground(colorWhite)
	editorErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
	editorHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// editMode is what the cursor keys currently do.
type editMode int

const (
	modeBrowse editMode = iota // move the cursor
	modeDrag                   // move the grabbed block
	modeResize                 // move the grabbed block's bottom-right corner
)

func (m editMode) String() string {
	switch m {
	case modeDrag:
		return "MOVE"
	case modeResize:
		return "RESIZE"
	default:
		return "BROWSE"
	}
}

// saveFunc persists a page.
type saveFunc func(ctx context.Context, doc *page.Document) error

// =============================================================================
// EditorModel - Interactive page editor
// =============================================================================

// EditorModel is the bubbletea model of the page editor.
//
// Dragging and resizing run as grid sessions: every cursor step samples the
// session and shows the result as a history preview; enter commits it as one
// undo step, esc cancels it.
type EditorModel struct {
	ctx     context.Context
	runner  *pipeline.Runner
	history *history.Session
	save    saveFunc

	cursor  grid.Cell
	mode    editMode
	grabbed string
	drag    *grid.DragSession
	resize  *grid.ResizeSession
	addKind int

	dirty    bool
	confirm  bool // q pressed once with unsaved changes
	status   string
	err      error
	Quitting bool
}

// NewEditorModel creates an editor on doc. save is called on "s".
func NewEditorModel(ctx context.Context, runner *pipeline.Runner, doc *page.Document, save saveFunc) EditorModel {
	return EditorModel{
		ctx:     ctx,
		runner:  runner,
		history: history.NewSession(doc, history.DefaultDepth),
		save:    save,
		cursor:  grid.Cell{Col: 1, Row: 1},
		addKind: kindIndex(page.KindText),
	}
}

// Document returns the committed page.
func (m EditorModel) Document() *page.Document {
	return m.history.Committed()
}

// Dirty reports whether there are changes that have not been saved.
func (m EditorModel) Dirty() bool {
	return m.dirty
}

func (m EditorModel) Init() tea.Cmd {
	return nil
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	k := key.String()
	if k != "q" {
		m.confirm = false
	}

	if step, ok := cursorSteps[k]; ok {
		m.moveCursor(step)
		return m, nil
	}

	if m.mode != modeBrowse {
		switch k {
		case "enter", " ":
			m.commitSession()
		case "esc":
			m.cancelSession()
		case "ctrl+c":
			m.cancelSession()
			m.Quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch k {
	case "ctrl+c":
		m.Quitting = true
		return m, tea.Quit
	case "q", "esc":
		if m.dirty && !m.confirm {
			m.confirm = true
			m.status = "unsaved changes: press q again to quit, s to save"
			return m, nil
		}
		m.Quitting = true
		return m, tea.Quit
	case "m", "enter":
		m.beginDrag()
	case "r":
		m.beginResize()
	case "a":
		m.add()
	case "tab":
		m.addKind = (m.addKind + 1) % len(page.Kinds())
		m.status = "add kind: " + page.Kinds()[m.addKind]
	case "d", "x", "delete":
		if id := m.blockAtCursor(); id != "" {
			m.apply("delete "+id, pipeline.DeleteBlock{ID: id})
		}
	case "c":
		m.apply("compact", pipeline.Compact{})
	case "u":
		if _, ok := m.history.Undo(); ok {
			m.dirty = true
			m.status = "undo"
		}
	case "U", "ctrl+r":
		if _, ok := m.history.Redo(); ok {
			m.dirty = true
			m.status = "redo"
		}
	case "s":
		m.store()
	}
	return m, nil
}

var cursorSteps = map[string]grid.Cell{
	"up": {Row: -1}, "k": {Row: -1},
	"down": {Row: 1}, "j": {Row: 1},
	"left": {Col: -1}, "h": {Col: -1},
	"right": {Col: 1}, "l": {Col: 1},
}

// moveCursor moves the cursor within the grid and samples the running
// session, if any.
func (m *EditorModel) moveCursor(step grid.Cell) {
	m.cursor.Col = min(max(m.cursor.Col+step.Col, 1), m.runner.Engine.Columns)
	m.cursor.Row = max(m.cursor.Row+step.Row, 1)

	var blocks []grid.Block
	switch m.mode {
	case modeDrag:
		blocks = m.drag.Sample(m.cursor)
	case modeResize:
		blocks = m.resize.Sample(m.cursor)
	default:
		return
	}
	m.history.Preview(m.withBlocks(blocks))
}

func (m *EditorModel) beginDrag() {
	id := m.blockAtCursor()
	if id == "" {
		m.status = "no block under cursor"
		return
	}
	b, _ := m.Document().Block(id)
	m.drag = m.runner.Engine.BeginDrag(m.Document().Blocks, id)
	m.mode, m.grabbed = modeDrag, id
	m.cursor = b.Position()
	m.status = "moving " + id
}

func (m *EditorModel) beginResize() {
	id := m.blockAtCursor()
	if id == "" {
		m.status = "no block under cursor"
		return
	}
	b, _ := m.Document().Block(id)
	m.resize = m.runner.Engine.BeginResize(m.Document().Blocks, id)
	m.mode, m.grabbed = modeResize, id
	m.cursor = grid.Cell{Col: b.Column + b.ColSpan - 1, Row: b.Row + b.RowSpan - 1}
	m.status = "resizing " + id
}

func (m *EditorModel) commitSession() {
	var blocks []grid.Block
	label := ""
	switch m.mode {
	case modeDrag:
		blocks, label = m.drag.Commit(), "move "+m.grabbed
	case modeResize:
		blocks, label = m.resize.Commit(), "resize "+m.grabbed
	}
	m.history.Preview(m.withBlocks(blocks))
	if _, ok := m.history.Commit(label); ok {
		m.dirty = true
	}
	m.status = label
	m.endSession()
}

func (m *EditorModel) cancelSession() {
	switch m.mode {
	case modeDrag:
		m.drag.Cancel()
	case modeResize:
		m.resize.Cancel()
	}
	m.history.Cancel()
	m.status = "cancelled"
	m.endSession()
}

func (m *EditorModel) endSession() {
	m.mode, m.grabbed = modeBrowse, ""
	m.drag, m.resize = nil, nil
}

// add inserts a block of the current add kind at the cursor.
func (m *EditorModel) add() {
	b, err := page.NewBlock(page.Kinds()[m.addKind])
	if err != nil {
		m.err = err
		return
	}
	hint := m.cursor
	m.apply("add "+b.Kind, pipeline.AddBlock{Block: b, Hint: &hint})
}

// apply runs a pipeline mutation on the committed page as one undo step.
func (m *EditorModel) apply(label string, mut pipeline.Mutation) {
	res, err := m.runner.Apply(m.ctx, m.Document(), mut)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.history.Preview(res.Document)
	m.history.Commit(label)
	m.dirty = true
	m.status = label
	if res.Stats.Relocated > 0 {
		m.status += fmt.Sprintf(" (%d moved)", res.Stats.Relocated)
	}
}

func (m *EditorModel) store() {
	if m.save == nil {
		m.err = errors.New(errors.ErrCodeUnsupported, "saving is not available")
		return
	}
	if err := m.save(m.ctx, m.Document()); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.dirty = false
	m.status = "saved"
}

// blockAtCursor returns the id of the topmost block under the cursor.
func (m EditorModel) blockAtCursor() string {
	view := m.history.View()
	v := newGridView(view.Blocks, m.runner.Engine.Columns, 1)
	if i := v.top(m.cursor); i >= 0 {
		return view.Blocks[i].ID
	}
	return ""
}

func (m EditorModel) withBlocks(blocks []grid.Block) *page.Document {
	doc := m.Document().Clone()
	doc.Blocks = blocks
	return doc
}

func (m EditorModel) View() string {
	if m.Quitting {
		return ""
	}
	doc := m.history.View()
	var b strings.Builder

	title := doc.Title
	if title == "" {
		title = doc.ID
	}
	b.WriteString(StyleTitle.Render(title))
	if m.dirty {
		b.WriteString(StyleDim.Render(" (modified)"))
	}
	b.WriteString("  " + editorModeStyle.Render(m.mode.String()))
	b.WriteString("\n\n")

	v := newGridView(doc.Blocks, m.runner.Engine.Columns, m.cursor.Row)
	v.cursor = &m.cursor
	v.selected = m.grabbed
	if v.selected == "" {
		v.selected = m.blockAtCursor()
	}
	b.WriteString(v.Render())
	b.WriteString("\n")

	_, undo := m.history.Stack().Labels()
	b.WriteString(StyleDim.Render(fmt.Sprintf("cell %d,%d · %d undo steps · add kind %s",
		m.cursor.Col, m.cursor.Row, undo, page.Kinds()[m.addKind])))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(editorErrorStyle.Render(errors.UserMessage(m.err)))
	} else {
		b.WriteString(editorStatusStyle.Render(m.status))
	}
	b.WriteString("\n")

	if m.mode == modeBrowse {
		b.WriteString(editorHelpStyle.Render("←↓↑→ cursor  m move  r resize  a add  tab kind  d delete  c compact  u undo  U redo  s save  q quit"))
	} else {
		b.WriteString(editorHelpStyle.Render("←↓↑→ " + strings.ToLower(m.mode.String()) + "  ⏎ commit  esc cancel"))
	}
	return b.String()
}

func kindIndex(kind string) int {
	for i, k := range page.Kinds() {
		if k == kind {
			return i
		}
	}
	return 0
}
