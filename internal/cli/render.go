package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridpage/pkg/grid"
	"github.com/matzehuels/gridpage/pkg/page"
)

const (
	cellWidth  = 7 // characters per grid column, including the gutter
	cellHeight = 3 // lines per grid row, including the gutter
	rulerWidth = 4 // row number column on the left
)

// kindColors gives each block kind a background.
var kindColors = map[string]lipgloss.Color{
	page.KindLink:    lipgloss.Color("75"),
	page.KindText:    lipgloss.Color("252"),
	page.KindImage:   lipgloss.Color("36"),
	page.KindSocial:  lipgloss.Color("141"),
	page.KindSpacer:  lipgloss.Color("238"),
	page.KindSection: lipgloss.Color("245"),
	page.KindMap:     lipgloss.Color("107"),
	page.KindVideo:   lipgloss.Color("173"),
}

var (
	styleBlockText = lipgloss.NewStyle().Foreground(lipgloss.Color("0"))
	styleEmpty     = lipgloss.NewStyle().Foreground(colorDim)
	styleConflict  = lipgloss.NewStyle().Background(colorRed).Foreground(colorWhite).Bold(true)
	styleRuler     = lipgloss.NewStyle().Foreground(colorGray)
)

// gridView is the rendering state of one page.
type gridView struct {
	blocks   []grid.Block
	columns  int
	rows     int
	selected string     // highlighted block id
	cursor   *grid.Cell // highlighted cell
}

// newGridView prepares blocks for rendering on a grid of the given width.
// At least minRows rows are drawn.
func newGridView(blocks []grid.Block, columns, minRows int) *gridView {
	rows := minRows
	for _, b := range blocks {
		if b.Placed() && b.Row+b.RowSpan-1 > rows {
			rows = b.Row + b.RowSpan - 1
		}
	}
	return &gridView{blocks: blocks, columns: columns, rows: max(rows, 1)}
}

// owners returns the indices of the blocks covering cell in slice order, so
// the last one is painted on top.
func (v *gridView) owners(cell grid.Cell) []int {
	var out []int
	for i, b := range v.blocks {
		if !b.Placed() {
			continue
		}
		if cell.Col >= b.Column && cell.Col < b.Column+b.ColSpan &&
			cell.Row >= b.Row && cell.Row < b.Row+b.RowSpan {
			out = append(out, i)
		}
	}
	return out
}

// top returns the topmost block covering cell, or -1.
func (v *gridView) top(cell grid.Cell) int {
	o := v.owners(cell)
	if len(o) == 0 {
		return -1
	}
	return o[len(o)-1]
}

// Render draws the grid with a column header and a row ruler.
func (v *gridView) Render() string {
	var sb strings.Builder

	sb.WriteString(strings.Repeat(" ", rulerWidth))
	for c := 1; c <= v.columns; c++ {
		sb.WriteString(styleRuler.Render(fmt.Sprintf("%-*d", cellWidth, c)))
	}
	sb.WriteString("\n")

	for r := 1; r <= v.rows; r++ {
		for line := 0; line < cellHeight; line++ {
			if line == 0 {
				sb.WriteString(styleRuler.Render(fmt.Sprintf("%*d ", rulerWidth-1, r)))
			} else {
				sb.WriteString(strings.Repeat(" ", rulerWidth))
			}
			for c := 1; c <= v.columns; c++ {
				sb.WriteString(v.segment(grid.Cell{Col: c, Row: r}, line))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// segment renders one line of one cell.
func (v *gridView) segment(cell grid.Cell, line int) string {
	cursor := v.cursor != nil && *v.cursor == cell
	owners := v.owners(cell)

	if len(owners) == 0 {
		text := strings.Repeat(" ", cellWidth)
		if line == 0 {
			text = "·" + strings.Repeat(" ", cellWidth-1)
		}
		if cursor {
			return styleEmpty.Reverse(true).Render(text)
		}
		return styleEmpty.Render(text)
	}

	b := v.blocks[owners[len(owners)-1]]
	right := cell.Col < b.Column+b.ColSpan-1
	below := cell.Row < b.Row+b.RowSpan-1

	// Gutters separate blocks; inside a block they are filled.
	width := cellWidth
	if !right {
		width--
	}
	text := strings.Repeat(" ", width)
	if line == cellHeight-1 && !below {
		text = ""
	} else if cell.Row == b.Row && line < 2 {
		label := b.ID
		if line == 1 {
			label = b.Kind
		}
		text = labelSlice(" "+label, (cell.Col-b.Column)*cellWidth, width)
	}

	style := styleBlockText.Background(kindColor(b.Kind))
	switch {
	case len(owners) > 1:
		style = styleConflict
		if line == 0 && text != "" {
			text = "✗" + string([]rune(text)[1:])
		}
	case b.ID == v.selected:
		style = style.Background(colorCyan).Bold(true)
	}
	if cursor {
		style = style.Reverse(true)
	}

	out := style.Render(text)
	if pad := cellWidth - lipgloss.Width(text); pad > 0 {
		out += strings.Repeat(" ", pad)
	}
	return out
}

// labelSlice returns width characters of label starting at offset, padded
// with spaces so labels continue across the cells of wide blocks.
func labelSlice(label string, offset, width int) string {
	runes := []rune(label)
	out := make([]rune, width)
	for i := range out {
		if j := offset + i; j < len(runes) {
			out[i] = runes[j]
		} else {
			out[i] = ' '
		}
	}
	return string(out)
}

func kindColor(kind string) lipgloss.Color {
	if c, ok := kindColors[kind]; ok {
		return c
	}
	return colorGray
}

// legend renders a table of the blocks with their positions.
func legend(blocks []grid.Block, selected string) string {
	rows := make([][]string, len(blocks))
	for i, b := range blocks {
		pos := "unplaced"
		if b.Placed() {
			pos = fmt.Sprintf("%d,%d", b.Column, b.Row)
		}
		rows[i] = []string{b.ID, b.Kind, pos, fmt.Sprintf("%dx%d", b.ColSpan, b.RowSpan)}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Block", "Kind", "Cell", "Span").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row >= 0 && row < len(blocks) && blocks[row].ID == selected {
				return base.Foreground(colorCyan).Bold(true)
			}
			if col == 1 {
				return base.Foreground(colorGray)
			}
			return base
		}).
		Render()
}

// =============================================================================
// show
// =============================================================================

// showCommand creates the show command.
func (c *CLI) showCommand() *cobra.Command {
	var (
		fromStore bool
		noLegend  bool
	)

	cmd := &cobra.Command{
		Use:   "show [page.json | page-id]",
		Short: "Draw a page's grid in the terminal",
		Long: `Draw a page's grid in the terminal with one colour per block kind.

Cells covered by more than one block are marked with ✗. With --store the
argument is a page id in the configured store instead of a file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc *page.Document
			if fromStore {
				env, err := c.openPages(cmd.Context())
				if err != nil {
					return err
				}
				defer env.Close()
				if doc, err = env.pages.Load(cmd.Context(), args[0]); err != nil {
					return err
				}
			} else {
				var err error
				if doc, err = readPage(args[0]); err != nil {
					return err
				}
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			columns := cfg.Grid.Columns
			if n := page.Columns(doc.GridVersion); n > 0 {
				columns = n
			}

			out := cmd.OutOrStdout()
			title := doc.Title
			if title == "" {
				title = doc.ID
			}
			fmt.Fprintln(out, StyleTitle.Render(title)+" "+StyleDim.Render(fmt.Sprintf("(%d columns)", columns)))
			fmt.Fprint(out, newGridView(doc.Blocks, columns, 1).Render())
			if !noLegend && len(doc.Blocks) > 0 {
				fmt.Fprintln(out, legend(doc.Blocks, ""))
			}
			if pairs := cfg.Engine().Conflicts(doc.Blocks); len(pairs) > 0 {
				printWarning("%d overlapping pairs; run 'gridpage resolve' to fix", len(pairs))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStore, "store", false, "read the page from the configured store")
	cmd.Flags().BoolVar(&noLegend, "no-legend", false, "omit the block table")
	return cmd
}
