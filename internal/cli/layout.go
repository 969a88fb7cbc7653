package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridpage/pkg/grid"
	"github.com/matzehuels/gridpage/pkg/page"
)

// stdio names standard input or output in file arguments.
const stdio = "-"

// layoutFunc rewrites the blocks of one page.
type layoutFunc func(e *grid.Engine, doc *page.Document) (*page.Document, error)

// normalizeCommand creates the normalize command.
func (c *CLI) normalizeCommand() *cobra.Command {
	return c.layoutCommand("normalize", "Clamp blocks to the grid and place unplaced ones",
		`Clamp every block's spans and coordinates to the grid and give each
unplaced block the first free slot in reading order.

Positioned blocks that overlap each other are left alone; use 'resolve' for
that.`,
		func(e *grid.Engine, doc *page.Document) (*page.Document, error) {
			doc.Blocks = e.Normalize(doc.Blocks)
			return doc, nil
		})
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	return c.layoutCommand("resolve", "Move overlapping blocks to free slots",
		`Keep every block whose cells are not already taken and move the rest,
in reading order, to the first free slot at or below their own row.`,
		func(e *grid.Engine, doc *page.Document) (*page.Document, error) {
			if pairs := e.Conflicts(doc.Blocks); len(pairs) > 0 {
				c.Logger.Info("resolving overlaps", "pairs", len(pairs))
			}
			doc.Blocks = e.ResolveOverlaps(e.Normalize(doc.Blocks))
			return doc, nil
		})
}

// reflowCommand creates the reflow command.
func (c *CLI) reflowCommand() *cobra.Command {
	return c.layoutCommand("reflow", "Pack all blocks towards the top-left",
		`Re-place every block in reading order at the first free slot, removing
the gaps left by deleted or shrunk blocks.`,
		func(e *grid.Engine, doc *page.Document) (*page.Document, error) {
			doc.Blocks = e.Reflow(doc.Blocks)
			return doc, nil
		})
}

// migrateCommand creates the migrate command.
func (c *CLI) migrateCommand() *cobra.Command {
	var from, to int
	var force bool

	cmd := c.layoutCommand("migrate", "Rescale a page from the legacy 3-column grid",
		`Rescale block coordinates and spans from one grid resolution to another.

Without --from, the page's gridVersion decides: legacy pages are rescaled,
current pages are left alone and pages without a version are rescaled only
if their blocks look like they were laid out on 3 columns. With --from the
same heuristic applies to the given resolutions unless --force is set.`,
		func(e *grid.Engine, doc *page.Document) (*page.Document, error) {
			if from == 0 {
				out, migrated := page.Upgrade(e, doc)
				if !migrated {
					c.Logger.Info("page is already on the current grid", "page", doc.ID)
				}
				return out, nil
			}
			if to == 0 {
				to = e.Columns
			}
			if force {
				doc.Blocks = e.Rescale(doc.Blocks, from, to)
			} else {
				doc.Blocks = e.Migrate(doc.Blocks, from, to)
			}
			if to == grid.DefaultColumns {
				doc.GridVersion = page.VersionCurrent
			}
			return doc, nil
		})

	cmd.Flags().IntVar(&from, "from", 0, "source column count (default: from the page's gridVersion)")
	cmd.Flags().IntVar(&to, "to", 0, "target column count (default: configured grid columns)")
	cmd.Flags().BoolVar(&force, "force", false, "rescale even if the blocks do not look legacy")
	return cmd
}

// layoutCommand builds a command that reads a page file, applies fn with the
// configured engine and writes the result.
func (c *CLI) layoutCommand(name, short, long string, fn layoutFunc) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   name + " [page.json]",
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd, name, args[0], output, fn)
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func (c *CLI) runLayout(cmd *cobra.Command, name, input, output string, fn layoutFunc) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	doc, err := readPage(input)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	before := doc.Clone()
	out, err := fn(cfg.Engine(), doc)
	if err != nil {
		return err
	}
	out.Touch()

	dest, err := writePage(cmd, out, input, output)
	if err != nil {
		return err
	}
	moved := countMoved(before.Blocks, out.Blocks)
	prog.done(name, "page", out.ID, "blocks", len(out.Blocks), "moved", moved)

	if dest != stdio {
		printSuccess("%s %s", pastTense(name), out.ID)
		printFile(dest)
		printStats(len(out.Blocks), moved, false)
	}
	return nil
}

// =============================================================================
// Page File Helpers
// =============================================================================

func addOutputFlag(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, "output", "o", "", `output file, "-" for stdout (default: overwrite the input)`)
}

// readPage reads a page file, or standard input for "-".
func readPage(path string) (*page.Document, error) {
	if path == stdio {
		doc, err := page.ReadJSON(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read page from stdin: %w", err)
		}
		return doc, nil
	}
	doc, err := page.ImportJSON(path)
	if err != nil {
		return nil, fmt.Errorf("read page %s: %w", path, err)
	}
	return doc, nil
}

// writePage writes doc to output, or back to input when output is empty,
// and returns the destination. Pages read from stdin go to stdout by
// default.
func writePage(cmd *cobra.Command, doc *page.Document, input, output string) (string, error) {
	dest := output
	if dest == "" {
		dest = input
	}
	if dest == stdio {
		return dest, page.WriteJSON(cmd.OutOrStdout(), doc)
	}
	if err := page.ExportJSON(doc, dest); err != nil {
		return dest, fmt.Errorf("write page %s: %w", dest, err)
	}
	return dest, nil
}

// countMoved counts blocks present in both slices whose position differs.
func countMoved(before, after []grid.Block) int {
	prev := make(map[string]grid.Cell, len(before))
	for _, b := range before {
		prev[b.ID] = b.Position()
	}
	n := 0
	for _, b := range after {
		if p, ok := prev[b.ID]; ok && p != b.Position() {
			n++
		}
	}
	return n
}

func pastTense(verb string) string {
	switch verb {
	case "add":
		return "Added block to"
	case "move":
		return "Moved block in"
	case "resize":
		return "Resized block in"
	case "delete":
		return "Deleted block from"
	case "reflow":
		return "Reflowed"
	case "compact":
		return "Compacted"
	default:
		return strings.ToUpper(verb[:1]) + verb[1:] + "d"
	}
}
