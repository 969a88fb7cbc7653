package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridpage/pkg/page"
	"github.com/matzehuels/gridpage/pkg/pipeline"
)

// addCommand creates the add command.
func (c *CLI) addCommand() *cobra.Command {
	var output string
	args := pipeline.Args{Op: pipeline.OpAdd}

	cmd := &cobra.Command{
		Use:   "add [page.json]",
		Short: "Add a block to a page",
		Long: `Add a block of the given kind to a page.

Without --column and --row the block takes the first free slot. With them it
is placed there if the cells are free, otherwise at the first free slot at or
below that row. Existing blocks never move.`,
		Example: `  gridpage add home.json --kind image
  gridpage add home.json --kind video --column 4 --row 2 --id intro`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return c.runMutation(cmd, argv[0], output, args)
		},
	}

	cmd.Flags().StringVarP(&args.Kind, "kind", "k", "", "block kind: "+strings.Join(page.Kinds(), ", "))
	cmd.Flags().StringVar(&args.ID, "id", "", "block id (default: random)")
	cmd.Flags().IntVar(&args.Column, "column", 0, "column of the top-left cell")
	cmd.Flags().IntVar(&args.Row, "row", 0, "row of the top-left cell")
	cmd.Flags().IntVar(&args.ColSpan, "col-span", 0, "width in cells (default: kind default)")
	cmd.Flags().IntVar(&args.RowSpan, "row-span", 0, "height in cells (default: kind default)")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.RegisterFlagCompletionFunc("kind", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return page.Kinds(), cobra.ShellCompDirectiveNoFileComp
	})
	addOutputFlag(cmd, &output)
	return cmd
}

// moveCommand creates the move command.
func (c *CLI) moveCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "move [page.json] [block] [column] [row]",
		Short: "Move a block; blocks it lands on are relocated",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, argv []string) error {
			nums, err := parseInts(argv[2:], "column", "row")
			if err != nil {
				return err
			}
			return c.runMutation(cmd, argv[0], output, pipeline.Args{
				Op: pipeline.OpMove, ID: argv[1], Column: nums[0], Row: nums[1],
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

// resizeCommand creates the resize command.
func (c *CLI) resizeCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "resize [page.json] [block] [colSpan] [rowSpan]",
		Short: "Resize a block and reflow the page",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, argv []string) error {
			nums, err := parseInts(argv[2:], "colSpan", "rowSpan")
			if err != nil {
				return err
			}
			return c.runMutation(cmd, argv[0], output, pipeline.Args{
				Op: pipeline.OpResize, ID: argv[1], ColSpan: nums[0], RowSpan: nums[1],
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

// deleteCommand creates the delete command.
func (c *CLI) deleteCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "delete [page.json] [block]",
		Short: "Delete a block and reflow the page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return c.runMutation(cmd, argv[0], output, pipeline.Args{Op: pipeline.OpDelete, ID: argv[1]})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

// runMutation applies args to the page in input with a pipeline runner and
// writes the result. Legacy pages are migrated on the way.
func (c *CLI) runMutation(cmd *cobra.Command, input, output string, args pipeline.Args) error {
	ctx := cmd.Context()

	m, err := pipeline.ParseMutation(args)
	if err != nil {
		return err
	}
	doc, err := readPage(input)
	if err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	res, err := runner.Apply(ctx, doc, m)
	if err != nil {
		return err
	}
	prog.done(args.Op, "page", res.Document.ID, "relocated", res.Stats.Relocated)

	dest, err := writePage(cmd, res.Document, input, output)
	if err != nil {
		return err
	}
	if dest != stdio {
		printSuccess("%s %s", pastTense(args.Op), res.Document.ID)
		printFile(dest)
		printStats(res.Stats.Blocks, res.Stats.Relocated, res.CacheHit)
		if res.Stats.Migrated {
			printDetail("migrated from the legacy 3-column grid")
		}
	}
	return nil
}

// parseInts parses positional integer arguments, naming the offending one
// on error.
func parseInts(argv []string, names ...string) ([]int, error) {
	out := make([]int, len(argv))
	for i, s := range argv {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: must be an integer", names[i], s)
		}
		out[i] = v
	}
	return out, nil
}
