package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridpage/pkg/page"
	"github.com/matzehuels/gridpage/pkg/pipeline"
)

// editCommand creates the edit command.
func (c *CLI) editCommand() *cobra.Command {
	var fromStore bool

	cmd := &cobra.Command{
		Use:   "edit [page.json | page-id]",
		Short: "Edit a page interactively",
		Long: `Open a page in an interactive grid editor.

Move the cursor with the arrow keys (or hjkl). On a block, m grabs it for
moving and r for resizing; the cursor then drags it and enter commits or esc
cancels. a adds a block at the cursor (tab cycles the kind), d deletes, c
compacts, u and U undo and redo, s saves and q quits.

The page is repaired (migrated, normalized, overlaps resolved) when opened.
With --store the argument is a page id in the configured store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromStore {
				return c.editStored(cmd.Context(), args[0])
			}
			return c.editFile(cmd.Context(), args[0])
		},
	}
	cmd.Flags().BoolVar(&fromStore, "store", false, "edit a page in the configured store")
	return cmd
}

func (c *CLI) editFile(ctx context.Context, path string) error {
	if path == stdio {
		return fmt.Errorf("edit needs a file, not stdin")
	}
	doc, err := readPage(path)
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

	return c.runEditor(ctx, runner, doc, func(_ context.Context, d *page.Document) error {
		d.Touch()
		return page.ExportJSON(d, path)
	})
}

func (c *CLI) editStored(ctx context.Context, id string) error {
	env, err := c.openPages(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	doc, err := env.pages.Load(ctx, id)
	if err != nil {
		return err
	}
	return c.runEditor(ctx, env.runner, doc, func(ctx context.Context, d *page.Document) error {
		_, err := env.pages.Import(ctx, d)
		return err
	})
}

// runEditor repairs doc and runs the editor until the user quits.
func (c *CLI) runEditor(ctx context.Context, runner *pipeline.Runner, doc *page.Document, save saveFunc) error {
	res, err := runner.Apply(ctx, doc, pipeline.Import{})
	if err != nil {
		return err
	}
	if res.Stats.Relocated > 0 || res.Stats.Migrated {
		c.Logger.Info("repaired page", "page", doc.ID, "moved", res.Stats.Relocated, "migrated", res.Stats.Migrated)
	}

	model := NewEditorModel(ctx, runner, res.Document, save)
	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("editor: %w", err)
	}

	if m, ok := final.(EditorModel); ok && m.Dirty() {
		printWarning("Quit with unsaved changes")
	}
	return nil
}
