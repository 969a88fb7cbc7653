package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridpage/pkg/page"
)

// storeCommand creates the store command for pages in the configured store.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage pages in the configured store",
		Long: `Manage pages in the store selected by the [store] section of the config
file: a directory of JSON files (default), SQLite, Redis or MongoDB.`,
	}

	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeGetCommand())
	cmd.AddCommand(c.storePutCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored page ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.openPages(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			ids, err := env.pages.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func (c *CLI) storeGetCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get [page-id]",
		Short: "Print a stored page as JSON",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, prefix string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return c.completePageIDs(cmd, args, prefix)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.openPages(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			doc, err := env.pages.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output == "" || output == stdio {
				return page.WriteJSON(cmd.OutOrStdout(), doc)
			}
			if err := page.ExportJSON(doc, output); err != nil {
				return fmt.Errorf("write page %s: %w", output, err)
			}
			printSuccess("Exported %s", doc.ID)
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func (c *CLI) storePutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put [page.json...]",
		Short: "Import page files into the store",
		Long: `Import page files into the store, replacing pages with the same id.

Each page is repaired on the way in: legacy pages are migrated, unplaced
blocks get a slot and overlapping blocks are moved.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.openPages(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			for _, path := range args {
				doc, err := readPage(path)
				if err != nil {
					return err
				}
				res, err := env.pages.Import(cmd.Context(), doc)
				if err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}
				printSuccess("Stored %s", res.Document.ID)
				printStats(res.Stats.Blocks, res.Stats.Relocated, res.CacheHit)
			}
			return nil
		},
	}
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "delete [page-id...]",
		Short:             "Delete stored pages",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completePageIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.openPages(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			for _, id := range args {
				if err := env.pages.Delete(cmd.Context(), id); err != nil {
					return err
				}
				printSuccess("Deleted %s", id)
			}
			return nil
		},
	}
}
