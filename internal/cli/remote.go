package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridpage/pkg/api"
	"github.com/matzehuels/gridpage/pkg/pipeline"
)

// remoteCommand creates the remote command for a running gridpage server.
func (c *CLI) remoteCommand() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Work with pages on a gridpage server",
		Long: `Work with pages on a running 'gridpage serve'. The server URL comes from
--server, then $GRIDPAGE_SERVER, then http://localhost:8080.`,
	}
	cmd.PersistentFlags().StringVar(&server, "server", "", "server base URL")

	client := func() *api.Client {
		url := server
		if url == "" {
			url = os.Getenv("GRIDPAGE_SERVER")
		}
		if url == "" {
			url = "http://localhost:8080"
		}
		c.Logger.Debug("using server", "url", url)
		return api.NewClient(url)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List page ids on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := client().ListPages(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	})

	var pullOutput string
	pull := &cobra.Command{
		Use:   "pull [page-id]",
		Short: "Download a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := client().GetPage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			dest := pullOutput
			if dest == "" {
				dest = doc.ID + ".json"
			}
			if _, err := writePage(cmd, doc, dest, dest); err != nil {
				return err
			}
			if dest != stdio {
				printSuccess("Pulled %s", doc.ID)
				printFile(dest)
			}
			return nil
		},
	}
	pull.Flags().StringVarP(&pullOutput, "output", "o", "", `output file, "-" for stdout (default: <id>.json)`)
	cmd.AddCommand(pull)

	cmd.AddCommand(&cobra.Command{
		Use:   "push [page.json...]",
		Short: "Upload pages, replacing pages with the same id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl := client()
			for _, path := range args {
				doc, err := readPage(path)
				if err != nil {
					return err
				}
				res, err := cl.PutPage(cmd.Context(), doc)
				if err != nil {
					return fmt.Errorf("push %s: %w", path, err)
				}
				printSuccess("Pushed %s", res.Document.ID)
				printStats(res.Stats.Blocks, res.Stats.Relocated, res.CacheHit)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "compact [page-id]",
		Short: "Compact a page on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := client().Mutate(cmd.Context(), args[0], pipeline.Args{Op: pipeline.OpCompact})
			if err != nil {
				return err
			}
			printSuccess("Compacted %s", res.Document.ID)
			printStats(res.Stats.Blocks, res.Stats.Relocated, false)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [page-id]",
		Short: "Delete a page on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().DeletePage(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted %s", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the server's version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := client().Health(cmd.Context())
			if err != nil {
				return err
			}
			printKeyValue("version", info.Version)
			printKeyValue("commit", info.Commit)
			printKeyValue("built", info.Date)
			return nil
		},
	})

	return cmd
}
