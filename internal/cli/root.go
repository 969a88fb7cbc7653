package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridpage/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The logger is attached to the command context before any subcommand runs,
// so helpers deep in a command can reach it with loggerFromContext.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Gridpage lays out blocks on a page grid",
		Long: `Gridpage places content blocks on a fixed-column page grid.

It repairs layouts (normalize, resolve, reflow), migrates pages from the
legacy 3-column grid, edits pages interactively in the terminal and serves
stored pages over HTTP and MCP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/gridpage/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the layout cache")

	// Layout repair on page files
	root.AddCommand(c.normalizeCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.reflowCommand())
	root.AddCommand(c.migrateCommand())

	// Block edits on page files
	root.AddCommand(c.addCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.resizeCommand())
	root.AddCommand(c.deleteCommand())

	// Viewing and interactive editing
	root.AddCommand(c.showCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.watchCommand())

	// Stored pages and servers
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.remoteCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.mcpCommand())

	// Housekeeping
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
