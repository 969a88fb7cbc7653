package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridpage/pkg/api"
	"github.com/matzehuels/gridpage/pkg/mcptools"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout and page API over HTTP",
		Long: `Serve the HTTP API on the configured address ([server] addr, default
:8080). Stateless layout operations live under /v1/layout, stored pages under
/v1/pages. Page writes are queued and flushed on shutdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := c.openPages(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			if addr == "" {
				addr = env.cfg.Server.Addr
			}
			srv := api.NewServer(api.Options{
				Runner: env.runner,
				Store:  env.store,
				Writer: env.pages.Writer,
				Logger: c.Logger,
			})
			defer srv.Close()

			printInfo("Serving on %s (store: %s)", addr, env.cfg.Store.Backend)
			printNextStep("Health check", "curl http://"+localAddr(addr)+"/healthz")
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: [server] addr from config)")
	return cmd
}

// mcpCommand creates the mcp command for the MCP stdio server.
func (c *CLI) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve page editing tools over MCP (stdio)",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing page tools:
list_pages, list_blocks, add_block, move_block, resize_block, delete_block
and compact_page. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.openPages(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			return mcptools.New(env.pages, c.Logger).ServeStdio()
		},
	}
}

// localAddr turns a listen address like ":8080" into one a client can dial.
func localAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
