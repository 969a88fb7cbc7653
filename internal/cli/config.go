package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridpage/pkg/config"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), c.configPathOrDefault())
			return nil
		},
	})

	var asTOML bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if asTOML {
				return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			}
			printKeyValue("file", c.configPathOrDefault())
			printKeyValue("columns", strconv.Itoa(cfg.Grid.Columns))
			printKeyValue("max rows", strconv.Itoa(cfg.Grid.MaxRowSpan))
			printKeyValue("store", cfg.Store.Backend)
			printKeyValue("location", storeLocation(cfg.Store))
			cacheState := "off"
			if cfg.Cache.Enabled && !c.noCache {
				cacheState = fmt.Sprintf("%s (ttl %s)", cfg.Cache.Dir, cfg.Cache.TTL.Duration)
			}
			printKeyValue("cache", cacheState)
			printKeyValue("server", cfg.Server.Addr)
			return nil
		},
	}
	show.Flags().BoolVar(&asTOML, "toml", false, "print as TOML")
	cmd.AddCommand(show)

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPathOrDefault()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Default().Write(path); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			printSuccess("Wrote default config")
			printFile(path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)

	return cmd
}

// storeLocation describes where the selected backend keeps pages.
func storeLocation(s config.Store) string {
	switch s.Backend {
	case config.BackendFile:
		return s.Dir
	case config.BackendSQLite:
		return s.DSN
	case config.BackendRedis:
		return fmt.Sprintf("%s db %d", s.Addr, s.DB)
	case config.BackendMongo:
		return s.URI + "/" + s.Database
	default:
		return ""
	}
}
