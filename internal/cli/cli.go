// Package cli implements the gridpage command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridpage/pkg/cache"
	"github.com/matzehuels/gridpage/pkg/config"
	"github.com/matzehuels/gridpage/pkg/pipeline"
	"github.com/matzehuels/gridpage/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "gridpage"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Set by persistent flags on the root command.
	configPath string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the config file named by --config, or the default one.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	c.Logger.Debug("loaded config", "path", c.configPathOrDefault(), "store", cfg.Store.Backend, "columns", cfg.Grid.Columns)
	return cfg, nil
}

func (c *CLI) configPathOrDefault() string {
	if c.configPath != "" {
		return c.configPath
	}
	return config.DefaultPath()
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config) (*pipeline.Runner, error) {
	lc, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if _, shared := lc.(*cache.RedisCache); shared {
		// Layouts share the keyspace of the Redis page store.
		keyer = cache.NewScopedKeyer(nil, appName+":")
	}
	r := pipeline.NewRunner(cfg.Engine(), lc, keyer, c.Logger)
	r.TTL = cfg.Cache.TTL.Duration
	return r, nil
}

// newCache returns the layout cache. Pages kept in Redis share that server
// for cached layouts; everything else uses the file cache. An unusable cache
// directory disables caching rather than failing the command.
func (c *CLI) newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if c.noCache || !cfg.Cache.Enabled {
		return cache.NewNullCache(), nil
	}
	if cfg.Store.Backend == config.BackendRedis {
		rc, err := cache.DialRedisCache(ctx, cfg.Store.Addr, cfg.Store.Password, cfg.Store.DB)
		if err != nil {
			return nil, fmt.Errorf("connect layout cache: %w", err)
		}
		return rc, nil
	}
	fc, err := cache.NewFileCache(cfg.Cache.Dir)
	if err != nil {
		c.Logger.Warn("layout cache disabled", "dir", cfg.Cache.Dir, "error", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// =============================================================================
// Page Service
// =============================================================================

// pageEnv bundles what commands working on stored pages need.
type pageEnv struct {
	cfg    config.Config
	runner *pipeline.Runner
	store  store.Store
	pages  *pipeline.Service
}

// openPages loads the config, opens the configured store and starts a page
// service on it. Callers must Close the returned env.
func (c *CLI) openPages(ctx context.Context) (*pageEnv, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	// Only network backends are slow enough to need a spinner.
	var spinner *Spinner
	if cfg.Store.Backend != config.BackendFile && cfg.Store.Backend != config.BackendSQLite {
		spinner = newSpinnerWithContext(ctx, "Preparing layout cache...")
		spinner.Start()
		defer spinner.Stop()
	}

	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if spinner != nil {
		spinner.SetMessage(fmt.Sprintf("Connecting to %s store...", cfg.Store.Backend))
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		runner.Close()
		if spinner != nil && !spinner.Cancelled() {
			spinner.StopWithError(fmt.Sprintf("%s store unavailable at %s", cfg.Store.Backend, storeLocation(cfg.Store)))
		}
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}

	return &pageEnv{
		cfg:    cfg,
		runner: runner,
		store:  st,
		pages:  pipeline.NewService(runner, st, store.NewAsyncWriter(st, c.Logger)),
	}, nil
}

// Close flushes pending writes, then closes the store and the cache.
func (e *pageEnv) Close() error {
	err := e.pages.Close()
	if serr := e.store.Close(); err == nil {
		err = serr
	}
	if rerr := e.runner.Close(); err == nil {
		err = rerr
	}
	return err
}
