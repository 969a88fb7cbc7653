// Package config loads gridpage settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/gridpage/config.toml (or
// ~/.config/gridpage/config.toml) unless a path is given explicitly. A
// missing file is not an error: every field has a default.
//
//	[grid]
//	columns = 9
//	max_row_span = 12
//	search_rows = 500
//
//	[store]
//	backend = "sqlite"
//	dsn = "/var/lib/gridpage/pages.db"
//
//	[cache]
//	enabled = true
//	ttl = "168h"
//
//	[server]
//	addr = ":8080"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/grid"
)

// appName names the configuration, data and cache directories.
const appName = "gridpage"

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config is the full configuration file.
type Config struct {
	Grid   Grid   `toml:"grid"`
	Store  Store  `toml:"store"`
	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`
}

// Grid holds engine geometry.
type Grid struct {
	Columns    int `toml:"columns"`
	MaxRowSpan int `toml:"max_row_span"`
	SearchRows int `toml:"search_rows"`
}

// Store selects and configures the page store backend. Only the fields of
// the selected backend are read.
type Store struct {
	Backend string `toml:"backend"`

	// file
	Dir string `toml:"dir"`

	// sqlite
	DSN string `toml:"dsn"`

	// redis
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`

	// mongo
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// Cache configures the layout cache.
type Cache struct {
	Enabled bool     `toml:"enabled"`
	Dir     string   `toml:"dir"`
	TTL     Duration `toml:"ttl"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a string ("90m", "168h") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration: a 9-column grid, the file
// store under the XDG data directory and the file cache enabled.
func Default() Config {
	return Config{
		Grid: Grid{
			Columns:    grid.DefaultColumns,
			MaxRowSpan: grid.DefaultMaxRowSpan,
			SearchRows: grid.DefaultSearchRows,
		},
		Store: Store{
			Backend:  BackendFile,
			Dir:      filepath.Join(dataDir(), "pages"),
			DSN:      filepath.Join(dataDir(), "pages.db"),
			Addr:     "localhost:6379",
			URI:      "mongodb://localhost:27017",
			Database: appName,
		},
		Cache: Cache{
			Enabled: true,
			Dir:     cacheDir(),
			TTL:     Duration{7 * 24 * time.Hour},
		},
		Server: Server{
			Addr: ":8080",
		},
	}
}

// Load reads the file at path on top of Default. An empty path means
// DefaultPath. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field ranges and the store backend name.
func (c Config) Validate() error {
	if err := errors.ValidateColumns(c.Grid.Columns); err != nil {
		return err
	}
	if c.Grid.MaxRowSpan < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "grid.max_row_span must be positive, got %d", c.Grid.MaxRowSpan)
	}
	if c.Grid.SearchRows < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "grid.search_rows must be positive, got %d", c.Grid.SearchRows)
	}

	switch c.Store.Backend {
	case BackendFile:
		if c.Store.Dir == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store.dir is required for the file backend")
		}
	case BackendSQLite:
		if c.Store.DSN == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store.dsn is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Store.Addr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store.addr is required for the redis backend")
		}
	case BackendMongo:
		if c.Store.URI == "" || c.Store.Database == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store.uri and store.database are required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid store.backend: %q (must be one of: file, sqlite, redis, mongo)", c.Store.Backend)
	}

	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache.ttl cannot be negative")
	}
	return nil
}

// Engine returns a grid engine with the configured geometry.
func (c Config) Engine() *grid.Engine {
	e := grid.New(c.Grid.Columns)
	if c.Grid.MaxRowSpan > 0 {
		e.MaxRowSpan = c.Grid.MaxRowSpan
	}
	if c.Grid.SearchRows > 0 {
		e.SearchRows = c.Grid.SearchRows
	}
	return e
}

// Write encodes c as TOML to path, creating parent directories.
func (c Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}

// =============================================================================
// Paths
// =============================================================================

// DefaultPath returns the XDG config file location.
func DefaultPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), appName, "config.toml")
}

func dataDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")), appName)
}

func cacheDir() string {
	return filepath.Join(xdgDir("XDG_CACHE_HOME", ".cache"), appName)
}

// xdgDir returns $env, or $HOME/fallback when env is unset.
func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(home, fallback)
}
