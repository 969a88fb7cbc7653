package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/gridpage/pkg/errors"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	if cfg != want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[grid]
columns = 12
search_rows = 50

[store]
backend = "redis"
addr = "cache:6379"
db = 2

[cache]
enabled = false
ttl = "90m"

[server]
addr = "127.0.0.1:9000"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Grid.Columns != 12 || cfg.Grid.SearchRows != 50 {
		t.Errorf("Grid = %+v", cfg.Grid)
	}
	// Unset keys keep their defaults.
	if cfg.Grid.MaxRowSpan != Default().Grid.MaxRowSpan {
		t.Errorf("MaxRowSpan = %d, want default", cfg.Grid.MaxRowSpan)
	}
	if cfg.Store.Backend != BackendRedis || cfg.Store.Addr != "cache:6379" || cfg.Store.DB != 2 {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled = true, want false")
	}
	if cfg.Cache.TTL.Duration != 90*time.Minute {
		t.Errorf("Cache.TTL = %v, want 90m", cfg.Cache.TTL)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}

	e := cfg.Engine()
	if e.Columns != 12 || e.SearchRows != 50 {
		t.Errorf("Engine() = %+v", e)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad toml", "[grid\ncolumns = 9"},
		{"bad duration", "[cache]\nttl = \"soon\""},
		{"unknown backend", "[store]\nbackend = \"etcd\""},
		{"zero columns", "[grid]\ncolumns = 0"},
		{"negative search rows", "[grid]\nsearch_rows = -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Load() code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateBackends(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"sqlite", func(c *Config) { c.Store.Backend = BackendSQLite }, false},
		{"sqlite without dsn", func(c *Config) { c.Store.Backend = BackendSQLite; c.Store.DSN = "" }, true},
		{"mongo", func(c *Config) { c.Store.Backend = BackendMongo }, false},
		{"mongo without database", func(c *Config) { c.Store.Backend = BackendMongo; c.Store.Database = "" }, true},
		{"file without dir", func(c *Config) { c.Store.Dir = "" }, true},
		{"negative ttl", func(c *Config) { c.Cache.TTL.Duration = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.Store.Backend = BackendSQLite
	cfg.Cache.TTL = Duration{time.Hour}

	if err := cfg.Write(path); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != cfg {
		t.Errorf("Load(Write(cfg)) = %+v, want %+v", got, cfg)
	}
}

func TestDefaultPathHonoursXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if got, want := DefaultPath(), filepath.Join(dir, "gridpage", "config.toml"); got != want {
		t.Errorf("DefaultPath() = %s, want %s", got, want)
	}
}
