// Package config loads percolator settings from TOML files.
//
//	[log]
//	level = "info"
//	format = "json"
//
//	[percolate]
//	mode = "score"
//	size = 10
//	limit = true
//
//	[[query]]
//	id = "fox"
//	metadata = { tag = "animals", priority = 2 }
//	query = { type = "match", field = "body", text = "fox" }
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/pelletier/go-toml/v2"

	"github.com/hupe1980/percolator/highlight"
	vfs "github.com/hupe1980/percolator/internal/fs"
	"github.com/hupe1980/percolator/query"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid")

// Modes accepted by PercolateConfig.Mode.
var Modes = []string{"match", "count", "score", "sort"}

// Targets accepted by PercolateConfig.Target.
var Targets = []string{"native", "bleve"}

// Backends accepted by SnapshotConfig.Backend.
var Backends = []string{"memory", "local", "s3", "minio", "badger"}

// Config is the root of a configuration file.
type Config struct {
	Log       LogConfig       `toml:"log"`
	Registry  RegistryConfig  `toml:"registry"`
	Resource  ResourceConfig  `toml:"resource"`
	Percolate PercolateConfig `toml:"percolate"`
	Snapshot  SnapshotConfig  `toml:"snapshot"`
	Queries   []QueryConfig   `toml:"query"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

// SlogLevel parses Level.
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if c.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Level)
	}
	return l, nil
}

// RegistryConfig configures the query registry.
type RegistryConfig struct {
	Shards int `toml:"shards"`
}

// ResourceConfig mirrors resource.Config.
type ResourceConfig struct {
	MemoryLimitBytes      int64   `toml:"memory_limit_bytes"`
	MaxConcurrentRequests int64   `toml:"max_concurrent_requests"`
	RequestsPerSecond     float64 `toml:"requests_per_second"`
	Burst                 int     `toml:"burst"`
	IOLimitBytesPerSec    int64   `toml:"io_limit_bytes_per_sec"`
}

// PercolateConfig holds request defaults.
type PercolateConfig struct {
	Mode         string              `toml:"mode"`
	Target       string              `toml:"target"`
	Size         int                 `toml:"size"`
	Limit        bool                `toml:"limit"`
	PoolSize     int                 `toml:"pool_size"`
	Filter       *query.Definition   `toml:"filter,omitempty"`
	Score        *query.Definition   `toml:"score,omitempty"`
	Highlight    *highlight.Options  `toml:"highlight,omitempty"`
	Facets       []FacetConfig       `toml:"facet,omitempty"`
	Aggregations []AggregationConfig `toml:"aggregation,omitempty"`
}

// SnapshotConfig selects the blob store holding registry snapshots.
type SnapshotConfig struct {
	Backend     string `toml:"backend"`
	Name        string `toml:"name"`
	Path        string `toml:"path"`
	Bucket      string `toml:"bucket"`
	Prefix      string `toml:"prefix"`
	Endpoint    string `toml:"endpoint"`
	Region      string `toml:"region"`
	AccessKey   string `toml:"access_key"`
	SecretKey   string `toml:"secret_key"`
	UseSSL      bool   `toml:"use_ssl"`
	Codec       string `toml:"codec"`
	Compression string `toml:"compression"`
}

// QueryConfig is a query to register.
type QueryConfig struct {
	ID       string           `toml:"id"`
	Metadata map[string]any   `toml:"metadata,omitempty"`
	Query    query.Definition `toml:"query"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Percolate: PercolateConfig{
			Mode:   "match",
			Target: "native",
			Size:   10,
		},
		Snapshot: SnapshotConfig{
			Backend:     "local",
			Name:        "registry.snap",
			Path:        "./data",
			Codec:       "go-json",
			Compression: "zstd",
		},
	}
}

// Parse decodes TOML data over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	return LoadFS(vfs.Default, path)
}

// LoadFS reads and parses a configuration file from fsys.
func LoadFS(fsys vfs.FileSystem, path string) (*Config, error) {
	data, err := vfs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Save writes cfg to path atomically.
func Save(path string, cfg *Config) error {
	return SaveFS(vfs.Default, path, cfg)
}

// SaveFS writes cfg to path on fsys atomically.
func SaveFS(fsys vfs.FileSystem, path string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return vfs.WriteFileAtomic(fsys, path, data, 0o600)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "" && c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Log.Format)
	}
	if c.Registry.Shards < 0 {
		return fmt.Errorf("%w: registry shards %d", ErrInvalidConfig, c.Registry.Shards)
	}
	if !slices.Contains(Modes, c.Percolate.Mode) {
		return fmt.Errorf("%w: percolate mode %q", ErrInvalidConfig, c.Percolate.Mode)
	}
	if !slices.Contains(Targets, c.Percolate.Target) {
		return fmt.Errorf("%w: percolate target %q", ErrInvalidConfig, c.Percolate.Target)
	}
	if c.Percolate.Size < 0 {
		return fmt.Errorf("%w: percolate size %d", ErrInvalidConfig, c.Percolate.Size)
	}
	if !slices.Contains(Backends, c.Snapshot.Backend) {
		return fmt.Errorf("%w: snapshot backend %q", ErrInvalidConfig, c.Snapshot.Backend)
	}
	if (c.Snapshot.Backend == "s3" || c.Snapshot.Backend == "minio") && c.Snapshot.Bucket == "" {
		return fmt.Errorf("%w: snapshot bucket required for %s", ErrInvalidConfig, c.Snapshot.Backend)
	}

	seen := make(map[string]struct{}, len(c.Queries))
	for i, q := range c.Queries {
		if q.ID == "" {
			return fmt.Errorf("%w: query %d has no id", ErrInvalidConfig, i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate query id %q", ErrInvalidConfig, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return nil
}
