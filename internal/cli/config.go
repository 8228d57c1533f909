package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Cache backend names accepted by the config file.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Archive backend names accepted by the config file.
const (
	ArchiveBackendMemory = "memory"
	ArchiveBackendMongo  = "mongo"
)

// Config is the parsed boxwood.toml file. Zero values defer to the pipeline
// defaults, so a missing file and an empty file behave identically.
type Config struct {
	API     APIConfig     `toml:"api"`
	Assets  AssetsConfig  `toml:"assets"`
	Compile CompileConfig `toml:"compile"`
	Cache   CacheConfig   `toml:"cache"`
	Archive ArchiveConfig `toml:"archive"`
	Serve   ServeConfig   `toml:"serve"`
}

// APIConfig configures the remote document API.
type APIConfig struct {
	// BaseURL overrides the public endpoint. Useful for mirrors and tests.
	BaseURL string `toml:"base_url"`

	// TokenEnv names the environment variable consulted for the access
	// token before the stored session.
	TokenEnv string `toml:"token_env"`
}

// AssetsConfig configures asset resolution.
type AssetsConfig struct {
	Format      string  `toml:"format"`      // render format: png, jpg, svg, pdf
	Scale       float64 `toml:"scale"`       // render scale factor
	ChunkSize   int     `toml:"chunk_size"`  // ids per render request
	Concurrency int     `toml:"concurrency"` // parallel render requests
}

// CompileConfig overrides the placeholder-fill thresholds and stacking
// bound of the scene compiler.
type CompileConfig struct {
	WhiteMin  float64 `toml:"white_min"`
	BlackMax  float64 `toml:"black_max"`
	AlphaMax  float64 `toml:"alpha_max"`
	MaxZIndex int     `toml:"max_z_index"`
}

// CacheConfig selects the response cache backend.
type CacheConfig struct {
	Backend  string `toml:"backend"` // file (default), redis, none
	RedisURL string `toml:"redis_url"`
}

// ArchiveConfig selects the scene archive backend used by the preview
// server.
type ArchiveConfig struct {
	Backend       string `toml:"backend"` // memory (default), mongo
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// ServeConfig configures the preview server.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		API:     APIConfig{TokenEnv: "FIGMA_TOKEN"},
		Cache:   CacheConfig{Backend: CacheBackendFile},
		Archive: ArchiveConfig{Backend: ArchiveBackendMemory, MongoDatabase: appName},
		Serve:   ServeConfig{Addr: ":8080"},
	}
}

// LoadConfig reads the TOML config file at path. When path is empty the
// working directory and the user config directory are searched, and a
// missing file yields the defaults. An explicit path that does not exist
// is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = findConfig()
		if path == "" {
			return cfg, nil
		}
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("load config %s: unknown key %q", path, keys[0].String())
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// validate rejects misspelled backends early, before a command tries to
// construct one.
func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "", CacheBackendFile, CacheBackendRedis, CacheBackendNone:
	default:
		return fmt.Errorf("unknown cache backend %q (must be %q, %q, or %q)",
			c.Cache.Backend, CacheBackendFile, CacheBackendRedis, CacheBackendNone)
	}
	if c.Cache.Backend == CacheBackendRedis && c.Cache.RedisURL == "" {
		return fmt.Errorf("cache backend %q requires redis_url", CacheBackendRedis)
	}

	switch c.Archive.Backend {
	case "", ArchiveBackendMemory, ArchiveBackendMongo:
	default:
		return fmt.Errorf("unknown archive backend %q (must be %q or %q)",
			c.Archive.Backend, ArchiveBackendMemory, ArchiveBackendMongo)
	}
	if c.Archive.Backend == ArchiveBackendMongo && c.Archive.MongoURI == "" {
		return fmt.Errorf("archive backend %q requires mongo_uri", ArchiveBackendMongo)
	}
	return nil
}

// findConfig returns the first config file present in the search path:
// ./boxwood.toml, then <user config dir>/boxwood/boxwood.toml.
func findConfig() string {
	candidates := []string{appName + ".toml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, appName, appName+".toml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
