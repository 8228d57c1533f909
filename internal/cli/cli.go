// Package cli implements the boxwood command-line interface.
//
// This package provides commands for compiling design documents into styled
// scene trees, exporting them as standalone component bundles, serving
// compiled scenes over HTTP, and managing credentials and the response
// cache. The CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - compile: Fetch a document and compile it into a styled scene tree
//   - export: Build a source-plus-assets bundle from a compiled scene
//   - serve: Run the preview server with the scene archive
//   - inspect: Render a compiled scene's box tree as a diagram
//   - auth: Store and verify the API access token
//   - cache: Manage the local response cache
//
// # Configuration
//
// Commands read boxwood.toml (working directory, then the user config
// directory). Flags override the file; the file overrides built-in
// defaults.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/quellt/boxwood/pkg/buildinfo"
	"github.com/quellt/boxwood/pkg/cache"
	"github.com/quellt/boxwood/pkg/figma"
	"github.com/quellt/boxwood/pkg/pipeline"
	"github.com/quellt/boxwood/pkg/session"
	"github.com/quellt/boxwood/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "boxwood"

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
	Config *Config

	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The config file is loaded in PersistentPreRunE so every command sees the
// merged configuration.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Boxwood compiles design documents into styled scene trees",
		Long: `Boxwood fetches design documents, resolves their image assets, and compiles
them into a framework-free styled box tree that previews, bundles, and
debug diagrams are built from.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./boxwood.toml, then the user config dir)")

	// Register all subcommands
	root.AddCommand(c.compileCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.authCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The API client shares the
// cache backend with the scene cache, so --no-cache disables every layer at
// once.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	backend, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}

	client := figma.NewClient(c.resolveToken(ctx), backend, nil)
	if c.Config.API.BaseURL != "" {
		client.SetBaseURL(c.Config.API.BaseURL)
	}

	return pipeline.NewRunner(client, backend, nil, c.Logger), nil
}

// newCache creates the cache backend selected by the configuration.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}

	switch c.Config.Cache.Backend {
	case CacheBackendNone:
		return cache.NewNullCache(), nil
	case CacheBackendRedis:
		return cache.NewRedisCache(ctx, c.Config.Cache.RedisURL)
	default:
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// newArchive creates the scene archive selected by the configuration.
func (c *CLI) newArchive(ctx context.Context) (store.Store, error) {
	if c.Config.Archive.Backend == ArchiveBackendMongo {
		return store.NewMongoStore(ctx, c.Config.Archive.MongoURI, c.Config.Archive.MongoDatabase)
	}
	return store.NewMemoryStore(), nil
}

// resolveToken returns the API token from the environment or the stored
// session, in that order. An empty token still works for local documents
// and skeleton compiles.
func (c *CLI) resolveToken(ctx context.Context) string {
	if env := c.Config.API.TokenEnv; env != "" {
		if tok := os.Getenv(env); tok != "" {
			return tok
		}
	}
	cliStore, err := session.NewCLIStore()
	if err != nil {
		return ""
	}
	sess, err := cliStore.GetSession(ctx)
	if err != nil || sess == nil {
		return ""
	}
	return sess.Token
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/boxwood/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// configOptions seeds pipeline options from the loaded configuration.
// Command flags override these values; anything still zero falls back to
// the pipeline defaults.
func (c *CLI) configOptions() pipeline.Options {
	cfg := c.Config
	return pipeline.Options{
		AssetFormat: cfg.Assets.Format,
		AssetScale:  cfg.Assets.Scale,
		ChunkSize:   cfg.Assets.ChunkSize,
		Concurrency: cfg.Assets.Concurrency,
		WhiteMin:    cfg.Compile.WhiteMin,
		BlackMax:    cfg.Compile.BlackMax,
		AlphaMax:    cfg.Compile.AlphaMax,
		MaxZIndex:   cfg.Compile.MaxZIndex,
		Logger:      c.Logger,
	}
}
