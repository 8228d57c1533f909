package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/quellt/boxwood/pkg/assets"
	"github.com/quellt/boxwood/pkg/cache"
	"github.com/quellt/boxwood/pkg/errors"
	"github.com/quellt/boxwood/pkg/figma"
	"github.com/quellt/boxwood/pkg/observability"
	"github.com/quellt/boxwood/pkg/scene"
)

// Source is the remote end of the pipeline: document fetch, image
// rendering, and the fill source map. *figma.Client implements it.
type Source interface {
	File(ctx context.Context, fileKey string, opts figma.FileOpts) (*scene.Document, error)
	FileNodes(ctx context.Context, fileKey string, ids []string, opts figma.FileOpts) (*scene.Document, error)
	Images(ctx context.Context, fileKey string, req figma.ImageRequest) (map[string]string, error)
	ImageFills(ctx context.Context, fileKey string, refresh bool) (map[string]string, error)
}

// Runner encapsulates pipeline execution with caching.
// Both CLI and server can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the source, cache, and logger - it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Source Source
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given source, cache, and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// A nil source restricts the pipeline to pre-loaded documents and
// source-map-only asset resolution.
func NewRunner(source Source, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Source: source,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → resolve → compile → export pipeline
// with caching. The export stage only runs when opts.Export is set.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	doc, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Document = doc
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = countNodes(doc.Root)

	// Compute document hash for cache keys and API responses
	if data, err := json.Marshal(doc); err == nil {
		result.DocHash = cache.Hash(data)
	}

	r.Logger.Info("loaded document",
		"name", doc.Name,
		"nodes", result.Stats.NodeCount,
		"duration", result.Stats.LoadTime)

	// Stages 2+3: Resolve and compile, cached as one unit. A compiled
	// scene embeds its resolved URLs, so a hit skips both stages.
	// Scenes compiled without assets are never cached: the key does not
	// distinguish them and a skeleton scene must not shadow a full one.
	sceneKey := r.Keyer.SceneKey(result.DocHash, opts.SceneKeyOpts())
	cacheable := !opts.SkipAssets && result.DocHash != ""

	if cacheable && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, sceneKey); err == nil && hit {
			var cached scene.StyledNode
			if err := json.Unmarshal(data, &cached); err == nil {
				result.Scene = &cached
				result.CacheInfo.SceneHit = true
			}
			// If deserialization fails, fall through to recompute
		}
	}

	if result.Scene == nil {
		if cacheable && !opts.Refresh {
			observability.Cache().OnCacheMiss(ctx, "scene")
		}

		var urls map[string]string
		if !opts.SkipAssets {
			resolveStart := time.Now()
			keys := assets.Collect(doc.Root)
			result.Stats.AssetCount = len(keys)
			urls, err = r.ResolveAssets(ctx, doc, keys, opts)
			if err != nil {
				return nil, fmt.Errorf("resolve assets: %w", err)
			}
			result.Stats.ResolveTime = time.Since(resolveStart)
			result.Stats.ResolvedCount = len(urls)
		}

		compileStart := time.Now()
		styled, err := r.CompileScene(ctx, doc, urls, opts)
		if err != nil {
			return nil, fmt.Errorf("compile: %w", err)
		}
		result.Scene = styled
		result.Stats.CompileTime = time.Since(compileStart)

		if cacheable {
			if data, err := json.Marshal(styled); err == nil {
				_ = r.Cache.Set(ctx, sceneKey, data, cache.TTLScene)
				observability.Cache().OnCacheSet(ctx, "scene", len(data))
			}
		}
	} else {
		observability.Cache().OnCacheHit(ctx, "scene")
	}
	result.Stats.BoxCount = result.Scene.Count()

	r.Logger.Info("compiled scene",
		"boxes", result.Stats.BoxCount,
		"assets", result.Stats.ResolvedCount,
		"cached", result.CacheInfo.SceneHit,
		"duration", result.Stats.ResolveTime+result.Stats.CompileTime)

	// Stage 4: Export
	if opts.Export {
		exportStart := time.Now()
		manifest, err := r.Export(ctx, result.Scene, opts)
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		result.Manifest = manifest
		result.Stats.ExportTime = time.Since(exportStart)

		r.Logger.Info("built export bundle",
			"sources", len(manifest.SourceFiles),
			"assets", len(manifest.AssetFiles),
			"duration", result.Stats.ExportTime)
	}

	return result, nil
}

// CompileScene lowers a document into a styled box tree using previously
// resolved asset URLs. Compilation is pure; ctx only reaches the hooks.
func (r *Runner) CompileScene(ctx context.Context, doc *scene.Document, urls map[string]string, opts Options) (*scene.StyledNode, error) {
	opts.SetCompileDefaults()
	r.applyLogger(&opts)

	observability.Pipeline().OnCompileStart(ctx, opts.FileKey, countNodes(doc.Root))
	start := time.Now()

	styled := scene.NewCompiler(opts.compileOptions(urls)).Compile(doc.Root)

	var err error
	if styled == nil {
		err = errors.New(errors.ErrCodeInvalidDocument, "document root is not visible")
	}
	observability.Pipeline().OnCompileComplete(ctx, opts.FileKey, styled.Count(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return styled, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// countNodes reports the size of a source tree, hidden nodes included.
func countNodes(root *scene.Node) int {
	n := 0
	root.Walk(func(*scene.Node) bool {
		n++
		return true
	})
	return n
}
