// Package pipeline provides the core compilation pipeline for boxwood.
//
// This package implements the complete load → resolve → compile → export
// pipeline that can be used by CLI and server components. By centralizing
// this logic, we ensure consistent behavior across all entry points and
// avoid code duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Fetch the design document from the API or accept a local one
//  2. Resolve: Turn the tree's asset keys into image URLs in bounded chunks
//  3. Compile: Lower the node tree into the styled box tree
//  4. Export: Build the source-plus-assets bundle manifest (optional)
//
// Each stage can be run independently or as part of the complete pipeline.
// Resolve and compile are cached as one unit: a compiled scene embeds its
// resolved asset URLs, so a scene cache hit skips both stages.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(client, cache, nil, logger)
//	opts := pipeline.Options{
//	    FileKey: "a1b2C3d4",
//	    Export:  true,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tree := result.Scene
//
// Run individual stages:
//
//	// Load only
//	doc, err := runner.Load(ctx, opts)
//
//	// Resolve assets for a loaded document
//	urls, err := runner.ResolveAssets(ctx, doc, assets.Collect(doc.Root), opts)
//
//	// Compile with resolved URLs
//	tree, err := runner.CompileScene(ctx, doc, urls, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/quellt/boxwood/pkg/assets"
	"github.com/quellt/boxwood/pkg/cache"
	"github.com/quellt/boxwood/pkg/errors"
	"github.com/quellt/boxwood/pkg/export"
	"github.com/quellt/boxwood/pkg/scene"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultAssetFormat is the render format for resolved assets. It
	// aliases the resolver's default so the scene cache key and the
	// resolver always agree.
	DefaultAssetFormat = assets.DefaultFormat

	// DefaultAssetScale is the render scale factor for resolved assets.
	DefaultAssetScale = assets.DefaultScale
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the compilation pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	FileKey string   `json:"file_key,omitempty"`
	NodeIDs []string `json:"node_ids,omitempty"` // restrict the fetch to these subtrees
	Version string   `json:"version,omitempty"`  // pin a file version; empty means head
	Refresh bool     `json:"refresh,omitempty"`  // bypass every cache layer

	// Asset resolution options
	AssetFormat string  `json:"asset_format,omitempty"`
	AssetScale  float64 `json:"asset_scale,omitempty"`
	ChunkSize   int     `json:"chunk_size,omitempty"`
	Concurrency int     `json:"concurrency,omitempty"`
	SkipAssets  bool    `json:"skip_assets,omitempty"` // compile without any asset resolution

	// Compile options. Zero thresholds select the tuned defaults.
	WhiteMin     float64 `json:"white_min,omitempty"`
	BlackMax     float64 `json:"black_max,omitempty"`
	AlphaMax     float64 `json:"alpha_max,omitempty"`
	MaxZIndex    int     `json:"max_z_index,omitempty"`
	DebugOverlay bool    `json:"debug_overlay,omitempty"`

	// Export options
	Export bool   `json:"export,omitempty"` // build the bundle manifest after compiling
	Title  string `json:"title,omitempty"`  // bundle title; defaults to the document name

	// Runtime options (not serialized)
	Document *scene.Document     `json:"-"` // pre-loaded document; skips the API fetch
	Logger   *log.Logger         `json:"-"`
	Fetcher  export.Fetcher      `json:"-"` // asset downloader for export; nil uses HTTP
	Progress assets.ProgressFunc `json:"-"` // resolution progress callback

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the loaded source document.
	Document *scene.Document

	// DocHash is the content hash of the document.
	DocHash string

	// Scene is the compiled styled box tree.
	Scene *scene.StyledNode

	// Manifest holds the export bundle when Options.Export is set.
	Manifest *export.Manifest

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount     int // nodes in the source document, hidden included
	BoxCount      int // boxes in the compiled scene
	AssetCount    int // asset keys collected from the document
	ResolvedCount int // asset keys that resolved to URLs

	LoadTime    time.Duration
	ResolveTime time.Duration
	CompileTime time.Duration
	ExportTime  time.Duration
}

// CacheInfo tracks cache hits for the cached pipeline stage. Document and
// image-URL caching happens inside the API client and is reported through
// observability hooks rather than here.
type CacheInfo struct {
	SceneHit bool // whether the compiled scene came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent - calling it multiple times has
// the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForResolve(); err != nil {
		return err
	}
	o.SetCompileDefaults()
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for document loading.
func (o *Options) ValidateForLoad() error {
	if o.Document == nil {
		if o.FileKey == "" {
			return errors.New(errors.ErrCodeInvalidInput, "file key or document is required")
		}
		if err := errors.ValidateFileKey(o.FileKey); err != nil {
			return err
		}
		for _, id := range o.NodeIDs {
			if err := errors.ValidateNodeID(id); err != nil {
				return err
			}
		}
	}

	// Logger default
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return nil
}

// SetResolveDefaults sets default values for asset resolution.
func (o *Options) SetResolveDefaults() {
	if o.AssetFormat == "" {
		o.AssetFormat = DefaultAssetFormat
	}
	if o.AssetScale <= 0 {
		o.AssetScale = DefaultAssetScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForResolve validates and sets defaults for asset resolution.
func (o *Options) ValidateForResolve() error {
	o.SetResolveDefaults()
	if err := errors.ValidateExportFormat(o.AssetFormat); err != nil {
		return err
	}
	return errors.ValidateScale(o.AssetScale)
}

// SetCompileDefaults sets default values for scene compilation.
func (o *Options) SetCompileDefaults() {
	def := scene.DefaultFillSuppression()
	if o.WhiteMin <= 0 {
		o.WhiteMin = def.WhiteMin
	}
	if o.BlackMax <= 0 {
		o.BlackMax = def.BlackMax
	}
	if o.AlphaMax <= 0 {
		o.AlphaMax = def.AlphaMax
	}
	if o.MaxZIndex <= 0 {
		o.MaxZIndex = scene.DefaultMaxZIndex
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SceneKeyOpts returns cache key options for the compiled scene.
func (o *Options) SceneKeyOpts() cache.SceneKeyOpts {
	return cache.SceneKeyOpts{
		WhiteMin:    o.WhiteMin,
		BlackMax:    o.BlackMax,
		AlphaMax:    o.AlphaMax,
		MaxZIndex:   o.MaxZIndex,
		AssetFormat: o.AssetFormat,
		AssetScale:  o.AssetScale,
	}
}

// resolveOptions returns resolver options for this configuration.
func (o *Options) resolveOptions() assets.Options {
	return assets.Options{
		Format:      o.AssetFormat,
		Scale:       o.AssetScale,
		ChunkSize:   o.ChunkSize,
		Concurrency: o.Concurrency,
		Logger:      o.Logger,
	}
}

// compileOptions returns compiler options bound to resolved asset URLs.
func (o *Options) compileOptions(urls map[string]string) scene.Options {
	return scene.Options{
		Assets: urls,
		Suppression: scene.FillSuppression{
			WhiteMin: o.WhiteMin,
			BlackMax: o.BlackMax,
			AlphaMax: o.AlphaMax,
		},
		MaxZIndex: o.MaxZIndex,
	}
}

// exportOptions returns bundle build options for this configuration.
func (o *Options) exportOptions() export.Options {
	return export.Options{
		Title:   o.Title,
		Format:  o.AssetFormat,
		Overlay: o.DebugOverlay,
		Fetcher: o.Fetcher,
		Logger:  o.Logger,
	}
}
