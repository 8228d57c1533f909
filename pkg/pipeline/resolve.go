package pipeline

import (
	"context"
	"time"

	"github.com/quellt/boxwood/pkg/assets"
	"github.com/quellt/boxwood/pkg/observability"
	"github.com/quellt/boxwood/pkg/scene"
)

// =============================================================================
// Asset Resolution
// =============================================================================

// ResolveAssets turns collected asset keys into a map from key id to URL.
//
// Keys are satisfied from the document's embedded source map first. When
// the document carries no map, the file's fill source map is fetched once
// so image fills skip the render endpoint; a failure there is logged and
// those keys fall through to rendering. Progress is reported through the
// options callback and the pipeline hooks.
//
// Without a source or file key there is no render endpoint: the source
// map is all we have, and shape candidates legitimately stay unresolved.
func (r *Runner) ResolveAssets(ctx context.Context, doc *scene.Document, keys []assets.Key, opts Options) (map[string]string, error) {
	if err := opts.ValidateForResolve(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	if len(keys) == 0 {
		return map[string]string{}, nil
	}

	observability.Pipeline().OnResolveStart(ctx, opts.FileKey, len(keys))
	start := time.Now()

	source := doc.ImageMap
	if source == nil && r.Source != nil && opts.FileKey != "" && hasRefs(keys) {
		fills, err := r.Source.ImageFills(ctx, opts.FileKey, opts.Refresh)
		if err != nil {
			r.Logger.Warn("fill source map unavailable, rendering instead", "error", err)
		} else {
			source = fills
		}
	}

	progress := func(loaded, total int) {
		observability.Pipeline().OnResolveChunk(ctx, opts.FileKey, loaded, total)
		if opts.Progress != nil {
			opts.Progress(loaded, total)
		}
	}

	var (
		urls map[string]string
		err  error
	)
	if r.Source == nil || opts.FileKey == "" {
		urls = resolveFromSource(keys, source, progress)
	} else {
		resolver := assets.NewResolver(r.Source, opts.resolveOptions())
		urls, err = resolver.Resolve(ctx, opts.FileKey, keys, source, progress)
	}

	observability.Pipeline().OnResolveComplete(ctx, opts.FileKey, len(urls), time.Since(start), err)

	return urls, err
}

// resolveFromSource satisfies keys from a source map without touching the
// network. Keys without a fill reference stay unresolved.
func resolveFromSource(keys []assets.Key, source map[string]string, onProgress assets.ProgressFunc) map[string]string {
	out := make(map[string]string, len(keys))
	for i, k := range keys {
		if k.Ref != "" {
			if u, ok := source[k.Ref]; ok && u != "" {
				out[k.ID] = u
			}
		}
		if onProgress != nil {
			onProgress(i+1, len(keys))
		}
	}
	return out
}

// hasRefs reports whether any key could be served by a fill source map.
func hasRefs(keys []assets.Key) bool {
	for _, k := range keys {
		if k.Ref != "" {
			return true
		}
	}
	return false
}
