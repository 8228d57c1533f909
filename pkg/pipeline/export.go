package pipeline

import (
	"context"
	"time"

	"github.com/quellt/boxwood/pkg/export"
	"github.com/quellt/boxwood/pkg/observability"
	"github.com/quellt/boxwood/pkg/scene"
)

// =============================================================================
// Export
// =============================================================================

// Export builds the bundle manifest for a compiled scene: generated
// component sources plus downloaded asset bytes. Assets that fail to
// download keep their remote URL in the generated sources, so a partial
// bundle is still usable.
func (r *Runner) Export(ctx context.Context, root *scene.StyledNode, opts Options) (*export.Manifest, error) {
	opts.SetResolveDefaults()
	r.applyLogger(&opts)

	observability.Pipeline().OnExportStart(ctx, opts.FileKey, opts.AssetFormat)
	start := time.Now()

	manifest, err := export.Build(ctx, root, opts.exportOptions())

	files := 0
	if manifest != nil {
		files = len(manifest.SourceFiles) + len(manifest.AssetFiles)
	}
	observability.Pipeline().OnExportComplete(ctx, opts.FileKey, files, time.Since(start), err)

	return manifest, err
}
