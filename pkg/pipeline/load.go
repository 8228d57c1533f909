package pipeline

import (
	"context"
	"time"

	"github.com/quellt/boxwood/pkg/errors"
	"github.com/quellt/boxwood/pkg/figma"
	"github.com/quellt/boxwood/pkg/observability"
	"github.com/quellt/boxwood/pkg/scene"
)

// Load acquires the source document. A pre-loaded document in opts wins;
// otherwise the file is fetched through the runner's source, as a subtree
// fetch when node ids are given. The API client handles response caching
// and retries internally.
func (r *Runner) Load(ctx context.Context, opts Options) (*scene.Document, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	if opts.Document != nil {
		if opts.Document.Root == nil {
			return nil, errors.New(errors.ErrCodeInvalidDocument, "document has no root node")
		}
		return opts.Document, nil
	}
	if r.Source == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no API source configured and no document provided")
	}

	observability.Pipeline().OnFetchStart(ctx, opts.FileKey)
	start := time.Now()

	fileOpts := figma.FileOpts{Version: opts.Version, Refresh: opts.Refresh}
	var (
		doc *scene.Document
		err error
	)
	if len(opts.NodeIDs) > 0 {
		doc, err = r.Source.FileNodes(ctx, opts.FileKey, opts.NodeIDs, fileOpts)
	} else {
		doc, err = r.Source.File(ctx, opts.FileKey, fileOpts)
	}

	nodes := 0
	if doc != nil {
		nodes = countNodes(doc.Root)
	}
	observability.Pipeline().OnFetchComplete(ctx, opts.FileKey, nodes, time.Since(start), err)

	return doc, err
}
