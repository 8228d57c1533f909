package assets

import (
	"context"
	stderrors "errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/quellt/boxwood/pkg/errors"
	"github.com/quellt/boxwood/pkg/figma"
)

const (
	// DefaultChunkSize bounds the ids per render request. The API
	// rejects oversized id lists and rate-limits aggressive callers.
	DefaultChunkSize = 50

	// DefaultFormat is the render format when the caller doesn't pick one.
	DefaultFormat = "png"

	// DefaultScale is the render scale factor.
	DefaultScale = 1.0

	// MaxConcurrency caps parallel chunk requests. Anything higher
	// trips the API's rate limits faster than it saves time.
	MaxConcurrency = 4
)

// Renderer is the remote endpoint that turns node ids into image URLs.
// *figma.Client implements it.
type Renderer interface {
	Images(ctx context.Context, fileKey string, req figma.ImageRequest) (map[string]string, error)
}

// Options configures a resolution pass.
type Options struct {
	Format      string      // render format (default png)
	Scale       float64     // render scale factor (default 1)
	ChunkSize   int         // ids per render request (default 50)
	Concurrency int         // parallel chunk requests (default 1, capped at MaxConcurrency)
	Logger      *log.Logger // optional; defaults to discard
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Format == "" {
		opts.Format = DefaultFormat
	}
	if opts.Scale <= 0 {
		opts.Scale = DefaultScale
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Concurrency > MaxConcurrency {
		opts.Concurrency = MaxConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return opts
}

// ProgressFunc reports cumulative resolution progress. It is called
// once after the source-map pass and again after every chunk, with
// loaded counting processed keys whether or not they resolved.
type ProgressFunc func(loaded, total int)

// Resolver resolves asset keys to URLs through a Renderer.
type Resolver struct {
	renderer Renderer
	opts     Options
}

// NewResolver creates a resolver around the given renderer.
func NewResolver(renderer Renderer, opts Options) *Resolver {
	return &Resolver{renderer: renderer, opts: opts.WithDefaults()}
}

// Resolve turns keys into a map from key id to URL.
//
// Keys whose fill reference appears in source are satisfied without any
// network call. The rest are rendered in bounded chunks; a failed chunk
// is logged and skipped so one bad request never aborts the whole pass,
// and its keys simply stay unresolved. Auth failures and cancellation
// are terminal: the partial map is returned along with the error.
func (r *Resolver) Resolve(ctx context.Context, fileKey string, keys []Key, source map[string]string, onProgress ProgressFunc) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	total := len(keys)
	loaded := 0
	report := func() {
		if onProgress != nil {
			onProgress(loaded, total)
		}
	}

	var pending []Key
	for _, k := range keys {
		if k.Ref != "" {
			if url, ok := source[k.Ref]; ok && url != "" {
				out[k.ID] = url
				loaded++
				continue
			}
		}
		if k.renderID() == "" {
			// Nothing to render and no source entry. Count it so the
			// progress bar still completes.
			loaded++
			continue
		}
		pending = append(pending, k)
	}
	report()

	if len(pending) == 0 {
		return out, ctx.Err()
	}

	chunks := chunkKeys(pending, r.opts.ChunkSize)
	if r.opts.Concurrency <= 1 {
		return r.resolveSequential(ctx, fileKey, chunks, out, &loaded, report)
	}
	return r.resolveParallel(ctx, fileKey, chunks, out, &loaded, report)
}

func (r *Resolver) resolveSequential(ctx context.Context, fileKey string, chunks [][]Key, out map[string]string, loaded *int, report func()) (map[string]string, error) {
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		urls, err := r.renderChunk(ctx, fileKey, chunk)
		if err != nil {
			if terminal(err) {
				return out, err
			}
			r.opts.Logger.Warn("asset chunk failed, continuing", "keys", len(chunk), "error", err)
		}
		for _, k := range chunk {
			if u, ok := urls[k.renderID()]; ok {
				out[k.ID] = u
			}
		}
		*loaded += len(chunk)
		report()
	}
	return out, nil
}

func (r *Resolver) resolveParallel(ctx context.Context, fileKey string, chunks [][]Key, out map[string]string, loaded *int, report func()) (map[string]string, error) {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	jobs := make(chan []Key)

	for i := 0; i < r.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chunk := range jobs {
				urls, err := r.renderChunk(wctx, fileKey, chunk)

				mu.Lock()
				switch {
				case err != nil && terminal(err):
					if firstErr == nil {
						firstErr = err
						cancel()
					}
				case err != nil:
					r.opts.Logger.Warn("asset chunk failed, continuing", "keys", len(chunk), "error", err)
				default:
					for _, k := range chunk {
						if u, ok := urls[k.renderID()]; ok {
							out[k.ID] = u
						}
					}
				}
				*loaded += len(chunk)
				report()
				mu.Unlock()
			}
		}()
	}

feed:
	for _, chunk := range chunks {
		select {
		case jobs <- chunk:
		case <-wctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return out, firstErr
	}
	return out, ctx.Err()
}

func (r *Resolver) renderChunk(ctx context.Context, fileKey string, chunk []Key) (map[string]string, error) {
	ids := make([]string, 0, len(chunk))
	for _, k := range chunk {
		ids = append(ids, k.renderID())
	}
	return r.renderer.Images(ctx, fileKey, figma.ImageRequest{
		IDs:    ids,
		Format: r.opts.Format,
		Scale:  r.opts.Scale,
	})
}

// terminal reports whether the error should abort the whole pass rather
// than skip one chunk. Auth failures repeat on every chunk, and
// cancellation means nobody wants the results.
func terminal(err error) bool {
	return errors.IsAuth(err) ||
		stderrors.Is(err, context.Canceled) ||
		stderrors.Is(err, context.DeadlineExceeded)
}

func chunkKeys(keys []Key, size int) [][]Key {
	var chunks [][]Key
	for len(keys) > size {
		chunks = append(chunks, keys[:size])
		keys = keys[size:]
	}
	if len(keys) > 0 {
		chunks = append(chunks, keys)
	}
	return chunks
}
