package export

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/quellt/boxwood/pkg/errors"
	"github.com/quellt/boxwood/pkg/httputil"
	"github.com/quellt/boxwood/pkg/render/markup"
	"github.com/quellt/boxwood/pkg/scene"
)

const assetTimeout = 30 * time.Second

// Fetcher downloads one resolved asset URL, returning the raw bytes and the
// response content type.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// Options configures manifest building.
type Options struct {
	// Title is the HTML document title, passed through to the markup
	// renderer.
	Title string

	// Format is the file extension used when neither the content type nor
	// the URL identifies an asset's type. Defaults to png.
	Format string

	// Overlay passes the debug overlay through to the markup renderer.
	Overlay bool

	// Fetcher downloads assets. Nil selects an HTTP fetcher with a 30
	// second timeout.
	Fetcher Fetcher

	// Logger receives download warnings. Nil discards them.
	Logger *log.Logger
}

// WithDefaults returns a copy of the options with unset fields filled in.
func (o Options) WithDefaults() Options {
	if o.Format == "" {
		o.Format = "png"
	}
	if o.Fetcher == nil {
		o.Fetcher = &HTTPFetcher{}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Build packages a compiled scene whose assets are already resolved. Every
// asset the tree references is downloaded into the manifest; a failed
// download keeps the remote URL as the reference instead of dropping the
// asset.
func Build(ctx context.Context, root *scene.StyledNode, opts Options) (*Manifest, error) {
	if root == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "export: nil scene root")
	}
	opts = opts.WithDefaults()
	if err := errors.ValidateExportFormat(opts.Format); err != nil {
		return nil, err
	}

	m := &Manifest{
		AssetFiles: make(map[string][]byte),
		AssetRefs:  make(map[string]string),
	}

	paths, err := downloadAssets(ctx, root, m, opts)
	if err != nil {
		return nil, err
	}

	files, err := markup.Files(root, markup.Options{
		Title:      opts.Title,
		Overlay:    opts.Overlay,
		AssetPaths: paths,
	})
	if err != nil {
		return nil, err
	}
	m.SourceFiles = files
	return m, nil
}

// downloadAssets fetches every asset the tree references, deduplicated by
// URL in paint order. It fills in the manifest's asset maps and returns the
// URL-to-local-path overrides for the markup renderer.
func downloadAssets(ctx context.Context, root *scene.StyledNode, m *Manifest, opts Options) (map[string]string, error) {
	type asset struct{ ref, url string }
	var order []asset
	refs := make(map[string][]string)
	root.Walk(func(n *scene.StyledNode) bool {
		if n.AssetRef == "" || n.AssetURL == "" {
			return true
		}
		if _, ok := refs[n.AssetURL]; !ok {
			order = append(order, asset{n.AssetRef, n.AssetURL})
		}
		if !slices.Contains(refs[n.AssetURL], n.AssetRef) {
			refs[n.AssetURL] = append(refs[n.AssetURL], n.AssetRef)
		}
		return true
	})

	paths := make(map[string]string, len(order))
	used := make(map[string]int)

	for _, a := range order {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCancelled, err, "export cancelled")
		}

		if !strings.HasPrefix(a.url, "http://") && !strings.HasPrefix(a.url, "https://") {
			// Source maps can carry data: URIs, which are already
			// self-contained and need no download.
			for _, ref := range refs[a.url] {
				m.AssetRefs[ref] = a.url
			}
			continue
		}

		local := ""
		data, ctype, err := opts.Fetcher.Fetch(ctx, a.url)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, errors.Wrap(errors.ErrCodeCancelled, ctx.Err(), "export cancelled")
		case err != nil:
			opts.Logger.Warn("asset download failed, referencing remote URL",
				"ref", a.ref, "err", err)
		default:
			local = "assets/" + assetName(a.ref, used) + "." + assetExt(ctype, a.url, opts.Format)
			m.AssetFiles[local] = data
			paths[a.url] = local
		}

		target := local
		if target == "" {
			target = a.url
		}
		for _, ref := range refs[a.url] {
			m.AssetRefs[ref] = target
		}
	}
	return paths, nil
}

// assetName sanitizes an asset key into a file stem. Distinct keys can
// sanitize to the same stem, so later occurrences get a numeric suffix.
func assetName(ref string, used map[string]int) string {
	stem := sanitizeStem(ref)
	used[stem]++
	if c := used[stem]; c > 1 {
		return fmt.Sprintf("%s-%d", stem, c)
	}
	return stem
}

func sanitizeStem(ref string) string {
	var b strings.Builder
	dash := false
	for _, r := range ref {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
			dash = false
		default:
			if !dash {
				b.WriteByte('-')
			}
			dash = true
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		return "asset"
	}
	return s
}

// assetExt detects the file extension: content type first, then the URL
// path, then the configured format.
func assetExt(ctype, rawURL, fallback string) string {
	ct := strings.ToLower(ctype)
	switch {
	case strings.Contains(ct, "svg"):
		return "svg"
	case strings.Contains(ct, "png"):
		return "png"
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return "jpg"
	}

	if u, err := url.Parse(rawURL); err == nil {
		switch strings.ToLower(path.Ext(u.Path)) {
		case ".svg":
			return "svg"
		case ".png":
			return "png"
		case ".jpg", ".jpeg":
			return "jpg"
		}
	}
	return fallback
}

// =============================================================================
// HTTP Fetcher
// =============================================================================

// HTTPFetcher downloads assets over HTTP, retrying transient failures with
// backoff.
type HTTPFetcher struct {
	// Client overrides the HTTP client. Nil uses a 30 second timeout.
	Client *http.Client
}

var _ Fetcher = (*HTTPFetcher)(nil)

// Fetch downloads rawURL and returns the body and content type.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: assetTimeout}
	}

	var data []byte
	var ctype string
	err := httputil.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return &httputil.RetryableError{Err: err}
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode >= 500:
			return &httputil.RetryableError{Err: fmt.Errorf("asset fetch: status %d", resp.StatusCode)}
		default:
			return fmt.Errorf("asset fetch: status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return &httputil.RetryableError{Err: err}
		}
		data = body
		ctype = resp.Header.Get("Content-Type")
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return data, ctype, nil
}
