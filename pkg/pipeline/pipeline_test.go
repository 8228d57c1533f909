package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/quellt/boxwood/pkg/assets"
	"github.com/quellt/boxwood/pkg/cache"
	"github.com/quellt/boxwood/pkg/errors"
	"github.com/quellt/boxwood/pkg/figma"
	"github.com/quellt/boxwood/pkg/scene"
)

// fakeSource serves canned responses and counts calls.
type fakeSource struct {
	doc      *scene.Document
	images   map[string]string
	fills    map[string]string
	fillsErr error

	fileCalls  int
	nodeCalls  int
	imageCalls int
	fillCalls  int
}

func (f *fakeSource) File(ctx context.Context, fileKey string, opts figma.FileOpts) (*scene.Document, error) {
	f.fileCalls++
	if f.doc == nil {
		return nil, errors.New(errors.ErrCodeFileNotFound, "file %s not found", fileKey)
	}
	return f.doc, nil
}

func (f *fakeSource) FileNodes(ctx context.Context, fileKey string, ids []string, opts figma.FileOpts) (*scene.Document, error) {
	f.nodeCalls++
	if f.doc == nil {
		return nil, errors.New(errors.ErrCodeFileNotFound, "file %s not found", fileKey)
	}
	return f.doc, nil
}

func (f *fakeSource) Images(ctx context.Context, fileKey string, req figma.ImageRequest) (map[string]string, error) {
	f.imageCalls++
	out := make(map[string]string)
	for _, id := range req.IDs {
		if u, ok := f.images[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeSource) ImageFills(ctx context.Context, fileKey string, refresh bool) (map[string]string, error) {
	f.fillCalls++
	if f.fillsErr != nil {
		return nil, f.fillsErr
	}
	return f.fills, nil
}

// testDocument builds a frame with an image-filled rectangle and a plain
// vector shape candidate.
func testDocument() *scene.Document {
	return &scene.Document{
		Name: "Fixture",
		Root: &scene.Node{
			ID: "0:1", Name: "Page", Type: scene.KindFrame, Visible: true, Opacity: 1,
			AbsoluteBoundingBox: &scene.Rect{Width: 800, Height: 600},
			Children: []*scene.Node{
				{ID: "1:1", Name: "Photo", Type: scene.KindRectangle, Visible: true, Opacity: 1,
					AbsoluteBoundingBox: &scene.Rect{X: 10, Y: 10, Width: 200, Height: 100},
					Fills:               []scene.Paint{{Type: scene.PaintImage, Visible: true, Opacity: 1, ImageRef: "ref-a"}}},
				{ID: "1:2", Name: "Icon", Type: scene.KindVector, Visible: true, Opacity: 1,
					AbsoluteBoundingBox: &scene.Rect{X: 300, Y: 10, Width: 24, Height: 24}},
			},
		},
	}
}

func testCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	return c
}

func TestOptionsValidateForLoad(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"missing file key", Options{}, true},
		{"invalid file key", Options{FileKey: "no/slashes"}, true},
		{"invalid node id", Options{FileKey: "a1b2C3", NodeIDs: []string{"not a node"}}, true},
		{"valid remote", Options{FileKey: "a1b2C3", NodeIDs: []string{"1:2"}}, false},
		{"document bypasses file key", Options{Document: testDocument()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForLoad()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateForLoad() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.opts.Logger == nil {
				t.Error("ValidateForLoad() should default the logger")
			}
		})
	}
}

func TestOptionsValidateForResolve(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateForResolve(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if opts.AssetFormat != DefaultAssetFormat {
		t.Errorf("AssetFormat = %q, want %q", opts.AssetFormat, DefaultAssetFormat)
	}
	if opts.AssetScale != DefaultAssetScale {
		t.Errorf("AssetScale = %v, want %v", opts.AssetScale, DefaultAssetScale)
	}

	opts = Options{AssetFormat: "bmp"}
	if err := opts.ValidateForResolve(); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bmp format error = %v, want INVALID_FORMAT", err)
	}

	opts = Options{AssetScale: 9}
	if err := opts.ValidateForResolve(); !errors.Is(err, errors.ErrCodeInvalidScale) {
		t.Errorf("scale 9 error = %v, want INVALID_SCALE", err)
	}
}

func TestOptionsCompileDefaults(t *testing.T) {
	opts := Options{}
	opts.SetCompileDefaults()

	def := scene.DefaultFillSuppression()
	if opts.WhiteMin != def.WhiteMin || opts.BlackMax != def.BlackMax || opts.AlphaMax != def.AlphaMax {
		t.Errorf("thresholds = %v/%v/%v, want defaults %v/%v/%v",
			opts.WhiteMin, opts.BlackMax, opts.AlphaMax,
			def.WhiteMin, def.BlackMax, def.AlphaMax)
	}
	if opts.MaxZIndex != scene.DefaultMaxZIndex {
		t.Errorf("MaxZIndex = %d, want %d", opts.MaxZIndex, scene.DefaultMaxZIndex)
	}

	// Explicit values survive
	opts = Options{WhiteMin: 0.9, MaxZIndex: 50}
	opts.SetCompileDefaults()
	if opts.WhiteMin != 0.9 || opts.MaxZIndex != 50 {
		t.Errorf("explicit values overwritten: %v / %d", opts.WhiteMin, opts.MaxZIndex)
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{FileKey: "a1b2C3"}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}

	originalFormat := opts.AssetFormat
	originalWhiteMin := opts.WhiteMin

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}

	if opts.AssetFormat != originalFormat {
		t.Error("AssetFormat changed on second call")
	}
	if opts.WhiteMin != originalWhiteMin {
		t.Error("WhiteMin changed on second call")
	}
}

func TestSceneKeyOptsDistinguishAssetParams(t *testing.T) {
	a := Options{FileKey: "a1b2C3"}
	if err := a.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	b := a
	b.AssetScale = 2

	k := cache.NewDefaultKeyer()
	if k.SceneKey("h", a.SceneKeyOpts()) == k.SceneKey("h", b.SceneKeyOpts()) {
		t.Error("scenes resolved at different scales must not share a cache key")
	}
}

func TestRunnerExecute(t *testing.T) {
	src := &fakeSource{
		doc:    testDocument(),
		images: map[string]string{"1:2": "https://cdn.example.com/icon.png"},
		fills:  map[string]string{"ref-a": "https://cdn.example.com/photo.png"},
	}
	r := NewRunner(src, testCache(t), nil, nil)
	defer r.Close()

	res, err := r.Execute(context.Background(), Options{FileKey: "a1b2C3"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if res.Scene == nil {
		t.Fatal("Execute() returned nil scene")
	}
	if res.CacheInfo.SceneHit {
		t.Error("first run should not hit the scene cache")
	}
	if res.DocHash == "" {
		t.Error("DocHash should be set")
	}
	if res.Stats.NodeCount != 3 {
		t.Errorf("NodeCount = %d, want 3", res.Stats.NodeCount)
	}
	if res.Stats.BoxCount != 3 {
		t.Errorf("BoxCount = %d, want 3", res.Stats.BoxCount)
	}
	if res.Stats.AssetCount != 2 {
		t.Errorf("AssetCount = %d, want 2", res.Stats.AssetCount)
	}
	if res.Stats.ResolvedCount != 2 {
		t.Errorf("ResolvedCount = %d, want 2", res.Stats.ResolvedCount)
	}
	if res.Manifest != nil {
		t.Error("Manifest should be nil without Export")
	}

	// The image fill resolves through the source map, so only the shape
	// candidate goes through the render endpoint.
	if src.fillCalls != 1 {
		t.Errorf("fillCalls = %d, want 1", src.fillCalls)
	}
	if src.imageCalls != 1 {
		t.Errorf("imageCalls = %d, want 1", src.imageCalls)
	}

	var photo *scene.StyledNode
	res.Scene.Walk(func(s *scene.StyledNode) bool {
		if s.ID == "1:1" {
			photo = s
		}
		return true
	})
	if photo == nil {
		t.Fatal("photo box missing from scene")
	}
	if photo.AssetURL != "https://cdn.example.com/photo.png" {
		t.Errorf("photo AssetURL = %q", photo.AssetURL)
	}
}

func TestRunnerExecuteSceneCacheHit(t *testing.T) {
	src := &fakeSource{
		doc:    testDocument(),
		images: map[string]string{"1:2": "https://cdn.example.com/icon.png"},
		fills:  map[string]string{"ref-a": "https://cdn.example.com/photo.png"},
	}
	r := NewRunner(src, testCache(t), nil, nil)
	defer r.Close()

	ctx := context.Background()
	first, err := r.Execute(ctx, Options{FileKey: "a1b2C3"})
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}

	second, err := r.Execute(ctx, Options{FileKey: "a1b2C3"})
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}

	if !second.CacheInfo.SceneHit {
		t.Error("second run should hit the scene cache")
	}
	if src.imageCalls != 1 || src.fillCalls != 1 {
		t.Errorf("cache hit should skip resolution, got imageCalls=%d fillCalls=%d",
			src.imageCalls, src.fillCalls)
	}
	if second.Stats.BoxCount != first.Stats.BoxCount {
		t.Errorf("BoxCount = %d, want %d", second.Stats.BoxCount, first.Stats.BoxCount)
	}

	t.Run("refresh bypasses the cache", func(t *testing.T) {
		third, err := r.Execute(ctx, Options{FileKey: "a1b2C3", Refresh: true})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if third.CacheInfo.SceneHit {
			t.Error("refresh run must not report a cache hit")
		}
		if src.imageCalls != 2 {
			t.Errorf("imageCalls = %d, want 2", src.imageCalls)
		}
	})
}

func TestRunnerExecuteSkipAssets(t *testing.T) {
	src := &fakeSource{doc: testDocument()}
	r := NewRunner(src, testCache(t), nil, nil)
	defer r.Close()

	res, err := r.Execute(context.Background(), Options{FileKey: "a1b2C3", SkipAssets: true})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if src.imageCalls != 0 || src.fillCalls != 0 {
		t.Errorf("SkipAssets must not touch the network: imageCalls=%d fillCalls=%d",
			src.imageCalls, src.fillCalls)
	}
	res.Scene.Walk(func(s *scene.StyledNode) bool {
		if s.AssetURL != "" {
			t.Errorf("node %s has AssetURL %q without resolution", s.ID, s.AssetURL)
		}
		return true
	})

	// Skeleton scenes are never cached.
	again, err := r.Execute(context.Background(), Options{FileKey: "a1b2C3", SkipAssets: true})
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if again.CacheInfo.SceneHit {
		t.Error("SkipAssets scenes must not be served from cache")
	}
}

func TestRunnerLoadDocumentPassthrough(t *testing.T) {
	src := &fakeSource{doc: testDocument()}
	r := NewRunner(src, nil, nil, nil)

	doc := testDocument()
	got, err := r.Load(context.Background(), Options{Document: doc})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != doc {
		t.Error("Load() should return the pre-loaded document unchanged")
	}
	if src.fileCalls != 0 || src.nodeCalls != 0 {
		t.Error("pre-loaded document must not trigger a fetch")
	}

	t.Run("document without root", func(t *testing.T) {
		_, err := r.Load(context.Background(), Options{Document: &scene.Document{Name: "empty"}})
		if !errors.Is(err, errors.ErrCodeInvalidDocument) {
			t.Errorf("error = %v, want INVALID_DOCUMENT", err)
		}
	})

	t.Run("node ids use the subtree fetch", func(t *testing.T) {
		if _, err := r.Load(context.Background(), Options{FileKey: "a1b2C3", NodeIDs: []string{"1:1"}}); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if src.nodeCalls != 1 {
			t.Errorf("nodeCalls = %d, want 1", src.nodeCalls)
		}
	})
}

func TestRunnerLoadNoSource(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil)
	_, err := r.Load(context.Background(), Options{FileKey: "a1b2C3"})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestResolveAssetsSourceMapOnly(t *testing.T) {
	doc := testDocument()
	doc.ImageMap = map[string]string{"ref-a": "https://cdn.example.com/local.png"}

	r := NewRunner(nil, nil, nil, nil)
	keys := assets.Collect(doc.Root)

	var last, total int
	urls, err := r.ResolveAssets(context.Background(), doc, keys, Options{
		Progress: func(loaded, n int) { last, total = loaded, n },
	})
	if err != nil {
		t.Fatalf("ResolveAssets() error = %v", err)
	}

	if urls["ref-a"] != "https://cdn.example.com/local.png" {
		t.Errorf("urls[ref-a] = %q", urls["ref-a"])
	}
	if _, ok := urls["1:2"]; ok {
		t.Error("shape candidate must stay unresolved without a render endpoint")
	}
	if last != len(keys) || total != len(keys) {
		t.Errorf("progress ended at %d/%d, want %d/%d", last, total, len(keys), len(keys))
	}
}

func TestResolveAssetsFillMapFailure(t *testing.T) {
	src := &fakeSource{
		doc:      testDocument(),
		images:   map[string]string{"1:1": "https://cdn.example.com/rendered.png", "1:2": "https://cdn.example.com/icon.png"},
		fillsErr: errors.New(errors.ErrCodeNetwork, "fills endpoint down"),
	}
	r := NewRunner(src, nil, nil, nil)

	doc := testDocument()
	keys := assets.Collect(doc.Root)
	urls, err := r.ResolveAssets(context.Background(), doc, keys, Options{FileKey: "a1b2C3"})
	if err != nil {
		t.Fatalf("ResolveAssets() error = %v", err)
	}

	// The image fill falls through to the render endpoint.
	if urls["ref-a"] != "https://cdn.example.com/rendered.png" {
		t.Errorf("urls[ref-a] = %q, want the rendered URL", urls["ref-a"])
	}
}

func TestRunnerExecuteExport(t *testing.T) {
	src := &fakeSource{
		doc:   testDocument(),
		fills: map[string]string{"ref-a": "https://cdn.example.com/photo.png"},
	}
	r := NewRunner(src, nil, nil, nil)

	res, err := r.Execute(context.Background(), Options{
		FileKey: "a1b2C3",
		Export:  true,
		Title:   "Landing",
		Fetcher: fetcherFunc(func(ctx context.Context, url string) ([]byte, string, error) {
			return []byte("bytes"), "image/png", nil
		}),
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if res.Manifest == nil {
		t.Fatal("Manifest should be set with Export")
	}
	html, ok := res.Manifest.SourceFiles["index.html"]
	if !ok {
		t.Fatal("manifest missing index.html")
	}
	if !strings.Contains(html, "<title>Landing</title>") {
		t.Error("export title not applied")
	}
	if _, ok := res.Manifest.SourceFiles["styles.css"]; !ok {
		t.Error("manifest missing styles.css")
	}
	if len(res.Manifest.AssetFiles) != 1 {
		t.Errorf("AssetFiles = %d, want 1", len(res.Manifest.AssetFiles))
	}
}

func TestCompileSceneHiddenRoot(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil)
	doc := &scene.Document{Root: &scene.Node{ID: "0:1", Type: scene.KindFrame, Visible: false, Opacity: 1}}

	_, err := r.CompileScene(context.Background(), doc, nil, Options{})
	if !errors.Is(err, errors.ErrCodeInvalidDocument) {
		t.Errorf("error = %v, want INVALID_DOCUMENT", err)
	}
}

// fetcherFunc adapts a function to the export fetcher interface.
type fetcherFunc func(ctx context.Context, url string) ([]byte, string, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	return f(ctx, url)
}
