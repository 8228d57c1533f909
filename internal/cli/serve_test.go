package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/quellt/boxwood/pkg/figma"
	"github.com/quellt/boxwood/pkg/pipeline"
	"github.com/quellt/boxwood/pkg/scene"
	"github.com/quellt/boxwood/pkg/store"
)

// stubSource serves a canned document. The first File call can be made to
// block until released, so tests can hold a compile in flight.
type stubSource struct {
	doc     *scene.Document
	calls   atomic.Int32
	entered chan struct{} // closed when the first File call starts
	release chan struct{} // first File call blocks until this closes
}

func (s *stubSource) File(ctx context.Context, fileKey string, opts figma.FileOpts) (*scene.Document, error) {
	if s.calls.Add(1) == 1 && s.entered != nil {
		close(s.entered)
		<-s.release
	}
	return s.doc, nil
}

func (s *stubSource) FileNodes(ctx context.Context, fileKey string, ids []string, opts figma.FileOpts) (*scene.Document, error) {
	return s.doc, nil
}

func (s *stubSource) Images(ctx context.Context, fileKey string, req figma.ImageRequest) (map[string]string, error) {
	return map[string]string{}, nil
}

func (s *stubSource) ImageFills(ctx context.Context, fileKey string, refresh bool) (map[string]string, error) {
	return map[string]string{}, nil
}

func serveDocument() *scene.Document {
	return &scene.Document{
		Name: "Fixture",
		Root: &scene.Node{
			ID: "0:1", Name: "Page", Type: scene.KindFrame, Visible: true, Opacity: 1,
			AbsoluteBoundingBox: &scene.Rect{Width: 400, Height: 300},
			Children: []*scene.Node{
				{ID: "1:1", Name: "Box", Type: scene.KindRectangle, Visible: true, Opacity: 1,
					AbsoluteBoundingBox: &scene.Rect{X: 10, Y: 10, Width: 100, Height: 50}},
			},
		},
	}
}

func newTestServer(src pipeline.Source) *previewServer {
	logger := log.New(io.Discard)
	return &previewServer{
		runner:  pipeline.NewRunner(src, nil, nil, logger),
		archive: store.NewMemoryStore(),
		opts:    pipeline.Options{SkipAssets: true},
		logger:  logger,
	}
}

func postCompile(t *testing.T, url, fileKey string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"file_key": fileKey})
	resp, err := http.Post(url+"/api/scenes", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/scenes: %v", err)
	}
	return resp
}

func TestServeSceneLifecycle(t *testing.T) {
	srv := newTestServer(&stubSource{doc: serveDocument()})
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	// Compile and archive.
	resp := postCompile(t, ts.URL, "a1b2C3d4e5")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("compile status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var created compileResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode compile response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("compile response has empty id")
	}
	if created.Boxes == 0 {
		t.Error("compile response reports zero boxes")
	}

	// List includes it.
	listResp, err := http.Get(ts.URL + "/api/scenes")
	if err != nil {
		t.Fatalf("GET /api/scenes: %v", err)
	}
	defer listResp.Body.Close()
	var records []*store.Record
	if err := json.NewDecoder(listResp.Body).Decode(&records); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(records) != 1 || records[0].ID != created.ID {
		t.Fatalf("list = %+v, want one record with id %s", records, created.ID)
	}

	// Preview renders HTML.
	prevResp, err := http.Get(ts.URL + "/api/scenes/" + created.ID + "/preview")
	if err != nil {
		t.Fatalf("GET preview: %v", err)
	}
	defer prevResp.Body.Close()
	if prevResp.StatusCode != http.StatusOK {
		t.Fatalf("preview status = %d", prevResp.StatusCode)
	}
	if ct := prevResp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("preview content type = %q", ct)
	}
	html, _ := io.ReadAll(prevResp.Body)
	if !bytes.Contains(html, []byte("<!DOCTYPE html>")) {
		t.Error("preview is not an HTML document")
	}

	// Delete, then the record is gone.
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/scenes/"+created.ID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", delResp.StatusCode)
	}
	getResp, err := http.Get(ts.URL + "/api/scenes/" + created.ID)
	if err != nil {
		t.Fatalf("GET after delete: %v", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", getResp.StatusCode)
	}
}

func TestServeCompileSuperseded(t *testing.T) {
	src := &stubSource{
		doc:     serveDocument(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	srv := newTestServer(src)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	type postResult struct {
		resp *http.Response
		err  error
	}
	first := make(chan postResult, 1)
	go func() {
		body, _ := json.Marshal(map[string]any{"file_key": "a1b2C3d4e5"})
		resp, err := http.Post(ts.URL+"/api/scenes", "application/json", bytes.NewReader(body))
		first <- postResult{resp, err}
	}()

	// Wait until the first compile is in flight, then supersede it.
	<-src.entered
	second := postCompile(t, ts.URL, "a1b2C3d4e5")
	defer second.Body.Close()
	if second.StatusCode != http.StatusCreated {
		t.Fatalf("second compile status = %d, want %d", second.StatusCode, http.StatusCreated)
	}

	close(src.release)
	got := <-first
	if got.err != nil {
		t.Fatalf("first compile: %v", got.err)
	}
	resp := got.resp
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("superseded compile status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	var envelope errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if envelope.Error.Code != "CANCELLED" {
		t.Errorf("error code = %q, want CANCELLED", envelope.Error.Code)
	}

	// Only the winning compile reached the archive.
	records, err := srv.archive.List(context.Background())
	if err != nil {
		t.Fatalf("list archive: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("archive holds %d records, want 1", len(records))
	}
}
