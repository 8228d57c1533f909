package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/quellt/boxwood/pkg/assets"
	boxerrors "github.com/quellt/boxwood/pkg/errors"
	"github.com/quellt/boxwood/pkg/pipeline"
	"github.com/quellt/boxwood/pkg/render/markup"
	"github.com/quellt/boxwood/pkg/store"
)

// serveCommand creates the serve command running the preview server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve compiled scenes over HTTP",
		Long: `Start the preview server.

The server compiles documents on demand and archives the results so they
can be listed and re-served without recompiling. Archived scenes are
available as JSON and as a rendered HTML/CSS preview.

Endpoints:
  GET    /healthz                   liveness probe
  GET    /api/scenes                list archived scenes
  POST   /api/scenes                compile and archive a document
  GET    /api/scenes/{id}           archived scene with its box tree
  DELETE /api/scenes/{id}           remove an archived scene
  GET    /api/scenes/{id}/preview   rendered HTML preview
  GET    /api/scenes/{id}/styles.css`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, then :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runServe starts the preview server and blocks until the context is
// cancelled or the listener fails.
func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	if addr == "" {
		addr = c.Config.Serve.Addr
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	archive, err := c.newArchive(ctx)
	if err != nil {
		return fmt.Errorf("initialize archive: %w", err)
	}
	defer archive.Close(context.Background())

	srv := &previewServer{
		runner:  runner,
		archive: archive,
		opts:    c.configOptions(),
		logger:  c.Logger,
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	printSuccess("Preview server listening on %s", StyleHighlight.Render(addr))
	printDetail("Archive backend: %s", c.Config.Archive.Backend)
	printDetail("Scenes: GET http://localhost%s/api/scenes", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// =============================================================================
// Preview Server
// =============================================================================

// previewServer compiles documents on demand and serves the scene archive.
type previewServer struct {
	runner  *pipeline.Runner
	archive store.Store
	opts    pipeline.Options // config-seeded defaults for POSTed compiles
	logger  *log.Logger

	mu       sync.Mutex
	trackers map[string]*assets.Tracker // per file key, newest compile wins
}

// trackerFor returns the supersession tracker for a file key, creating
// it on first use.
func (s *previewServer) trackerFor(fileKey string) *assets.Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trackers == nil {
		s.trackers = make(map[string]*assets.Tracker)
	}
	t, ok := s.trackers[fileKey]
	if !ok {
		t = assets.NewTracker()
		s.trackers[fileKey] = t
	}
	return t
}

// routes builds the chi router.
func (s *previewServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/scenes", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCompile)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Get("/preview", s.handlePreview)
			r.Get("/styles.css", s.handleStyles)
		})
	})

	return r
}

// logRequests logs one line per request through the CLI logger.
func (s *previewServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *previewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// compileResponse summarizes an archived compile without the box tree.
type compileResponse struct {
	ID        string    `json:"id"`
	FileKey   string    `json:"fileKey,omitempty"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	DocHash   string    `json:"docHash,omitempty"`
	Boxes     int       `json:"boxes"`
	Assets    int       `json:"assets"`
	Cached    bool      `json:"cached"`
}

// handleCompile runs the pipeline for a POSTed options payload and archives
// the compiled scene.
func (s *previewServer) handleCompile(w http.ResponseWriter, r *http.Request) {
	opts := s.opts
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, boxerrors.ErrCodeInvalidInput, "invalid request body: "+err.Error())
		return
	}
	opts.Logger = s.logger

	// A newer compile of the same file cancels this one; a superseded
	// compile never archives, even if it finished first.
	job := s.trackerFor(opts.FileKey).Start(r.Context())

	result, err := s.runner.Execute(job.Context(), opts)
	if err != nil {
		if !job.Current() || errors.Is(err, context.Canceled) {
			writeError(w, http.StatusConflict, boxerrors.ErrCodeCancelled, "compile superseded by a newer request")
			return
		}
		writeFailure(w, err)
		return
	}

	rec := store.NewRecord(opts.FileKey, result.Document.Name, result.Scene)
	var putErr error
	archived := job.Apply(func() {
		putErr = s.archive.Put(r.Context(), rec)
	})
	if !archived {
		writeError(w, http.StatusConflict, boxerrors.ErrCodeCancelled, "compile superseded by a newer request")
		return
	}
	if putErr != nil {
		writeFailure(w, putErr)
		return
	}

	writeJSON(w, http.StatusCreated, compileResponse{
		ID:        rec.ID,
		FileKey:   rec.FileKey,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
		DocHash:   result.DocHash,
		Boxes:     result.Stats.BoxCount,
		Assets:    result.Stats.ResolvedCount,
		Cached:    result.CacheInfo.SceneHit,
	})
}

func (s *previewServer) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.archive.List(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *previewServer) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.archive.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *previewServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.archive.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *previewServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	files, err := s.renderMarkup(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(files["index.html"]))
}

func (s *previewServer) handleStyles(w http.ResponseWriter, r *http.Request) {
	files, err := s.renderMarkup(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write([]byte(files["styles.css"]))
}

// renderMarkup loads the archived scene named in the URL and renders its
// component files.
func (s *previewServer) renderMarkup(r *http.Request) (map[string]string, error) {
	rec, err := s.archive.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	return markup.Files(rec.Root, markup.Options{Title: rec.Name})
}

// =============================================================================
// Response Helpers
// =============================================================================

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeFailure maps a pipeline or archive error onto an HTTP status.
func writeFailure(w http.ResponseWriter, err error) {
	code := boxerrors.GetCode(err)
	if code == "" {
		code = boxerrors.ErrCodeInternal
	}
	writeError(w, statusFromCode(code), code, boxerrors.UserMessage(err))
}

func writeError(w http.ResponseWriter, status int, code boxerrors.Code, msg string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: string(code), Message: msg}})
}

// statusFromCode maps error codes onto HTTP statuses.
func statusFromCode(code boxerrors.Code) int {
	switch code {
	case boxerrors.ErrCodeInvalidInput, boxerrors.ErrCodeInvalidFileKey, boxerrors.ErrCodeInvalidNode,
		boxerrors.ErrCodeInvalidFormat, boxerrors.ErrCodeInvalidScale, boxerrors.ErrCodeInvalidDocument,
		boxerrors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case boxerrors.ErrCodeNotFound, boxerrors.ErrCodeFileNotFound, boxerrors.ErrCodeNodeNotFound,
		boxerrors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case boxerrors.ErrCodeUnauthorized, boxerrors.ErrCodeSessionExpired:
		return http.StatusUnauthorized
	case boxerrors.ErrCodeForbidden:
		return http.StatusForbidden
	case boxerrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case boxerrors.ErrCodeCancelled:
		return http.StatusConflict
	case boxerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case boxerrors.ErrCodeNetwork, boxerrors.ErrCodeAssetFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
