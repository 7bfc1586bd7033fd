// Package http serves rendered projects for preview: frames as PNG images,
// density function documents, Mermaid diagrams, render events and metrics.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/aretw0/v2df/internal/logging"
	"github.com/aretw0/v2df/internal/normalize"
	"github.com/aretw0/v2df/internal/pipeline"
	"github.com/aretw0/v2df/internal/presentation/graph"
	"github.com/aretw0/v2df/pkg/densityfn"
	"github.com/aretw0/v2df/pkg/domain"
	"github.com/aretw0/v2df/pkg/expr"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Loader renders the projects served by the preview.
type Loader func(ctx context.Context) ([]*pipeline.Result, error)

// Files exposes written artifacts by path.
type Files interface {
	File(path string) ([]byte, bool)
	Paths() []string
}

// Server holds the latest render and serves it over HTTP.
type Server struct {
	load     Loader
	files    Files
	codec    *densityfn.Codec
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	version  string
	streams  *StreamManager

	mu       sync.RWMutex
	projects map[string]*pipeline.Result
	lastErr  error
}

// Option configures a Server.
type Option func(*Server)

// WithFiles serves the artifacts of f under /files/.
func WithFiles(f Files) Option {
	return func(s *Server) { s.files = f }
}

// WithMetrics serves g under /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithCodec sets the codec used to encode frame documents.
func WithCodec(c *densityfn.Codec) Option {
	return func(s *Server) { s.codec = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a preview server. Call Reload to render before serving.
func NewServer(load Loader, opts ...Option) (*Server, error) {
	s := &Server{
		load:     load,
		logger:   logging.NewNop(),
		version:  "dev",
		streams:  NewStreamManager(),
		projects: make(map[string]*pipeline.Result),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.codec == nil {
		c, err := densityfn.NewCodec(nil)
		if err != nil {
			return nil, err
		}
		s.codec = c
	}
	return s, nil
}

// Reload renders again and swaps the served projects.
// Projects that fail keep their previous render.
func (s *Server) Reload(ctx context.Context) error {
	results, err := s.load(ctx)
	s.mu.Lock()
	for _, r := range results {
		s.projects[r.Project] = r
	}
	s.lastErr = err
	s.mu.Unlock()

	msg := map[string]any{"type": "reload", "projects": len(results)}
	if err != nil {
		msg["error"] = err.Error()
	}
	data, _ := json.Marshal(msg)
	s.streams.Broadcast(string(data))
	return err
}

// Hooks returns lifecycle hooks streaming render progress to /events subscribers.
func (s *Server) Hooks() domain.LifecycleHooks {
	send := func(v any) {
		data, err := json.Marshal(v)
		if err != nil {
			return
		}
		s.streams.Broadcast(string(data))
	}
	return domain.LifecycleHooks{
		OnProjectStart:  func(_ context.Context, e *domain.ProjectEvent) { send(e) },
		OnFrameCompiled: func(_ context.Context, e *domain.FrameEvent) { send(e) },
		OnProjectDone:   func(_ context.Context, e *domain.ProjectEvent) { send(e) },
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)
	r.Post("/reload", s.PostReload)
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", s.ListProjects)
		r.Route("/{project}", func(r chi.Router) {
			r.Get("/", s.GetProject)
			r.Get("/frames/{frame}/image", s.GetFramePNG)
			r.Get("/frames/{frame}/document", s.GetFrameDocument)
			r.Get("/frames/{frame}/mermaid", s.GetFrameMermaid)
		})
	})
	if s.files != nil {
		r.Get("/files/*", s.GetFile)
	}
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "v2df-preview",
		"version": s.version,
	})
}

// PostReload handles the POST /reload request.
func (s *Server) PostReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

type projectSummary struct {
	Project  string            `json:"project"`
	Manifest pipeline.Manifest `json:"manifest"`
}

// ListProjects handles the GET /projects request.
func (s *Server) ListProjects(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	out := make([]projectSummary, 0, len(s.projects))
	for name, res := range s.projects {
		out = append(out, projectSummary{Project: name, Manifest: res.Manifest})
	}
	lastErr := s.lastErr
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Project < out[j].Project })

	body := map[string]any{"projects": out}
	if lastErr != nil {
		body["error"] = lastErr.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

// GetProject handles the GET /projects/{project} request.
func (s *Server) GetProject(w http.ResponseWriter, r *http.Request) {
	res, ok := s.project(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, projectSummary{Project: res.Project, Manifest: res.Manifest})
}

func (s *Server) project(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	name := chi.URLParam(r, "project")
	s.mu.RLock()
	res, ok := s.projects[name]
	s.mu.RUnlock()
	if !ok {
		http.Error(w, fmt.Sprintf("unknown project %q", name), http.StatusNotFound)
		return nil, false
	}
	return res, true
}

// frame resolves the {frame} parameter to an extracted frame tree.
func (s *Server) frame(w http.ResponseWriter, r *http.Request) (*pipeline.Result, int, *expr.Arena, expr.NodeID, bool) {
	res, ok := s.project(w, r)
	if !ok {
		return nil, 0, nil, expr.Invalid, false
	}
	if res.Grid == nil {
		http.Error(w, "project was rendered without a grid", http.StatusNotFound)
		return nil, 0, nil, expr.Invalid, false
	}
	index, err := strconv.Atoi(chi.URLParam(r, "frame"))
	if err != nil {
		http.Error(w, "frame must be an integer", http.StatusBadRequest)
		return nil, 0, nil, expr.Invalid, false
	}
	arena, root, err := res.Grid.Extract(index)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrFrameOutOfRange) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return nil, 0, nil, expr.Invalid, false
	}
	return res, index, arena, root, true
}

// GetFramePNG handles the GET /projects/{project}/frames/{frame}/image request.
// The frame is evaluated from the assembled grid, so the image shows exactly what the terrain engine sees.
func (s *Server) GetFramePNG(w http.ResponseWriter, r *http.Request) {
	res, index, arena, root, ok := s.frame(w, r)
	if !ok {
		return
	}
	width, height := res.Manifest.Provenance.Width, res.Manifest.Provenance.Height
	grid := domain.NewPixelGrid(width, height, 0)
	for z := 0; z < height; z++ {
		for x := 0; x < width; x++ {
			grid.Cells[z*width+x] = uint8(arena.Eval(root, expr.Coord{X: x, Z: z, Frame: index}))
		}
	}
	w.Header().Set("Content-Type", "image/png")
	if err := imgio.PNGEncoder()(w, normalize.Stretch(grid, res.Spec.Levels)); err != nil {
		s.logger.Error("png encode failed", "project", res.Project, "frame", index, "err", err)
	}
}

// GetFrameDocument handles the GET /projects/{project}/frames/{frame}/document request.
func (s *Server) GetFrameDocument(w http.ResponseWriter, r *http.Request) {
	res, index, arena, root, ok := s.frame(w, r)
	if !ok {
		return
	}
	prov := res.Manifest.Provenance
	prov.Kind = densityfn.KindFrame
	prov.Encoding = domain.EncodingTree
	prov.FrameStart, prov.FrameCount = index, 1
	data, err := s.codec.Document(prov, arena, root, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// GetFrameMermaid handles the GET /projects/{project}/frames/{frame}/mermaid request.
// Optional query parameters x and z highlight the evaluation path of that cell.
func (s *Server) GetFrameMermaid(w http.ResponseWriter, r *http.Request) {
	_, index, arena, root, ok := s.frame(w, r)
	if !ok {
		return
	}
	opts := graph.Options{}
	if n, err := strconv.Atoi(r.URL.Query().Get("max")); err == nil {
		opts.MaxNodes = n
	}
	q := r.URL.Query()
	if q.Has("x") && q.Has("z") {
		x, errX := strconv.Atoi(q.Get("x"))
		z, errZ := strconv.Atoi(q.Get("z"))
		if errX != nil || errZ != nil {
			http.Error(w, "x and z must be integers", http.StatusBadRequest)
			return
		}
		opts.Overlay = &graph.Overlay{Coord: expr.Coord{X: x, Z: z, Frame: index}}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(arena, root, opts))
}

// GetFile handles the GET /files/* request.
func (s *Server) GetFile(w http.ResponseWriter, r *http.Request) {
	p := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if p == "" {
		writeJSON(w, http.StatusOK, map[string]any{"files": s.files.Paths()})
		return
	}
	data, ok := s.files.File(p)
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch {
	case strings.HasSuffix(p, ".json"):
		w.Header().Set("Content-Type", "application/json")
	case strings.HasSuffix(p, ".png"):
		w.Header().Set("Content-Type", "image/png")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Write(data)
}
