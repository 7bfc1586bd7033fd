package http

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/v2df/internal/pipeline"
	"github.com/aretw0/v2df/pkg/adapters/memory"
	"github.com/aretw0/v2df/pkg/densityfn"
	"github.com/aretw0/v2df/pkg/domain"
	"github.com/aretw0/v2df/pkg/expr"
	"github.com/aretw0/v2df/pkg/observability"
	"github.com/aretw0/v2df/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *memory.Writer) {
	t.Helper()
	pix := [][]byte{
		{255, 0, 0, 0, 0, 0, 0, 0, 0},
		{255, 255, 255, 0, 0, 0, 0, 0, 0},
	}
	opener := memory.Opener{
		"clip": func() (ports.FrameSource, error) {
			return memory.NewGraySource(3, 3, domain.NewRational(20, 1), pix...)
		},
	}
	w := memory.NewWriter()
	cfg := domain.DefaultConfig()
	cfg.VideoFile = "clip"
	cfg.Projects[0].Namespace = "demo"
	cfg.Projects[0].BorderWidth = 1

	p := pipeline.New(opener, w)
	load := func(ctx context.Context) ([]*pipeline.Result, error) {
		return p.Run(ctx, cfg, pipeline.ModeRun)
	}
	s, err := NewServer(load, append([]Option{WithFiles(w), WithVersion("1.2.3")}, opts...)...)
	require.NoError(t, err)
	require.NoError(t, s.Reload(context.Background()))
	return s, w
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetHealthAndInfo(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	rr := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	var health map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])

	rr = get(t, h, "/info")
	var info map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, "v2df-preview", info["app"])
	assert.Equal(t, "1.2.3", info["version"])
}

func TestListProjects(t *testing.T) {
	s, _ := newTestServer(t)
	rr := get(t, s.Handler(), "/projects/")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Projects []projectSummary `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Projects, 1)
	assert.Equal(t, "demo", body.Projects[0].Project)
	assert.Equal(t, 2, body.Projects[0].Manifest.FrameCount)

	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/projects/nope/").Code)
}

func TestGetFramePNG(t *testing.T) {
	s, _ := newTestServer(t)
	rr := get(t, s.Handler(), "/projects/demo/frames/1/image")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))

	img, err := png.Decode(rr.Body)
	require.NoError(t, err)
	assert.Equal(t, 5, img.Bounds().Dx())
	assert.Equal(t, 5, img.Bounds().Dy())

	r, _, _, _ := img.At(3, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r, "lit cell of frame 1")
	r, _, _, _ = img.At(2, 2).RGBA()
	assert.Equal(t, uint32(0), r, "dark cell")
}

func TestGetFrame_Errors(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()
	assert.Equal(t, http.StatusNotFound, get(t, h, "/projects/demo/frames/7/image").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/projects/demo/frames/x/image").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/projects/other/frames/0/image").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/projects/demo/frames/0/mermaid?x=a&z=1").Code)
}

func TestGetFrameDocument(t *testing.T) {
	s, _ := newTestServer(t)
	rr := get(t, s.Handler(), "/projects/demo/frames/0/document")
	require.Equal(t, http.StatusOK, rr.Code)

	codec, err := densityfn.NewCodec(nil)
	require.NoError(t, err)
	a := expr.NewArena()
	root, prov, err := codec.ParseDocument(rr.Body.Bytes(), a, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, prov.FrameStart)
	assert.Equal(t, 1, a.Eval(root, expr.Coord{X: 1, Z: 1}))
	assert.Equal(t, 0, a.Eval(root, expr.Coord{X: 2, Z: 1}))
}

func TestGetFrameMermaid(t *testing.T) {
	s, _ := newTestServer(t)
	rr := get(t, s.Handler(), "/projects/demo/frames/0/mermaid?x=1&z=1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "graph TD")
	assert.Contains(t, rr.Body.String(), " current;")
}

func TestGetFile(t *testing.T) {
	s, w := newTestServer(t)
	h := s.Handler()

	rr := get(t, h, "/files/")
	require.Equal(t, http.StatusOK, rr.Code)
	var listing struct {
		Files []string `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listing))
	assert.Equal(t, w.Paths(), listing.Files)

	rr = get(t, h, "/files/frame_tp/0.mcfunction")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "tp @a")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/files/missing.json").Code)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	m.Frames.WithLabelValues("demo").Add(2)

	s, _ := newTestServer(t, WithMetrics(reg))
	rr := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `v2df_frames_compiled_total{project="demo"} 2`)
}

func TestPostReload_Error(t *testing.T) {
	s, err := NewServer(func(context.Context) ([]*pipeline.Result, error) {
		return nil, errors.New("decoder exploded")
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/reload", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "decoder exploded")

	rr = get(t, s.Handler(), "/projects/")
	assert.Contains(t, rr.Body.String(), "decoder exploded")
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, unsubscribe := sm.Subscribe()
	sm.Broadcast("hello")
	assert.Equal(t, "hello", <-ch)

	unsubscribe()
	unsubscribe()
	_, open := <-ch
	assert.False(t, open)
	sm.Broadcast("nobody listens")
}

func TestHooksBroadcast(t *testing.T) {
	s, err := NewServer(func(context.Context) ([]*pipeline.Result, error) { return nil, nil })
	require.NoError(t, err)
	ch, unsubscribe := s.streams.Subscribe()
	defer unsubscribe()

	s.Hooks().OnFrameCompiled(context.Background(), &domain.FrameEvent{
		EventBase: domain.EventBase{Type: domain.EventFrameCompiled, Project: "demo"},
		Index:     4,
	})
	msg := <-ch
	assert.Contains(t, msg, `"index":4`)
	assert.Contains(t, msg, `"frame_compiled"`)
}
