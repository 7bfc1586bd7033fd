package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/v2df/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	base := domain.EventBase{Project: "demo"}
	hooks.OnFrameCompiled(ctx, &domain.FrameEvent{EventBase: base, Index: 0, Nodes: 5, Duration: time.Millisecond})
	hooks.OnFrameCompiled(ctx, &domain.FrameEvent{EventBase: base, Index: 1, Nodes: 1, CacheHit: true})
	hooks.OnArtifact(ctx, &domain.ArtifactEvent{EventBase: base, Kind: "frame", Bytes: 100})
	hooks.OnArtifact(ctx, &domain.ArtifactEvent{EventBase: base, Kind: "frame", Bytes: 20})
	hooks.OnProjectDone(ctx, &domain.ProjectEvent{EventBase: base, Err: errors.New("x")})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Frames.WithLabelValues("demo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("demo")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Artifacts.WithLabelValues("demo", "frame")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.ArtifactBytes.WithLabelValues("demo", "frame")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Projects.WithLabelValues("demo", "error")))

	n, err := testutil.GatherAndCount(reg, "v2df_frame_tree_nodes")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := LogHooks(logger).Merge(domain.LifecycleHooks{})

	hooks.OnProjectStart(context.Background(), &domain.ProjectEvent{EventBase: domain.EventBase{Project: "demo"}})
	hooks.OnFrameCompiled(context.Background(), &domain.FrameEvent{EventBase: domain.EventBase{Project: "demo"}, Index: 7})

	out := buf.String()
	assert.Contains(t, out, "project_start")
	assert.Contains(t, out, "frame=7")
}
