package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/v2df/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by the pipeline hooks.
type Metrics struct {
	Frames        *prometheus.CounterVec
	CacheHits     *prometheus.CounterVec
	CompileTime   *prometheus.HistogramVec
	TreeNodes     *prometheus.HistogramVec
	Artifacts     *prometheus.CounterVec
	ArtifactBytes *prometheus.CounterVec
	Projects      *prometheus.CounterVec
	ProjectTime   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "v2df_frames_compiled_total",
			Help: "Total number of frames compiled into expression trees",
		}, []string{"project"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "v2df_tree_cache_hits_total",
			Help: "Frames whose tree was served from the cache",
		}, []string{"project"}),
		CompileTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "v2df_frame_compile_seconds",
			Help:    "Time spent normalizing and compiling one frame",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"project"}),
		TreeNodes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "v2df_frame_tree_nodes",
			Help:    "Distinct nodes per compiled frame tree",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"project"}),
		Artifacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "v2df_artifacts_written_total",
			Help: "Artifacts written, by kind",
		}, []string{"project", "kind"}),
		ArtifactBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "v2df_artifact_bytes_total",
			Help: "Bytes written, by artifact kind",
		}, []string{"project", "kind"}),
		Projects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "v2df_projects_total",
			Help: "Finished project renders, by outcome",
		}, []string{"project", "outcome"}),
		ProjectTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "v2df_project_seconds",
			Help:    "Wall time of a project render",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"project"}),
	}
	if reg != nil {
		reg.MustRegister(m.Frames, m.CacheHits, m.CompileTime, m.TreeNodes,
			m.Artifacts, m.ArtifactBytes, m.Projects, m.ProjectTime)
	}
	return m
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFrameCompiled: func(_ context.Context, e *domain.FrameEvent) {
			m.Frames.WithLabelValues(e.Project).Inc()
			if e.CacheHit {
				m.CacheHits.WithLabelValues(e.Project).Inc()
			}
			m.CompileTime.WithLabelValues(e.Project).Observe(e.Duration.Seconds())
			m.TreeNodes.WithLabelValues(e.Project).Observe(float64(e.Nodes))
		},
		OnArtifact: func(_ context.Context, e *domain.ArtifactEvent) {
			m.Artifacts.WithLabelValues(e.Project, e.Kind).Inc()
			m.ArtifactBytes.WithLabelValues(e.Project, e.Kind).Add(float64(e.Bytes))
		},
		OnProjectDone: func(_ context.Context, e *domain.ProjectEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "error"
			}
			m.Projects.WithLabelValues(e.Project, outcome).Inc()
			m.ProjectTime.WithLabelValues(e.Project).Observe(e.Duration.Seconds())
		},
	}
}

// LogHooks returns hooks that log every event on logger.
// Frame and artifact events are logged at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnProjectStart: func(ctx context.Context, e *domain.ProjectEvent) {
			logger.InfoContext(ctx, "project_start", "project", e.Project)
		},
		OnProjectDone: func(ctx context.Context, e *domain.ProjectEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "project_failed", "project", e.Project, "frames", e.Frames, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "project_done", "project", e.Project, "frames", e.Frames, "duration", e.Duration)
		},
		OnFrameCompiled: func(ctx context.Context, e *domain.FrameEvent) {
			logger.DebugContext(ctx, "frame_compiled",
				"project", e.Project,
				"frame", e.Index,
				"nodes", e.Nodes,
				"depth", e.Depth,
				"cache_hit", e.CacheHit,
			)
		},
		OnArtifact: func(ctx context.Context, e *domain.ArtifactEvent) {
			logger.DebugContext(ctx, "artifact_written", "project", e.Project, "kind", e.Kind, "path", e.Path, "bytes", e.Bytes)
		},
	}
}
