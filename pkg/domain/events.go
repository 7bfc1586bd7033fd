package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventProjectStart  EventType = "project_start"
	EventProjectDone   EventType = "project_done"
	EventFrameCompiled EventType = "frame_compiled"
	EventArtifact      EventType = "artifact_written"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Project   string    `json:"project"`
}

// ProjectEvent marks the start or end of a project render.
type ProjectEvent struct {
	EventBase
	Frames   int           `json:"frames"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// FrameEvent reports a compiled frame.
type FrameEvent struct {
	EventBase
	Index    int           `json:"index"`
	Nodes    int           `json:"nodes"`
	Depth    int           `json:"depth"`
	CacheHit bool          `json:"cache_hit"`
	Duration time.Duration `json:"duration"`
}

// ArtifactEvent reports a file written by the serializer.
type ArtifactEvent struct {
	EventBase
	Kind  string `json:"kind"` // "frame", "grid", "shared", "traversal", "manifest", "preview"
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// LifecycleHooks defines callbacks for pipeline observability.
// Hooks may be called concurrently from worker goroutines.
type LifecycleHooks struct {
	OnProjectStart  func(context.Context, *ProjectEvent)
	OnProjectDone   func(context.Context, *ProjectEvent)
	OnFrameCompiled func(context.Context, *FrameEvent)
	OnArtifact      func(context.Context, *ArtifactEvent)
}

// Merge returns hooks calling h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnProjectStart:  chain(h.OnProjectStart, other.OnProjectStart),
		OnProjectDone:   chain(h.OnProjectDone, other.OnProjectDone),
		OnFrameCompiled: chain(h.OnFrameCompiled, other.OnFrameCompiled),
		OnArtifact:      chain(h.OnArtifact, other.OnArtifact),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
