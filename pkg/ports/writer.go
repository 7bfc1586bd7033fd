package ports

import (
	"context"
	"image"
)

// ArtifactWriter persists render outputs.
// Paths are relative to the writer's root. Every write replaces its target
// atomically, and failures wrap domain.ErrWrite.
type ArtifactWriter interface {
	// WriteDocument writes a serialized density function document.
	WriteDocument(ctx context.Context, path string, data []byte) error

	// WriteScript writes a traversal function.
	WriteScript(ctx context.Context, path string, text string) error

	// WriteImage writes a PNG preview.
	WriteImage(ctx context.Context, path string, img image.Image) error
}
