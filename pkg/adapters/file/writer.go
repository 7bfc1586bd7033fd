// Package file persists render artifacts on the local filesystem.
package file

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/aretw0/v2df/pkg/domain"
)

// Writer implements ports.ArtifactWriter on a directory tree.
// Every file is written atomically: a reader sees either the previous content or the new one.
type Writer struct {
	BasePath string
}

// New creates a Writer rooted at basePath.
// If basePath is empty, it defaults to the current directory.
func New(basePath string) *Writer {
	if basePath == "" {
		basePath = "."
	}
	return &Writer{BasePath: basePath}
}

func (w *Writer) WriteDocument(ctx context.Context, path string, data []byte) error {
	return w.write(ctx, path, data)
}

func (w *Writer) WriteScript(ctx context.Context, path string, text string) error {
	return w.write(ctx, path, []byte(text))
}

func (w *Writer) WriteImage(ctx context.Context, path string, img image.Image) error {
	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, img); err != nil {
		return fmt.Errorf("%w: encode %s: %v", domain.ErrWrite, path, err)
	}
	return w.write(ctx, path, buf.Bytes())
}

// write stores data under path through a temp file in the same directory,
// fsynced and renamed over the destination.
func (w *Writer) write(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("%w: empty path", domain.ErrWrite)
	}

	destPath := filepath.Join(w.BasePath, filepath.FromSlash(path))
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to ensure directory %s: %v", domain.ErrWrite, dir, err)
	}

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(destPath)+"-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", domain.ErrWrite, err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", domain.ErrWrite, destPath, err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("%w: failed to fsync %s: %v", domain.ErrWrite, destPath, err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("%w: failed to close temp file: %v", domain.ErrWrite, err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("%w: failed to replace %s: %v", domain.ErrWrite, destPath, err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("%w: failed to rename temp file to %s: %v", domain.ErrWrite, destPath, err)
	}
	return nil
}
