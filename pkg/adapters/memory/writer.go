package memory

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path"
	"sort"
	"sync"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/aretw0/v2df/pkg/domain"
)

// Writer implements ports.ArtifactWriter in memory.
// Safe for concurrent use.
type Writer struct {
	mu    sync.RWMutex
	files map[string][]byte
	// FailOn makes every write to a matching path (path.Match syntax) fail.
	FailOn string
}

// NewWriter creates an empty in-memory writer.
func NewWriter() *Writer {
	return &Writer{files: make(map[string][]byte)}
}

func (w *Writer) put(p string, data []byte) error {
	p = path.Clean(p)
	if w.FailOn != "" {
		if ok, _ := path.Match(w.FailOn, p); ok {
			return fmt.Errorf("%w: %s: injected failure", domain.ErrWrite, p)
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[p] = append([]byte(nil), data...)
	return nil
}

func (w *Writer) WriteDocument(_ context.Context, p string, data []byte) error {
	return w.put(p, data)
}

func (w *Writer) WriteScript(_ context.Context, p string, text string) error {
	return w.put(p, []byte(text))
}

func (w *Writer) WriteImage(_ context.Context, p string, img image.Image) error {
	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, img); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrWrite, p, err)
	}
	return w.put(p, buf.Bytes())
}

// File returns the content written to p.
func (w *Writer) File(p string) ([]byte, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	data, ok := w.files[path.Clean(p)]
	return data, ok
}

// Paths returns every written path in sorted order.
func (w *Writer) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.files))
	for p := range w.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
