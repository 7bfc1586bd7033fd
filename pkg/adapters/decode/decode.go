// Package decode provides FrameSource implementations for video files and image sequences.
//
// GIF, MPEG-1 and image sequences are decoded in pure Go. Every other container
// goes through libav and needs the binary to be built with -tags libav.
package decode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/v2df/pkg/domain"
	"github.com/aretw0/v2df/pkg/ports"
)

// ErrUnsupportedContainer is returned when no decoder handles a path.
var ErrUnsupportedContainer = errors.New("unsupported video container")

// Options tunes the decoders.
type Options struct {
	// SequenceFPS is the frame rate assigned to image sequences.
	SequenceFPS float64
}

// Opener implements ports.Opener by dispatching on the path.
type Opener struct {
	Options Options
}

// NewOpener returns an Opener with default options.
func NewOpener() *Opener {
	return &Opener{Options: Options{SequenceFPS: domain.DefaultSequenceFPS}}
}

// Open opens path with the decoder matching its extension.
// Directories are read as image sequences.
func (o *Opener) Open(ctx context.Context, path string) (ports.FrameSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	if st.IsDir() {
		return OpenSequence(path, o.Options.SequenceFPS)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gif":
		return OpenGIF(path)
	case ".mpg", ".mpeg", ".m1v":
		return OpenMPEG(path)
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff":
		return OpenSequence(path, o.Options.SequenceFPS)
	}
	return openLibav(path)
}

// rawFromImage copies img into a RawFrame, keeping gray images single channel.
func rawFromImage(img image.Image) domain.RawFrame {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok {
		out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(out, out.Bounds(), g, b.Min, draw.Src)
		return domain.RawFrame{Width: b.Dx(), Height: b.Dy(), Format: domain.FormatGray8, Stride: out.Stride, Pix: out.Pix}
	}
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return domain.RawFrame{Width: b.Dx(), Height: b.Dy(), Format: domain.FormatRGBA8, Stride: out.Stride, Pix: out.Pix}
}
