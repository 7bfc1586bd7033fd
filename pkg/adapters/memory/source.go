package memory

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/v2df/pkg/domain"
	"github.com/aretw0/v2df/pkg/ports"
)

// Source implements ports.FrameSource over frames held in memory.
type Source struct {
	info   domain.StreamInfo
	frames []domain.RawFrame
	pos    int
	closed bool
}

// NewSource creates a source replaying frames at fps.
// All frames must share the size and format of the first one.
func NewSource(fps domain.Rational, frames ...domain.RawFrame) (*Source, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("memory source needs at least one frame")
	}
	first := frames[0]
	for i, f := range frames {
		if f.Width != first.Width || f.Height != first.Height || f.Format != first.Format {
			return nil, fmt.Errorf("frame %d is %dx%d %s, want %dx%d %s",
				i, f.Width, f.Height, f.Format, first.Width, first.Height, first.Format)
		}
	}
	return &Source{
		info: domain.StreamInfo{
			Width:      first.Width,
			Height:     first.Height,
			Format:     first.Format,
			FrameRate:  fps,
			FrameCount: len(frames),
		},
		frames: frames,
	}, nil
}

// NewGraySource builds a source of 8-bit gray frames from pixel buffers.
func NewGraySource(width, height int, fps domain.Rational, pix ...[]byte) (*Source, error) {
	frames := make([]domain.RawFrame, len(pix))
	for i, p := range pix {
		frames[i] = domain.RawFrame{Width: width, Height: height, Format: domain.FormatGray8, Stride: width, Pix: p}
	}
	return NewSource(fps, frames...)
}

func (s *Source) Info() domain.StreamInfo { return s.info }

func (s *Source) Next(ctx context.Context) (domain.RawFrame, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawFrame{}, err
	}
	if s.closed {
		return domain.RawFrame{}, fmt.Errorf("memory source is closed")
	}
	if s.pos >= len(s.frames) {
		return domain.RawFrame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *Source) Rewind() error {
	s.pos = 0
	return nil
}

func (s *Source) Close() error {
	s.closed = true
	return nil
}

// Opener serves fixed sources by path.
type Opener map[string]func() (ports.FrameSource, error)

func (o Opener) Open(_ context.Context, path string) (ports.FrameSource, error) {
	open, ok := o[path]
	if !ok {
		return nil, fmt.Errorf("no source registered for %q", path)
	}
	return open()
}
