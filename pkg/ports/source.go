package ports

import (
	"context"

	"github.com/aretw0/v2df/pkg/domain"
)

// FrameSource is a decoded video stream.
// Implementations are not safe for concurrent use.
type FrameSource interface {
	// Info describes the stream. It is valid right after opening.
	Info() domain.StreamInfo

	// Next returns the next frame in presentation order, or io.EOF after the last one.
	// The returned frame may be reused by the following call; callers must copy what they keep.
	Next(ctx context.Context) (domain.RawFrame, error)

	// Rewind restarts the stream at its first frame.
	Rewind() error

	// Close releases the decoder.
	Close() error
}

// Opener opens a video path into a FrameSource.
type Opener interface {
	Open(ctx context.Context, path string) (FrameSource, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, path string) (FrameSource, error)

func (f OpenerFunc) Open(ctx context.Context, path string) (FrameSource, error) {
	return f(ctx, path)
}
