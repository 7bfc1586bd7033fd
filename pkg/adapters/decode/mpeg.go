package decode

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/v2df/pkg/domain"
	"github.com/gen2brain/mpeg"
)

// MPEG is a FrameSource over an MPEG-1 program or video stream, decoded in pure Go.
type MPEG struct {
	file  *os.File
	video *mpeg.Video
	info  domain.StreamInfo
}

// OpenMPEG opens the MPEG-1 file at path.
func OpenMPEG(path string) (*MPEG, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mpeg: %w", err)
	}
	mpg, err := mpeg.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode mpeg: %w", err)
	}
	video := mpg.Video()
	if video == nil || !video.HasHeader() {
		f.Close()
		return nil, fmt.Errorf("decode mpeg: %w: no MPEG-1 video stream", ErrUnsupportedContainer)
	}
	return &MPEG{
		file:  f,
		video: video,
		info: domain.StreamInfo{
			Width:     video.Width(),
			Height:    video.Height(),
			Format:    domain.FormatRGBA8,
			FrameRate: domain.RationalFromFloat(video.Framerate()),
		},
	}, nil
}

func (m *MPEG) Info() domain.StreamInfo { return m.info }

func (m *MPEG) Next(ctx context.Context) (domain.RawFrame, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawFrame{}, err
	}
	// A nil frame means the buffer ran dry, which for a file is the end of the stream.
	frame := m.video.Decode()
	if frame == nil {
		return domain.RawFrame{}, io.EOF
	}
	img := frame.RGBA()
	return domain.RawFrame{
		Width:  frame.Width,
		Height: frame.Height,
		Format: domain.FormatRGBA8,
		Stride: img.Stride,
		Pix:    img.Pix,
	}, nil
}

func (m *MPEG) Rewind() error {
	m.video.Rewind()
	return nil
}

func (m *MPEG) Close() error {
	return m.file.Close()
}
