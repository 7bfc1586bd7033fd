//go:build libav

package decode

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/v2df/pkg/domain"
	"github.com/aretw0/v2df/pkg/ports"
	"github.com/cogentcore/reisen"
)

// Libav is a FrameSource backed by libav through reisen. It reads the first video stream.
type Libav struct {
	path   string
	media  *reisen.Media
	stream *reisen.VideoStream
	info   domain.StreamInfo
}

func openLibav(path string) (ports.FrameSource, error) {
	l := &Libav{path: path}
	if err := l.open(); err != nil {
		return nil, err
	}
	num, den := l.stream.FrameRate()
	l.info = domain.StreamInfo{
		Width:     l.stream.Width(),
		Height:    l.stream.Height(),
		Format:    domain.FormatRGBA8,
		FrameRate: domain.NewRational(int64(num), int64(den)),
	}
	return l, nil
}

func (l *Libav) open() error {
	media, err := reisen.NewMedia(l.path)
	if err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	if err := media.OpenDecode(); err != nil {
		media.Close()
		return fmt.Errorf("open video decoder: %w", err)
	}
	streams := media.VideoStreams()
	if len(streams) == 0 {
		media.CloseDecode()
		media.Close()
		return fmt.Errorf("%w: %s has no video stream", ErrUnsupportedContainer, l.path)
	}
	if err := streams[0].Open(); err != nil {
		media.CloseDecode()
		media.Close()
		return fmt.Errorf("open video stream: %w", err)
	}
	l.media, l.stream = media, streams[0]
	return nil
}

func (l *Libav) Info() domain.StreamInfo { return l.info }

func (l *Libav) Next(ctx context.Context) (domain.RawFrame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.RawFrame{}, err
		}
		packet, ok, err := l.media.ReadPacket()
		if err != nil {
			return domain.RawFrame{}, fmt.Errorf("read packet: %w", err)
		}
		if !ok {
			return domain.RawFrame{}, io.EOF
		}
		if packet.Type() != reisen.StreamVideo || packet.StreamIndex() != l.stream.Index() {
			continue
		}
		frame, ok, err := l.stream.ReadVideoFrame()
		if err != nil {
			return domain.RawFrame{}, fmt.Errorf("decode frame: %w", err)
		}
		if !ok || frame == nil {
			continue
		}
		img := frame.Image()
		return domain.RawFrame{
			Width:  img.Rect.Dx(),
			Height: img.Rect.Dy(),
			Format: domain.FormatRGBA8,
			Stride: img.Stride,
			Pix:    img.Pix,
		}, nil
	}
}

// Rewind reopens the media; seeking is not frame exact across containers.
func (l *Libav) Rewind() error {
	if err := l.Close(); err != nil {
		return err
	}
	return l.open()
}

func (l *Libav) Close() error {
	if l.stream != nil {
		l.stream.Close()
	}
	if l.media != nil {
		l.media.CloseDecode()
		l.media.Close()
	}
	l.stream, l.media = nil, nil
	return nil
}
