package decode

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"io"
	"os"

	"github.com/aretw0/v2df/pkg/domain"
)

// GIF is a FrameSource over an animated GIF.
// Frames are composited onto the logical screen honouring each frame's disposal method.
type GIF struct {
	anim *gif.GIF
	info domain.StreamInfo

	canvas *image.NRGBA
	pos    int
}

// OpenGIF decodes the animation at path.
func OpenGIF(path string) (*GIF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gif: %w", err)
	}
	defer f.Close()
	return NewGIF(f)
}

// NewGIF decodes an animation from r.
func NewGIF(r io.Reader) (*GIF, error) {
	anim, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode gif: %w", err)
	}
	if len(anim.Image) == 0 {
		return nil, fmt.Errorf("decode gif: no frames")
	}
	w, h := anim.Config.Width, anim.Config.Height
	if w == 0 || h == 0 {
		b := anim.Image[0].Bounds()
		w, h = b.Max.X, b.Max.Y
	}

	g := &GIF{
		anim: anim,
		info: domain.StreamInfo{
			Width:      w,
			Height:     h,
			Format:     domain.FormatRGBA8,
			FrameRate:  gifRate(anim.Delay),
			FrameCount: len(anim.Image),
		},
	}
	g.Rewind()
	return g, nil
}

// gifRate derives the frame rate from the first non-zero delay, in hundredths of a second.
// Browsers play zero delays at 10 fps.
func gifRate(delays []int) domain.Rational {
	for _, d := range delays {
		if d > 0 {
			return domain.NewRational(100, int64(d))
		}
	}
	return domain.NewRational(10, 1)
}

func (g *GIF) Info() domain.StreamInfo { return g.info }

func (g *GIF) Next(ctx context.Context) (domain.RawFrame, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawFrame{}, err
	}
	if g.pos >= len(g.anim.Image) {
		return domain.RawFrame{}, io.EOF
	}

	frame := g.anim.Image[g.pos]
	disposal := byte(0)
	if g.pos < len(g.anim.Disposal) {
		disposal = g.anim.Disposal[g.pos]
	}

	var previous *image.NRGBA
	if disposal == gif.DisposalPrevious {
		previous = image.NewNRGBA(g.canvas.Rect)
		copy(previous.Pix, g.canvas.Pix)
	}

	draw.Draw(g.canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
	out := domain.RawFrame{
		Width:  g.info.Width,
		Height: g.info.Height,
		Format: domain.FormatRGBA8,
		Stride: g.canvas.Stride,
		Pix:    append([]byte(nil), g.canvas.Pix...),
	}

	switch disposal {
	case gif.DisposalBackground:
		draw.Draw(g.canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
	case gif.DisposalPrevious:
		g.canvas = previous
	}
	g.pos++
	return out, nil
}

func (g *GIF) Rewind() error {
	g.canvas = image.NewNRGBA(image.Rect(0, 0, g.info.Width, g.info.Height))
	g.pos = 0
	return nil
}

func (g *GIF) Close() error { return nil }
