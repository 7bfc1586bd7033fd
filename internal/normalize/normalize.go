// Package normalize turns decoded frames into pixel grids of the terrain value domain.
package normalize

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/transform"
	"github.com/aretw0/v2df/pkg/domain"
)

// Normalizer maps raw samples onto [0, Levels).
// The zero value is not usable; build one with New or FromProject.
type Normalizer struct {
	Threshold   int
	Levels      int
	Invert      bool
	ScaleWidth  int
	ScaleHeight int
	Border      domain.Border
}

// New returns a two level normalizer splitting at threshold.
func New(threshold int) Normalizer {
	return Normalizer{Threshold: threshold, Levels: 2}
}

// FromProject builds the normalizer configured by a project.
func FromProject(p domain.ProjectSpec) Normalizer {
	return Normalizer{
		Threshold:   p.Threshold,
		Levels:      p.Levels,
		Invert:      p.InvertColors,
		ScaleWidth:  p.ScaleWidth,
		ScaleHeight: p.ScaleHeight,
		Border:      p.Border(),
	}
}

// Validate checks the normalizer parameters.
func (n Normalizer) Validate() error {
	if n.Levels < 2 || n.Levels > 256 {
		return fmt.Errorf("levels must be in [2, 256], got %d", n.Levels)
	}
	if n.Threshold < 0 || n.Threshold > 255 {
		return fmt.Errorf("threshold must be in [0, 255], got %d", n.Threshold)
	}
	if int(n.Border.Value) >= n.Levels {
		return fmt.Errorf("border value %d outside [0, %d)", n.Border.Value, n.Levels)
	}
	if n.ScaleWidth < 0 || n.ScaleHeight < 0 {
		return fmt.Errorf("scale must not be negative")
	}
	return nil
}

// Luminance returns the 8-bit brightness of one pixel.
func Luminance(px []byte, format domain.PixelFormat) (uint8, error) {
	if !format.Supported() {
		return 0, fmt.Errorf("%w: %s", domain.ErrInvalidPixelFormat, format)
	}
	if len(px) < format.Channels {
		return 0, fmt.Errorf("%w: pixel holds %d samples, want %d", domain.ErrInvalidPixelFormat, len(px), format.Channels)
	}
	if format.Channels == 1 {
		return px[0], nil
	}
	r, g, b := int(px[0]), int(px[1]), int(px[2])
	return uint8((299*r + 587*g + 114*b + 500) / 1000), nil
}

// Sample maps one pixel to its domain value.
func (n Normalizer) Sample(px []byte, format domain.PixelFormat) (uint8, error) {
	l, err := Luminance(px, format)
	if err != nil {
		return 0, err
	}
	return n.quantize(l), nil
}

func (n Normalizer) quantize(l uint8) uint8 {
	if n.Invert {
		l = 255 - l
	}
	if n.Levels <= 2 {
		if int(l) > n.Threshold {
			return 1
		}
		return 0
	}
	return uint8(int(l) * n.Levels / 256)
}

// Frame normalizes a decoded frame and pads it with the border.
// Errors are *domain.FrameError values carrying index.
func (n Normalizer) Frame(index int, raw domain.RawFrame) (domain.PixelGrid, error) {
	if err := checkFrame(raw); err != nil {
		return domain.PixelGrid{}, domain.NewFrameError(index, domain.StageNormalize, err)
	}

	var grid domain.PixelGrid
	if n.scaled(raw) {
		img := transform.Resize(Image(raw), n.ScaleWidth, n.ScaleHeight, transform.Linear)
		grid = domain.NewPixelGrid(n.ScaleWidth, n.ScaleHeight, 0)
		for z := 0; z < grid.Height; z++ {
			for x := 0; x < grid.Width; x++ {
				off := img.PixOffset(x, z)
				v, _ := n.Sample(img.Pix[off:off+4], domain.FormatRGBA8)
				grid.Cells[z*grid.Width+x] = v
			}
		}
	} else {
		grid = domain.NewPixelGrid(raw.Width, raw.Height, 0)
		for z := 0; z < raw.Height; z++ {
			for x := 0; x < raw.Width; x++ {
				v, err := n.Sample(raw.Pixel(x, z), raw.Format)
				if err != nil {
					fe := domain.NewFrameError(index, domain.StageNormalize, err)
					fe.X, fe.Y = x, z
					return domain.PixelGrid{}, fe
				}
				grid.Cells[z*grid.Width+x] = v
			}
		}
	}
	return grid.WithBorder(n.Border), nil
}

func (n Normalizer) scaled(raw domain.RawFrame) bool {
	return n.ScaleWidth > 0 && n.ScaleHeight > 0 &&
		(n.ScaleWidth != raw.Width || n.ScaleHeight != raw.Height)
}

func checkFrame(raw domain.RawFrame) error {
	if !raw.Format.Supported() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidPixelFormat, raw.Format)
	}
	if raw.Width <= 0 || raw.Height <= 0 {
		return fmt.Errorf("%w: empty frame %dx%d", domain.ErrInvalidPixelFormat, raw.Width, raw.Height)
	}
	if raw.Stride < raw.Width*raw.Format.Channels {
		return fmt.Errorf("%w: stride %d too small for width %d", domain.ErrInvalidPixelFormat, raw.Stride, raw.Width)
	}
	if need := (raw.Height-1)*raw.Stride + raw.Width*raw.Format.Channels; len(raw.Pix) < need {
		return fmt.Errorf("%w: buffer holds %d bytes, want %d", domain.ErrInvalidPixelFormat, len(raw.Pix), need)
	}
	return nil
}

// Image returns the raw frame as an image.Image without copying gray and RGBA buffers.
func Image(raw domain.RawFrame) image.Image {
	rect := image.Rect(0, 0, raw.Width, raw.Height)
	switch raw.Format.Channels {
	case 1:
		return &image.Gray{Pix: raw.Pix, Stride: raw.Stride, Rect: rect}
	case 4:
		return &image.NRGBA{Pix: raw.Pix, Stride: raw.Stride, Rect: rect}
	}
	img := image.NewNRGBA(rect)
	for z := 0; z < raw.Height; z++ {
		for x := 0; x < raw.Width; x++ {
			px := raw.Pixel(x, z)
			off := img.PixOffset(x, z)
			img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3] = px[0], px[1], px[2], 0xff
		}
	}
	return img
}

// Preview returns the scaled and optionally inverted grayscale view of a frame,
// as written next to test renders.
func (n Normalizer) Preview(raw domain.RawFrame) (*image.Gray, error) {
	if err := checkFrame(raw); err != nil {
		return nil, err
	}
	var img image.Image = Image(raw)
	if n.scaled(raw) {
		img = transform.Resize(img, n.ScaleWidth, n.ScaleHeight, transform.Linear)
	}
	if n.Invert {
		img = effect.Invert(img)
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for z := 0; z < b.Dy(); z++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+z).RGBA()
			px := []byte{uint8(r >> 8), uint8(g >> 8), uint8(bl >> 8)}
			l, _ := Luminance(px, domain.FormatRGB8)
			gray.Pix[z*gray.Stride+x] = l
		}
	}
	return gray, nil
}

// Stretch maps a grid of [0, levels) values onto 0..255 for display.
func Stretch(g domain.PixelGrid, levels int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	if levels < 2 {
		levels = 2
	}
	for i, v := range g.Cells {
		c := int(v) * 255 / (levels - 1)
		if c > 255 {
			c = 255
		}
		img.Pix[i] = uint8(c)
	}
	return img
}
