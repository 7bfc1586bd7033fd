package domain

import "fmt"

// PixelFormat describes the sample layout of a RawFrame.
type PixelFormat struct {
	Channels int // 1 (gray), 3 (RGB) or 4 (RGBA)
	BitDepth int // bits per channel
}

var (
	FormatGray8 = PixelFormat{Channels: 1, BitDepth: 8}
	FormatRGB8  = PixelFormat{Channels: 3, BitDepth: 8}
	FormatRGBA8 = PixelFormat{Channels: 4, BitDepth: 8}
)

func (f PixelFormat) String() string {
	return fmt.Sprintf("%dx%dbit", f.Channels, f.BitDepth)
}

// Supported reports whether the normalizer accepts samples of this format.
func (f PixelFormat) Supported() bool {
	if f.BitDepth != 8 {
		return false
	}
	switch f.Channels {
	case 1, 3, 4:
		return true
	}
	return false
}

// RawFrame is one decoded frame as produced by a FrameSource.
// Row z starts at Pix[z*Stride]; each pixel occupies Format.Channels bytes.
type RawFrame struct {
	Width  int
	Height int
	Format PixelFormat
	Stride int
	Pix    []byte
}

// Pixel returns the samples of the pixel at (x, z).
func (f RawFrame) Pixel(x, z int) []byte {
	off := z*f.Stride + x*f.Format.Channels
	return f.Pix[off : off+f.Format.Channels]
}

// Rational is an exact frame rate, Num/Den frames per second.
type Rational struct {
	Num int64
	Den int64
}

// NewRational builds a Rational, defaulting the denominator to 1.
func NewRational(num, den int64) Rational {
	if den == 0 {
		den = 1
	}
	return Rational{Num: num, Den: den}
}

// RationalFromFloat approximates common decoder frame rates (29.97 and friends)
// with a 1001 denominator and falls back to a millisecond precision fraction.
func RationalFromFloat(fps float64) Rational {
	if fps <= 0 {
		return Rational{Num: 0, Den: 1}
	}
	whole := float64(int64(fps + 0.5))
	if diff := fps - whole; diff < 1e-9 && diff > -1e-9 {
		return Rational{Num: int64(whole), Den: 1}
	}
	ntsc := float64(int64(fps*1001/1000+0.5)) * 1000 / 1001
	if diff := fps - ntsc; diff < 1e-3 && diff > -1e-3 {
		return Rational{Num: int64(fps*1001/1000+0.5) * 1000, Den: 1001}
	}
	return Rational{Num: int64(fps*1000 + 0.5), Den: 1000}
}

// Float returns the approximate value.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	if r.Den == 1 {
		return fmt.Sprintf("%d", r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// StreamInfo is what a FrameSource declares about its stream.
type StreamInfo struct {
	Width     int
	Height    int
	Format    PixelFormat
	FrameRate Rational
	// FrameCount is the declared number of frames, or 0 when unknown.
	FrameCount int
}
