package decode_test

import (
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/v2df/pkg/adapters/decode"
	"github.com/aretw0/v2df/pkg/domain"
	"github.com/aretw0/v2df/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var palette = color.Palette{color.Transparent, color.Black, color.White}

func writeGIF(t *testing.T, dir string, frames int) string {
	t.Helper()
	anim := &gif.GIF{Config: image.Config{Width: 4, Height: 3, ColorModel: palette}}
	for i := 0; i < frames; i++ {
		img := image.NewPaletted(image.Rect(0, 0, 4, 3), palette)
		img.SetColorIndex(i%4, 1, 2)
		anim.Image = append(anim.Image, img)
		anim.Delay = append(anim.Delay, 4)
		anim.Disposal = append(anim.Disposal, gif.DisposalNone)
	}
	path := filepath.Join(dir, "clip.gif")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, gif.EncodeAll(f, anim))
	return path
}

func writePNGs(t *testing.T, dir string, names ...string) {
	t.Helper()
	for i, name := range names {
		img := image.NewGray(image.Rect(0, 0, 5, 2))
		img.Pix[0] = uint8(i * 40)
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
	}
}

func TestGIF_Contract(t *testing.T) {
	src, err := decode.OpenGIF(writeGIF(t, t.TempDir(), 5))
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, domain.NewRational(100, 4), src.Info().FrameRate)
	ports.RunFrameSourceContract(t, src, 5)
}

func TestGIF_Compositing(t *testing.T) {
	src, err := decode.OpenGIF(writeGIF(t, t.TempDir(), 2))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = src.Next(ctx)
	require.NoError(t, err)
	second, err := src.Next(ctx)
	require.NoError(t, err)

	// Transparent pixels of the second frame keep the first frame visible.
	assert.Equal(t, byte(0xff), second.Pixel(0, 1)[0])
	assert.Equal(t, byte(0xff), second.Pixel(1, 1)[0])
	assert.Equal(t, byte(0x00), second.Pixel(2, 1)[0])
}

func TestSequence_Contract(t *testing.T) {
	dir := t.TempDir()
	writePNGs(t, dir, "f1.png", "f2.png", "f10.png")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644))

	src, err := decode.OpenSequence(dir, 24)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatGray8, src.Info().Format)
	assert.Equal(t, domain.NewRational(24, 1), src.Info().FrameRate)
	ports.RunFrameSourceContract(t, src, 3)
}

func TestSequence_NaturalOrder(t *testing.T) {
	dir := t.TempDir()
	writePNGs(t, dir, "f1.png", "f2.png", "f10.png")

	src, err := decode.OpenSequence(dir, 0)
	require.NoError(t, err)
	ctx := context.Background()
	var firstPixels []byte
	for i := 0; i < 3; i++ {
		f, err := src.Next(ctx)
		require.NoError(t, err)
		firstPixels = append(firstPixels, f.Pix[0])
	}
	assert.Equal(t, []byte{0, 40, 80}, firstPixels)
}

func TestSequence_Empty(t *testing.T) {
	_, err := decode.OpenSequence(t.TempDir(), 30)
	assert.Error(t, err)
}

func TestOpener_Dispatch(t *testing.T) {
	dir := t.TempDir()
	gifPath := writeGIF(t, dir, 2)
	seqDir := filepath.Join(dir, "seq")
	require.NoError(t, os.Mkdir(seqDir, 0755))
	writePNGs(t, seqDir, "a.png")

	o := decode.NewOpener()
	ctx := context.Background()

	src, err := o.Open(ctx, gifPath)
	require.NoError(t, err)
	assert.IsType(t, &decode.GIF{}, src)

	src, err = o.Open(ctx, seqDir)
	require.NoError(t, err)
	assert.IsType(t, &decode.Sequence{}, src)

	_, err = o.Open(ctx, filepath.Join(dir, "missing.gif"))
	assert.Error(t, err)
}
