package domain_test

import (
	"context"
	"testing"

	"github.com/aretw0/v2df/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPixelGrid_WithBorder(t *testing.T) {
	g := domain.PixelGrid{Width: 2, Height: 1, Cells: []uint8{0, 0}}
	out := g.WithBorder(domain.Border{Width: 2, Value: 1})

	require.NoError(t, out.Validate())
	assert.Equal(t, 6, out.Width)
	assert.Equal(t, 5, out.Height)

	for z := 0; z < out.Height; z++ {
		for x := 0; x < out.Width; x++ {
			inside := x >= 2 && x < 4 && z == 2
			if inside {
				assert.Equal(t, uint8(0), out.At(x, z), "interior (%d,%d)", x, z)
			} else {
				assert.Equal(t, uint8(1), out.At(x, z), "border (%d,%d)", x, z)
			}
		}
	}
}

func TestPixelGrid_WithBorder_ZeroWidthCopies(t *testing.T) {
	g := domain.PixelGrid{Width: 1, Height: 1, Cells: []uint8{1}}
	out := g.WithBorder(domain.Border{})
	out.Cells[0] = 0
	assert.Equal(t, uint8(1), g.Cells[0], "source grid must not be aliased")
}

func TestPixelGrid_Validate(t *testing.T) {
	assert.Error(t, domain.PixelGrid{}.Validate())
	assert.Error(t, domain.PixelGrid{Width: 2, Height: 2, Cells: []uint8{0}}.Validate())
	assert.NoError(t, domain.NewPixelGrid(2, 2, 1).Validate())
}

func TestRationalFromFloat(t *testing.T) {
	assert.Equal(t, domain.Rational{Num: 30, Den: 1}, domain.RationalFromFloat(30))
	assert.Equal(t, domain.Rational{Num: 30000, Den: 1001}, domain.RationalFromFloat(29.97))
	assert.Equal(t, domain.Rational{Num: 24000, Den: 1001}, domain.RationalFromFloat(23.976))
	assert.Equal(t, domain.Rational{Num: 12500, Den: 1000}, domain.RationalFromFloat(12.5))
	assert.Equal(t, int64(0), domain.RationalFromFloat(-1).Num)
}

func TestFrameError_Unwrap(t *testing.T) {
	err := domain.NewFrameError(7, domain.StageNormalize, domain.ErrInvalidPixelFormat)
	assert.ErrorIs(t, err, domain.ErrInvalidPixelFormat)
	assert.Contains(t, err.Error(), "frame 7")

	err.X, err.Y = 3, 4
	assert.Contains(t, err.Error(), "(3, 4)")
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnArtifact: func(_ context.Context, _ *domain.ArtifactEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{OnArtifact: func(_ context.Context, _ *domain.ArtifactEvent) { calls = append(calls, "b") }}

	merged := a.Merge(b)
	merged.OnArtifact(context.Background(), &domain.ArtifactEvent{})
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Nil(t, merged.OnFrameCompiled)
}
