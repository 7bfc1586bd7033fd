package traversal_test

import (
	"testing"

	"github.com/aretw0/v2df/internal/assembler"
	"github.com/aretw0/v2df/internal/compiler"
	"github.com/aretw0/v2df/internal/traversal"
	"github.com/aretw0/v2df/pkg/domain"
	"github.com/aretw0/v2df/pkg/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_ThirtyFPSAtTwentyTicks(t *testing.T) {
	const n = 3000
	script, err := traversal.Generate(traversal.Options{
		FrameStart:     4,
		FrameCount:     n,
		FrameRate:      domain.NewRational(30, 1),
		TickRate:       20,
		DriftTolerance: 1,
		Width:          10,
		Height:         10,
		Y:              220,
	})
	require.NoError(t, err)
	require.Len(t, script.Steps, n)

	for i, step := range script.Steps {
		assert.Equal(t, 4+i, step.FrameIndex)
		// Real time of frame i is i*20/30 ticks; the script may lag by less than one tick.
		ideal := float64(i) * 20 / 30
		lag := ideal - float64(step.Elapsed)
		require.True(t, lag >= -1e-9 && lag < 1, "frame %d lags %.3f ticks", i, lag)
	}
	assert.Less(t, script.MaxDrift, 1.0)

	last := script.Steps[n-1]
	assert.Equal(t, int64(n*20/30), last.Elapsed+last.Delay)
}

func TestGenerate_NTSC(t *testing.T) {
	script, err := traversal.Generate(traversal.Options{
		FrameCount:     10000,
		FrameRate:      domain.NewRational(30000, 1001),
		TickRate:       20,
		DriftTolerance: 1,
		Width:          4,
	})
	require.NoError(t, err)
	last := script.Steps[len(script.Steps)-1]
	// 10000 frames at 29.97 fps are 333.667 s, i.e. 6673 whole ticks.
	assert.Equal(t, int64(6673), last.Elapsed+last.Delay)
}

func TestGenerate_Positions(t *testing.T) {
	script, err := traversal.Generate(traversal.Options{
		FrameCount:     3,
		FrameRate:      domain.NewRational(20, 1),
		TickRate:       20,
		DriftTolerance: 1,
		Layout:         assembler.Strip{Width: 10, Spacing: 6},
		Width:          10,
		Height:         8,
		Y:              220,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Position{X: 5, Y: 220, Z: 4}, script.Steps[0].Position)
	assert.Equal(t, domain.Position{X: 21, Y: 220, Z: 4}, script.Steps[1].Position)
	for _, s := range script.Steps {
		assert.Equal(t, int64(1), s.Delay)
	}
}

// halves returns a 4x4 frame lit on its left half, or on its right half when right is set.
func halves(right bool) domain.PixelGrid {
	g := domain.NewPixelGrid(4, 4, 0)
	for z := 0; z < 4; z++ {
		for x := 0; x < 4; x++ {
			if (x >= 2) == right {
				g.Cells[z*4+x] = 1
			}
		}
	}
	return g
}

func TestGenerate_ObserverStandsOnItsFrame(t *testing.T) {
	const w, h = 4, 4
	var grids []domain.PixelGrid
	for i := 0; i < 6; i++ {
		grids = append(grids, halves(i%2 == 1))
	}

	for _, layout := range []assembler.Layout{
		assembler.Strip{Width: w, Spacing: 16},
		assembler.Spiral{Width: w, Height: h},
	} {
		t.Run(layout.Name(), func(t *testing.T) {
			trees := make([]assembler.FrameTree, len(grids))
			for i, g := range grids {
				arena, root, err := compiler.CompileFrame(g)
				require.NoError(t, err)
				trees[i] = assembler.FrameTree{Index: 2 + i, Arena: arena, Root: root}
			}
			grid, err := assembler.Assemble(trees, assembler.Options{
				FrameStart: 2, OutOfBounds: 256, Layout: layout, Width: w, Height: h,
			})
			require.NoError(t, err)

			script, err := traversal.Generate(traversal.Options{
				FrameStart:     2,
				FrameCount:     len(grids),
				FrameRate:      domain.NewRational(20, 1),
				TickRate:       20,
				DriftTolerance: 1,
				Layout:         layout,
				Width:          w,
				Height:         h,
				Y:              220,
			})
			require.NoError(t, err)

			for _, step := range script.Steps {
				want := grids[step.FrameIndex-2]
				ox, oz := step.Position.X-w/2, step.Position.Z-h/2
				for z := 0; z < h; z++ {
					for x := 0; x < w; x++ {
						got := grid.Eval(expr.Coord{X: ox + x, Z: oz + z})
						require.Equal(t, int(want.At(x, z)), got,
							"frame %d seen from %+v at local (%d,%d)", step.FrameIndex, step.Position, x, z)
					}
				}
			}
		})
	}
}

func TestGenerate_UnsupportedFrameRate(t *testing.T) {
	base := traversal.Options{FrameCount: 10, TickRate: 20, DriftTolerance: 1}

	opts := base
	opts.FrameRate = domain.NewRational(0, 1)
	_, err := traversal.Generate(opts)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFrameRate)

	opts = base
	opts.FrameRate = domain.NewRational(30, 1)
	opts.TickRate = 0
	_, err = traversal.Generate(opts)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFrameRate)

	// 30 fps leaves a 2/3 tick remainder, more than a strict tolerance allows.
	opts = base
	opts.FrameRate = domain.NewRational(30, 1)
	opts.DriftTolerance = 0.5
	_, err = traversal.Generate(opts)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFrameRate)

	// 10 fps is exactly two ticks per frame.
	opts = base
	opts.FrameRate = domain.NewRational(10, 1)
	opts.DriftTolerance = 0
	_, err = traversal.Generate(opts)
	assert.NoError(t, err)
}

func TestRender(t *testing.T) {
	script, err := traversal.Generate(traversal.Options{
		FrameStart:     1,
		FrameCount:     3,
		FrameRate:      domain.NewRational(30, 1),
		TickRate:       20,
		DriftTolerance: 1,
		Width:          2,
		Height:         2,
		Y:              220,
	})
	require.NoError(t, err)

	first := traversal.Render(script, 0, "video", "./frame_tp")
	assert.Contains(t, first, "tp @a 1 220 1 180 90\n")
	assert.Contains(t, first, "function video:frame_tp/2\n", "zero delay chains immediately")
	assert.NotContains(t, first, "schedule")

	second := traversal.Render(script, 1, "video", "./frame_tp")
	assert.Contains(t, second, "schedule function video:frame_tp/3 1t\n")

	last := traversal.Render(script, 2, "video", "./frame_tp")
	assert.NotContains(t, last, "function video:")
}

func TestFunctionPath(t *testing.T) {
	assert.Equal(t, "frame_tp/3", traversal.FunctionPath("./frame_tp", 3))
	assert.Equal(t, "a/b/3", traversal.FunctionPath("a/b/", 3))
	assert.Equal(t, "3", traversal.FunctionPath(".", 3))
}
