package assembler_test

import (
	"math/rand"
	"testing"

	"github.com/aretw0/v2df/internal/assembler"
	"github.com/aretw0/v2df/internal/compiler"
	"github.com/aretw0/v2df/pkg/domain"
	"github.com/aretw0/v2df/pkg/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frames(t *testing.T, start int, grids ...domain.PixelGrid) []assembler.FrameTree {
	t.Helper()
	out := make([]assembler.FrameTree, len(grids))
	for i, g := range grids {
		arena, root, err := compiler.CompileFrame(g)
		require.NoError(t, err)
		out[i] = assembler.FrameTree{Index: start + i, Arena: arena, Root: root}
	}
	return out
}

func noise(seed int64, w, h int) domain.PixelGrid {
	rng := rand.New(rand.NewSource(seed))
	g := domain.NewPixelGrid(w, h, 0)
	for i := range g.Cells {
		g.Cells[i] = uint8(rng.Intn(2))
	}
	return g.WithBorder(domain.Border{Width: 1, Value: 1})
}

func TestAssemble_Addressing(t *testing.T) {
	var grids []domain.PixelGrid
	for i := 0; i < 7; i++ {
		grids = append(grids, noise(int64(i), 6, 4))
	}
	g, err := assembler.Assemble(frames(t, 10, grids...), assembler.Options{FrameStart: 10, OutOfBounds: 256})
	require.NoError(t, err)
	require.NoError(t, g.Arena.Validate(g.Root))

	for i, want := range grids {
		for z := 0; z < want.Height; z++ {
			for x := 0; x < want.Width; x++ {
				c := expr.Coord{X: x, Z: z, Frame: 10 + i}
				require.Equal(t, int(want.At(x, z)), g.Eval(c), "frame %d (%d,%d)", 10+i, x, z)
			}
		}
	}

	assert.Equal(t, 256, g.Eval(expr.Coord{Frame: 9}))
	assert.Equal(t, 256, g.Eval(expr.Coord{Frame: 17}))
	assert.Equal(t, 256, g.Eval(expr.Coord{Frame: -1 << 20}))
}

func TestAssemble_NonContiguous(t *testing.T) {
	trees := frames(t, 5, noise(1, 2, 2), noise(2, 2, 2), noise(3, 2, 2))
	trees[2].Index = 8

	_, err := assembler.Assemble(trees, assembler.Options{FrameStart: 5})
	assert.ErrorIs(t, err, domain.ErrNonContiguousFrameRange)
}

func TestAssemble_WrongStart(t *testing.T) {
	_, err := assembler.Assemble(frames(t, 1, noise(1, 2, 2)), assembler.Options{FrameStart: 0})
	assert.ErrorIs(t, err, domain.ErrNonContiguousFrameRange)
}

func TestAssemble_Empty(t *testing.T) {
	_, err := assembler.Assemble(nil, assembler.Options{})
	assert.ErrorIs(t, err, domain.ErrInvalidFrameRange)
}

func TestAssemble_LayoutPlacesFramesOnCells(t *testing.T) {
	const w, h = 6, 5
	layouts := map[string]assembler.Layout{
		"strip":  assembler.Strip{Width: w, Spacing: 3},
		"spiral": assembler.Spiral{Width: w, Height: h},
	}
	var grids []domain.PixelGrid
	for i := 0; i < 11; i++ {
		grids = append(grids, noise(int64(i), w-2, h-2))
	}

	for name, layout := range layouts {
		t.Run(name, func(t *testing.T) {
			g, err := assembler.Assemble(frames(t, 4, grids...), assembler.Options{
				FrameStart: 4, OutOfBounds: 256, Layout: layout, Width: w, Height: h,
			})
			require.NoError(t, err)
			require.NoError(t, g.Arena.Validate(g.Root))

			covered := map[[2]int]bool{}
			for i, want := range grids {
				ox, oz, err := g.Cell(4 + i)
				require.NoError(t, err)
				for z := 0; z < h; z++ {
					for x := 0; x < w; x++ {
						covered[[2]int{ox + x, oz + z}] = true
						got := g.Eval(expr.Coord{X: ox + x, Z: oz + z})
						require.Equal(t, int(want.At(x, z)), got, "frame %d local (%d,%d)", 4+i, x, z)
					}
				}
			}

			// Everything around and between the cells is out of bounds.
			for z := -3 * h; z < 3*h; z++ {
				for x := -3 * w; x < 12*(w+3); x++ {
					if !covered[[2]int{x, z}] {
						require.Equal(t, 256, g.Eval(expr.Coord{X: x, Z: z}), "(%d,%d)", x, z)
					}
				}
			}

			_, _, err = g.Cell(15)
			assert.ErrorIs(t, err, domain.ErrFrameOutOfRange)
		})
	}
}

func TestAssemble_LayoutExtractStaysLocal(t *testing.T) {
	grids := []domain.PixelGrid{noise(1, 4, 4), noise(2, 4, 4)}
	g, err := assembler.Assemble(frames(t, 0, grids...), assembler.Options{
		OutOfBounds: 256, Layout: assembler.Strip{Width: 6, Spacing: 2}, Width: 6, Height: 6,
	})
	require.NoError(t, err)

	arena, root, err := g.Extract(1)
	require.NoError(t, err)
	single, singleRoot, err := compiler.CompileFrame(grids[1])
	require.NoError(t, err)
	assert.True(t, expr.Equal(single, singleRoot, arena, root))
	assert.NotEqual(t, g.Frames[1], g.Placed[1])
	assert.Equal(t, g.Frames[0], g.Placed[0], "first cell sits at the origin")
}

func TestAssemble_InvalidLayout(t *testing.T) {
	trees := frames(t, 0, noise(1, 4, 4), noise(2, 4, 4))

	_, err := assembler.Assemble(trees, assembler.Options{Layout: assembler.Strip{Width: 3}, Width: 6, Height: 6})
	assert.ErrorIs(t, err, domain.ErrInvalidLayout)

	_, err = assembler.Assemble(trees, assembler.Options{Layout: assembler.Strip{Width: 6}})
	assert.ErrorIs(t, err, domain.ErrInvalidLayout)
}

func TestGrid_ResolveAndExtract(t *testing.T) {
	grids := []domain.PixelGrid{noise(1, 5, 5), noise(2, 5, 5), noise(3, 5, 5)}
	g, err := assembler.Assemble(frames(t, 0, grids...), assembler.Options{OutOfBounds: 256})
	require.NoError(t, err)

	_, err = g.Resolve(3)
	assert.ErrorIs(t, err, domain.ErrFrameOutOfRange)
	_, err = g.Resolve(-1)
	assert.ErrorIs(t, err, domain.ErrFrameOutOfRange)

	arena, root, err := g.Extract(1)
	require.NoError(t, err)
	single, singleRoot, err := compiler.CompileFrame(grids[1])
	require.NoError(t, err)
	assert.True(t, expr.Equal(single, singleRoot, arena, root))
	assert.Equal(t, single.Marshal(singleRoot), arena.Marshal(root))
}

func TestAssemble_DeduplicatesRepeatedFrames(t *testing.T) {
	a, b := noise(1, 8, 8), noise(2, 8, 8)
	g, err := assembler.Assemble(frames(t, 0, a, a, b, b), assembler.Options{OutOfBounds: 256})
	require.NoError(t, err)

	assert.Equal(t, g.Frames[0], g.Frames[1])
	assert.Equal(t, g.Frames[2], g.Frames[3])
}

func TestGrid_Share(t *testing.T) {
	a, b := noise(1, 8, 8), noise(2, 8, 8)
	g, err := assembler.Assemble(frames(t, 0, a, b, a), assembler.Options{OutOfBounds: 256})
	require.NoError(t, err)

	shared := g.Share(4)
	assert.Contains(t, shared, g.Frames[0], "frame reused by two selection branches")
	for _, id := range shared {
		assert.NotEqual(t, expr.KindConstant, g.Arena.Node(id).Kind)
		assert.NotEqual(t, g.Root, id)
	}
	assert.Empty(t, g.Share(1<<20))
}

func TestSpiralCoords(t *testing.T) {
	want := [][2]int{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}, {2, -1}}
	seen := map[[2]int]bool{}
	for n, w := range want {
		x, z := assembler.SpiralCoords(n)
		assert.Equal(t, w, [2]int{x, z}, "n=%d", n)
		seen[[2]int{x, z}] = true
	}
	for n := 10; n < 200; n++ {
		x, z := assembler.SpiralCoords(n)
		assert.False(t, seen[[2]int{x, z}], "n=%d revisits a cell", n)
		seen[[2]int{x, z}] = true
	}
}

func TestNewLayout(t *testing.T) {
	l, err := assembler.NewLayout("", 10, 6, 4)
	require.NoError(t, err)
	x, z := l.Cell(3)
	assert.Equal(t, 42, x)
	assert.Equal(t, 0, z)

	l, err = assembler.NewLayout(domain.LayoutSpiral, 10, 6, 4)
	require.NoError(t, err)
	x, z = l.Cell(2)
	assert.Equal(t, 20, x)
	assert.Equal(t, 12, z)

	_, err = assembler.NewLayout("hex", 1, 1, 0)
	assert.Error(t, err)
}
