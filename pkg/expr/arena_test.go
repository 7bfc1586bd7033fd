package expr_test

import (
	"testing"

	"github.com/aretw0/v2df/pkg/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quadrant builds: x<2 ? (z<2 ? 0 : 1) : 1
func quadrant(a *expr.Arena) expr.NodeID {
	zero, one := a.Constant(0), a.Constant(1)
	left := a.Conditional(expr.AxisZ, 2, zero, one)
	return a.Conditional(expr.AxisX, 2, left, one)
}

func TestArena_HashConsing(t *testing.T) {
	a := expr.NewArena()
	first := quadrant(a)
	n := a.Len()

	second := quadrant(a)
	assert.Equal(t, first, second)
	assert.Equal(t, n, a.Len(), "rebuilding an equal tree must not allocate")
}

func TestArena_ConditionalCollapsesEqualBranches(t *testing.T) {
	a := expr.NewArena()
	one := a.Constant(1)
	assert.Equal(t, one, a.Conditional(expr.AxisX, 5, one, one))
}

func TestArena_Eval(t *testing.T) {
	a := expr.NewArena()
	root := quadrant(a)

	assert.Equal(t, 0, a.Eval(root, expr.Coord{X: 0, Z: 0}))
	assert.Equal(t, 0, a.Eval(root, expr.Coord{X: 1, Z: 1}))
	assert.Equal(t, 1, a.Eval(root, expr.Coord{X: 1, Z: 2}))
	assert.Equal(t, 1, a.Eval(root, expr.Coord{X: 2, Z: 0}))

	// Conditionals partition the whole integer axis.
	assert.Equal(t, 0, a.Eval(root, expr.Coord{X: -100, Z: -100}))
	assert.Equal(t, 1, a.Eval(root, expr.Coord{X: 1 << 30, Z: 0}))
}

func TestArena_Reference(t *testing.T) {
	a := expr.NewArena()
	root := quadrant(a)
	ref := a.Reference(root)
	assert.Equal(t, a.Eval(root, expr.Coord{X: 3}), a.Eval(ref, expr.Coord{X: 3}))
	assert.Equal(t, expr.KindReference, a.Node(ref).Kind)
}

func TestArena_ImportAndEqual(t *testing.T) {
	src := expr.NewArena()
	root := quadrant(src)

	dst := expr.NewArena()
	dst.Constant(42)
	imported := dst.Import(src, root)

	assert.True(t, expr.Equal(src, root, dst, imported))
	assert.False(t, expr.Equal(src, root, dst, dst.Constant(42)))
	require.NoError(t, dst.Validate(imported))
}

func TestArena_ImportOffset(t *testing.T) {
	src := expr.NewArena()
	inner := src.Conditional(expr.AxisFrame, 3, src.Constant(7), quadrant(src))
	root := src.Reference(inner)

	dst := expr.NewArena()
	moved := dst.ImportOffset(src, root, 40, -12)
	require.NoError(t, dst.Validate(moved))
	for _, frame := range []int{0, 5} {
		for z := -3; z < 6; z++ {
			for x := -3; x < 6; x++ {
				want := src.Eval(root, expr.Coord{X: x, Z: z, Frame: frame})
				got := dst.Eval(moved, expr.Coord{X: x + 40, Z: z - 12, Frame: frame})
				require.Equal(t, want, got, "(%d,%d) frame %d", x, z, frame)
			}
		}
	}

	// Shifting within one arena keeps the original tree intact.
	same := src.ImportOffset(src, root, 2, 2)
	assert.NotEqual(t, root, same)
	assert.Equal(t, root, src.ImportOffset(src, root, 0, 0))
	assert.Equal(t, src.Eval(root, expr.Coord{X: 1, Z: 1}), src.Eval(same, expr.Coord{X: 3, Z: 3}))
}

func TestArena_Measure(t *testing.T) {
	a := expr.NewArena()
	root := quadrant(a)

	s := a.Measure(root)
	assert.Equal(t, 4, s.Distinct)
	assert.Equal(t, int64(5), s.Size)
	assert.Equal(t, int64(3), s.Leaves)
	assert.Equal(t, 3, s.Depth)
}

func TestArena_Parents(t *testing.T) {
	a := expr.NewArena()
	root := quadrant(a)
	parents := a.Parents(root)
	assert.Equal(t, 2, parents[a.Constant(1)])
	assert.Equal(t, 1, parents[a.Constant(0)])
	assert.Zero(t, parents[root])
}

func TestArena_MarshalUnmarshal(t *testing.T) {
	src := expr.NewArena()
	root := src.Reference(quadrant(src))
	payload := src.Marshal(root)

	dst := expr.NewArena()
	got, err := dst.Unmarshal(payload)
	require.NoError(t, err)
	assert.True(t, expr.Equal(src, root, dst, got))
}

func TestArena_UnmarshalRejectsCorruptInput(t *testing.T) {
	a := expr.NewArena()
	payload := a.Marshal(quadrant(a))

	cases := map[string][]byte{
		"empty":     nil,
		"bad magic": append([]byte("XXXX"), payload[4:]...),
		"truncated": payload[:len(payload)-1],
		"trailing":  append(append([]byte{}, payload...), 0),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := expr.NewArena().Unmarshal(data)
			assert.ErrorIs(t, err, expr.ErrCorrupt)
		})
	}
}

func TestParseAxis(t *testing.T) {
	for _, axis := range []expr.Axis{expr.AxisX, expr.AxisZ, expr.AxisFrame} {
		got, err := expr.ParseAxis(axis.String())
		require.NoError(t, err)
		assert.Equal(t, axis, got)
	}
	_, err := expr.ParseAxis("y")
	assert.Error(t, err)
}
