// Package assembler combines per-frame trees into one expression addressed by
// world position or by frame index.
package assembler

import (
	"fmt"
	"sort"

	"github.com/aretw0/v2df/pkg/domain"
	"github.com/aretw0/v2df/pkg/expr"
)

// FrameTree is a compiled frame owned by its own arena.
type FrameTree struct {
	Index int
	Arena *expr.Arena
	Root  expr.NodeID
}

// Options configures Assemble.
type Options struct {
	FrameStart int
	// OutOfBounds is returned for coordinates no frame covers.
	OutOfBounds int
	// Layout puts frame FrameStart+i on Layout.Cell(i) in world X and Z.
	// Without a layout the root selects frames on the frame axis.
	Layout Layout
	// Width and Height are the frame extent, required with a layout.
	Width  int
	Height int
}

// Grid is the combined expression of a contiguous frame range.
type Grid struct {
	Arena *expr.Arena
	Root  expr.NodeID
	// Frames holds every frame root in frame local coordinates.
	Frames []expr.NodeID
	// Placed holds every frame root moved onto its layout cell.
	// It aliases Frames when the grid has no layout.
	Placed      []expr.NodeID
	Start       int
	OutOfBounds int
	Layout      Layout
	Width       int
	Height      int
}

type cell struct {
	x, z int
	root expr.NodeID
}

// Assemble imports every frame into a shared arena and selects between them.
// With a layout the selection is a balanced search over the cell columns on X,
// then over the cells of a column on Z, and each frame is evaluated on its own
// cell; coordinates outside every cell return opts.OutOfBounds. Without one it
// is a balanced search on the frame axis.
// Frames must be ordered by index, contiguous and start at opts.FrameStart.
func Assemble(frames []FrameTree, opts Options) (*Grid, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no frames to assemble", domain.ErrInvalidFrameRange)
	}
	for i, f := range frames {
		if want := opts.FrameStart + i; f.Index != want {
			return nil, fmt.Errorf("%w: position %d holds frame %d, want %d", domain.ErrNonContiguousFrameRange, i, f.Index, want)
		}
	}
	if opts.Layout != nil && (opts.Width <= 0 || opts.Height <= 0) {
		return nil, fmt.Errorf("%w: frame extent %dx%d", domain.ErrInvalidLayout, opts.Width, opts.Height)
	}

	arena := expr.NewArena()
	g := &Grid{
		Arena:       arena,
		Frames:      make([]expr.NodeID, len(frames)),
		Start:       opts.FrameStart,
		OutOfBounds: opts.OutOfBounds,
		Layout:      opts.Layout,
		Width:       opts.Width,
		Height:      opts.Height,
	}
	for i, f := range frames {
		g.Frames[i] = arena.Import(f.Arena, f.Root)
	}
	oob := arena.Constant(opts.OutOfBounds)

	if opts.Layout == nil {
		g.Placed = g.Frames
		end := g.Start + len(frames)
		inner := arena.Conditional(expr.AxisFrame, end, g.selectRange(0, len(frames)), oob)
		g.Root = arena.Conditional(expr.AxisFrame, g.Start, oob, inner)
		return g, nil
	}

	g.Placed = make([]expr.NodeID, len(frames))
	cells := make([]cell, len(frames))
	for i, f := range frames {
		x, z := opts.Layout.Cell(i)
		g.Placed[i] = arena.ImportOffset(f.Arena, f.Root, x, z)
		cells[i] = cell{x: x, z: z, root: g.Placed[i]}
	}
	columns, err := g.columns(cells)
	if err != nil {
		return nil, err
	}
	g.Root = g.selectColumns(columns, oob)
	return g, nil
}

func (g *Grid) selectRange(lo, hi int) expr.NodeID {
	if hi-lo == 1 {
		return g.Frames[lo]
	}
	mid := (lo + hi) / 2
	return g.Arena.Conditional(expr.AxisFrame, g.Start+mid, g.selectRange(lo, mid), g.selectRange(mid, hi))
}

// columns groups cells sharing an X origin, ordered by X then Z, and checks
// that no two cells overlap.
func (g *Grid) columns(cells []cell) ([][]cell, error) {
	sorted := append([]cell(nil), cells...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].x != sorted[j].x {
			return sorted[i].x < sorted[j].x
		}
		return sorted[i].z < sorted[j].z
	})

	var out [][]cell
	for i, c := range sorted {
		if i > 0 && c.x == sorted[i-1].x {
			if c.z-sorted[i-1].z < g.Height {
				return nil, fmt.Errorf("%w: cells at (%d,%d) and (%d,%d) overlap",
					domain.ErrInvalidLayout, sorted[i-1].x, sorted[i-1].z, c.x, c.z)
			}
			out[len(out)-1] = append(out[len(out)-1], c)
			continue
		}
		if i > 0 && c.x-sorted[i-1].x < g.Width {
			return nil, fmt.Errorf("%w: columns at x=%d and x=%d overlap",
				domain.ErrInvalidLayout, sorted[i-1].x, c.x)
		}
		out = append(out, []cell{c})
	}
	return out, nil
}

func (g *Grid) selectColumns(columns [][]cell, oob expr.NodeID) expr.NodeID {
	if len(columns) == 1 {
		return g.selectCells(columns[0], oob)
	}
	mid := len(columns) / 2
	return g.Arena.Conditional(expr.AxisX, columns[mid][0].x,
		g.selectColumns(columns[:mid], oob), g.selectColumns(columns[mid:], oob))
}

func (g *Grid) selectCells(column []cell, oob expr.NodeID) expr.NodeID {
	if len(column) == 1 {
		return g.guard(column[0], oob)
	}
	mid := len(column) / 2
	return g.Arena.Conditional(expr.AxisZ, column[mid].z,
		g.selectCells(column[:mid], oob), g.selectCells(column[mid:], oob))
}

// guard evaluates c.root inside the cell and oob around it.
func (g *Grid) guard(c cell, oob expr.NodeID) expr.NodeID {
	a := g.Arena
	inZ := a.Conditional(expr.AxisZ, c.z, oob, a.Conditional(expr.AxisZ, c.z+g.Height, c.root, oob))
	return a.Conditional(expr.AxisX, c.x, oob, a.Conditional(expr.AxisX, c.x+g.Width, inZ, oob))
}

// Cell returns the world origin of frame index. Frames of a grid without a layout all sit at the origin.
func (g *Grid) Cell(index int) (x, z int, err error) {
	if index < g.Start || index >= g.End() {
		return 0, 0, fmt.Errorf("%w: %d not in [%d, %d)", domain.ErrFrameOutOfRange, index, g.Start, g.End())
	}
	if g.Layout == nil {
		return 0, 0, nil
	}
	x, z = g.Layout.Cell(index - g.Start)
	return x, z, nil
}

// Len returns the number of frames in the grid.
func (g *Grid) Len() int { return len(g.Frames) }

// End returns the first frame index past the range.
func (g *Grid) End() int { return g.Start + len(g.Frames) }

// Resolve returns the root of frame index inside the grid arena, in frame local coordinates.
func (g *Grid) Resolve(index int) (expr.NodeID, error) {
	if index < g.Start || index >= g.End() {
		return expr.Invalid, fmt.Errorf("%w: %d not in [%d, %d)", domain.ErrFrameOutOfRange, index, g.Start, g.End())
	}
	return g.Frames[index-g.Start], nil
}

// Extract copies frame index into a fresh arena.
func (g *Grid) Extract(index int) (*expr.Arena, expr.NodeID, error) {
	root, err := g.Resolve(index)
	if err != nil {
		return nil, expr.Invalid, err
	}
	arena := expr.NewArena()
	return arena, arena.Import(g.Arena, root), nil
}

// Eval evaluates the combined expression. With a layout only c.X and c.Z are read.
func (g *Grid) Eval(c expr.Coord) int {
	return g.Arena.Eval(g.Root, c)
}

// Share returns the subtrees worth emitting once as separate definitions:
// nodes below the root referenced by more than one parent and spanning at
// least minNodes distinct nodes. Children come before their parents.
func (g *Grid) Share(minNodes int) []expr.NodeID {
	if minNodes < 1 {
		minNodes = 1
	}
	parents := g.Arena.Parents(g.Root)
	var out []expr.NodeID
	for _, id := range g.Arena.Reachable(g.Root) {
		if id == g.Root || parents[id] < 2 {
			continue
		}
		if g.Arena.Node(id).Kind == expr.KindConstant {
			continue
		}
		if spansAtLeast(g.Arena, id, minNodes) {
			out = append(out, id)
		}
	}
	return out
}

func spansAtLeast(a *expr.Arena, root expr.NodeID, n int) bool {
	seen := make(map[expr.NodeID]bool, n)
	stack := []expr.NodeID{root}
	for len(stack) > 0 && len(seen) < n {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		node := a.Node(id)
		switch node.Kind {
		case expr.KindConditional:
			stack = append(stack, node.Then, node.Else)
		case expr.KindReference:
			stack = append(stack, node.Target)
		}
	}
	return len(seen) >= n
}
