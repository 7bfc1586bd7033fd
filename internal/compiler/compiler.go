// Package compiler turns pixel grids into expression trees.
//
// A region is split greedily: among the longest uniform strips that can be
// peeled off either end of either axis, the one covering the most cells is
// emitted as a constant and the remainder is compiled recursively. Regions
// without any uniform edge strip are bisected along their longer side.
package compiler

import (
	"fmt"

	"github.com/aretw0/v2df/pkg/domain"
	"github.com/aretw0/v2df/pkg/expr"
)

// Compile builds the tree of g inside arena and returns its root.
// Evaluating the root at any in-bounds (x, z) yields g.At(x, z).
func Compile(g domain.PixelGrid, arena *expr.Arena) (expr.NodeID, error) {
	if err := g.Validate(); err != nil {
		return expr.Invalid, fmt.Errorf("compile: %w", err)
	}
	c := &compiler{t: newTables(g), arena: arena}
	return c.compile(rect{0, 0, g.Width, g.Height}), nil
}

// CompileFrame compiles g into a fresh arena.
func CompileFrame(g domain.PixelGrid) (*expr.Arena, expr.NodeID, error) {
	arena := expr.NewArena()
	root, err := Compile(g, arena)
	if err != nil {
		return nil, expr.Invalid, err
	}
	return arena, root, nil
}

type compiler struct {
	t     *tables
	arena *expr.Arena
}

// side identifies where a strip is peeled from. The declaration order is the tie-break order.
type side int

const (
	xLeading side = iota
	xTrailing
	zLeading
	zTrailing
)

type split struct {
	side  side
	depth int // strip thickness along the split axis
	area  int
	at    int // split coordinate
	skew  int // twice the distance from the split to the region midpoint
}

func (c *compiler) compile(r rect) expr.NodeID {
	if c.t.uniform(r) {
		return c.arena.Constant(c.t.value(r))
	}

	best, ok := c.bestSplit(r)
	if !ok {
		return c.bisect(r)
	}

	switch best.side {
	case xLeading, xTrailing:
		lo := rect{r.x0, r.z0, best.at, r.z1}
		hi := rect{best.at, r.z0, r.x1, r.z1}
		return c.arena.Conditional(expr.AxisX, best.at, c.compile(lo), c.compile(hi))
	default:
		lo := rect{r.x0, r.z0, r.x1, best.at}
		hi := rect{r.x0, best.at, r.x1, r.z1}
		return c.arena.Conditional(expr.AxisZ, best.at, c.compile(lo), c.compile(hi))
	}
}

func (c *compiler) bisect(r rect) expr.NodeID {
	if r.width() >= r.height() {
		mid := r.x0 + r.width()/2
		return c.arena.Conditional(expr.AxisX, mid,
			c.compile(rect{r.x0, r.z0, mid, r.z1}),
			c.compile(rect{mid, r.z0, r.x1, r.z1}))
	}
	mid := r.z0 + r.height()/2
	return c.arena.Conditional(expr.AxisZ, mid,
		c.compile(rect{r.x0, r.z0, r.x1, mid}),
		c.compile(rect{r.x0, mid, r.x1, r.z1}))
}

func (c *compiler) bestSplit(r rect) (split, bool) {
	candidates := [...]split{
		c.measure(r, xLeading),
		c.measure(r, xTrailing),
		c.measure(r, zLeading),
		c.measure(r, zTrailing),
	}
	var best split
	found := false
	for _, s := range candidates {
		if s.depth == 0 {
			continue
		}
		if !found || s.area > best.area || (s.area == best.area && s.skew < best.skew) {
			best, found = s, true
		}
	}
	return best, found
}

// measure finds the thickest uniform strip on one side of r by binary search.
// Uniformity is monotone in the thickness, and a non-uniform r never admits the full extent.
func (c *compiler) measure(r rect, s side) split {
	extent := r.width()
	if s == zLeading || s == zTrailing {
		extent = r.height()
	}
	strip := func(k int) rect {
		switch s {
		case xLeading:
			return rect{r.x0, r.z0, r.x0 + k, r.z1}
		case xTrailing:
			return rect{r.x1 - k, r.z0, r.x1, r.z1}
		case zLeading:
			return rect{r.x0, r.z0, r.x1, r.z0 + k}
		default:
			return rect{r.x0, r.z1 - k, r.x1, r.z1}
		}
	}

	lo, hi := 0, extent-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if c.t.uniform(strip(mid)) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	out := split{side: s, depth: lo}
	if lo == 0 {
		return out
	}
	var from, to int
	switch s {
	case xLeading:
		out.at, from, to = r.x0+lo, r.x0, r.x1
	case xTrailing:
		out.at, from, to = r.x1-lo, r.x0, r.x1
	case zLeading:
		out.at, from, to = r.z0+lo, r.z0, r.z1
	default:
		out.at, from, to = r.z1-lo, r.z0, r.z1
	}
	out.area = strip(lo).area()
	out.skew = abs(2*out.at - from - to)
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
