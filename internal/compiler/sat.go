package compiler

import "github.com/aretw0/v2df/pkg/domain"

// rect is a half-open region [x0, x1) x [z0, z1) of a grid.
type rect struct {
	x0, z0, x1, z1 int
}

func (r rect) width() int  { return r.x1 - r.x0 }
func (r rect) height() int { return r.z1 - r.z0 }
func (r rect) area() int   { return r.width() * r.height() }

// tables holds summed-area tables of the cell values and of their squares.
// A region is uniform exactly when n*sum(v^2) == sum(v)^2.
type tables struct {
	grid  domain.PixelGrid
	sum   []int64
	sumsq []int64
	w     int // table row length: grid width + 1
}

func newTables(g domain.PixelGrid) *tables {
	w := g.Width + 1
	t := &tables{
		grid:  g,
		sum:   make([]int64, w*(g.Height+1)),
		sumsq: make([]int64, w*(g.Height+1)),
		w:     w,
	}
	for z := 0; z < g.Height; z++ {
		var rowSum, rowSq int64
		for x := 0; x < g.Width; x++ {
			v := int64(g.Cells[z*g.Width+x])
			rowSum += v
			rowSq += v * v
			i := (z+1)*w + x + 1
			t.sum[i] = t.sum[i-w] + rowSum
			t.sumsq[i] = t.sumsq[i-w] + rowSq
		}
	}
	return t
}

func (t *tables) query(tab []int64, r rect) int64 {
	w := t.w
	return tab[r.z1*w+r.x1] - tab[r.z0*w+r.x1] - tab[r.z1*w+r.x0] + tab[r.z0*w+r.x0]
}

func (t *tables) uniform(r rect) bool {
	if r.area() <= 1 {
		return true
	}
	s := t.query(t.sum, r)
	return int64(r.area())*t.query(t.sumsq, r) == s*s
}

func (t *tables) value(r rect) int {
	return int(t.grid.At(r.x0, r.z0))
}
