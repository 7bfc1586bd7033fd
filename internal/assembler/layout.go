package assembler

import (
	"fmt"
	"math"

	"github.com/aretw0/v2df/pkg/domain"
)

// Layout places frame cells in the world. Cell returns the origin corner
// of the cell holding the frame at offset i from the first rendered frame.
// Cells of distinct frames must not overlap.
type Layout interface {
	Name() string
	Cell(i int) (x, z int)
}

// NewLayout returns the named layout for frames of width by height cells.
func NewLayout(name string, width, height, spacing int) (Layout, error) {
	switch name {
	case "", domain.LayoutStrip:
		return Strip{Width: width, Spacing: spacing}, nil
	case domain.LayoutSpiral:
		return Spiral{Width: width, Height: height}, nil
	}
	return nil, fmt.Errorf("unknown layout %q", name)
}

// Strip lines frames up along +X separated by Spacing cells.
type Strip struct {
	Width   int
	Spacing int
}

func (Strip) Name() string { return domain.LayoutStrip }

func (s Strip) Cell(i int) (int, int) {
	return i * (s.Width + s.Spacing), 0
}

// Spiral winds frames outward on a square spiral with a stride of twice the frame extent.
type Spiral struct {
	Width  int
	Height int
}

func (Spiral) Name() string { return domain.LayoutSpiral }

func (s Spiral) Cell(i int) (int, int) {
	x, z := SpiralCoords(i)
	return x * 2 * s.Width, z * 2 * s.Height
}

// SpiralCoords maps n to its ring coordinates on a square spiral starting at the origin
// and walking counter clockwise from the right side of each ring.
func SpiralCoords(n int) (int, int) {
	if n <= 0 {
		return 0, 0
	}
	layer := int(math.Floor((math.Sqrt(float64(n))-1)/2)) + 1
	start := (2*layer - 1) * (2*layer - 1)
	pos := n - start
	side := 2 * layer

	switch {
	case pos < side:
		return layer, -layer + 1 + pos
	case pos < 2*side:
		return layer - 1 - (pos - side), layer
	case pos < 3*side:
		return -layer, layer - 1 - (pos - 2*side)
	default:
		return -layer + 1 + (pos - 3*side), -layer
	}
}
