package domain

import "fmt"

// PixelGrid is a normalized frame.
// Cells are stored row major: the cell at column x and row z is Cells[z*Width+x].
// Grids are treated as immutable once produced; every transformation returns a new grid.
type PixelGrid struct {
	Width  int
	Height int
	Cells  []uint8
}

// NewPixelGrid allocates a grid filled with value.
func NewPixelGrid(width, height int, value uint8) PixelGrid {
	cells := make([]uint8, width*height)
	if value != 0 {
		for i := range cells {
			cells[i] = value
		}
	}
	return PixelGrid{Width: width, Height: height, Cells: cells}
}

// At returns the value at column x, row z. The caller must stay in bounds.
func (g PixelGrid) At(x, z int) uint8 {
	return g.Cells[z*g.Width+x]
}

// InBounds reports whether (x, z) lies inside the grid.
func (g PixelGrid) InBounds(x, z int) bool {
	return x >= 0 && z >= 0 && x < g.Width && z < g.Height
}

// Validate checks the cell buffer matches the declared dimensions.
func (g PixelGrid) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("grid has empty extent %dx%d", g.Width, g.Height)
	}
	if len(g.Cells) != g.Width*g.Height {
		return fmt.Errorf("grid buffer holds %d cells, want %d", len(g.Cells), g.Width*g.Height)
	}
	return nil
}

// Border is the uniform padding applied around every frame of a project.
type Border struct {
	Width int
	Value uint8
}

// WithBorder returns a copy of the grid padded by b on all four sides.
// Border cells hold b.Value; the interior is copied unchanged.
func (g PixelGrid) WithBorder(b Border) PixelGrid {
	if b.Width <= 0 {
		cells := make([]uint8, len(g.Cells))
		copy(cells, g.Cells)
		return PixelGrid{Width: g.Width, Height: g.Height, Cells: cells}
	}

	out := NewPixelGrid(g.Width+2*b.Width, g.Height+2*b.Width, b.Value)
	for z := 0; z < g.Height; z++ {
		src := g.Cells[z*g.Width : (z+1)*g.Width]
		dst := (z+b.Width)*out.Width + b.Width
		copy(out.Cells[dst:dst+g.Width], src)
	}
	return out
}
