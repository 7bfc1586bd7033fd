package sdf

import (
	"testing"

	"github.com/aretw0/v2df/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestDistances_Chebyshev(t *testing.T) {
	g := domain.NewPixelGrid(5, 5, 0)
	g.Cells[2*5+2] = 1

	d := distances(g, func(v uint8) bool { return v > 0 })
	assert.Equal(t, 0, d[2*5+2])
	assert.Equal(t, 1, d[1*5+1], "diagonal neighbour")
	assert.Equal(t, 2, d[0], "corner")
	assert.Equal(t, 2, d[0*5+3])
}

func TestGradient_SplitsAtCut(t *testing.T) {
	g := domain.NewPixelGrid(6, 1, 0)
	g.Cells[3], g.Cells[4], g.Cells[5] = 1, 1, 1

	out := Gradient(g, 0)
	for x := 0; x < 3; x++ {
		assert.LessOrEqual(t, out[x], uint8(127), "dark cell %d", x)
	}
	for x := 3; x < 6; x++ {
		assert.GreaterOrEqual(t, out[x], uint8(127), "bright cell %d", x)
	}
	assert.Equal(t, uint8(255), out[5], "farthest bright cell")
	assert.Equal(t, uint8(0), out[0], "farthest dark cell")
	assert.Less(t, out[0], out[1])
	assert.Less(t, out[1], out[2])
}

func TestGradient_Uniform(t *testing.T) {
	for _, v := range Gradient(domain.NewPixelGrid(3, 3, 0), 0) {
		assert.Equal(t, uint8(0), v, "no bright cell anywhere")
	}
	for _, v := range Gradient(domain.NewPixelGrid(3, 3, 1), 0) {
		assert.Equal(t, uint8(255), v, "no dark cell anywhere")
	}
}
