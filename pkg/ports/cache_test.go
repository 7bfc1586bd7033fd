package ports_test

import (
	"testing"

	"github.com/aretw0/v2df/pkg/domain"
	"github.com/aretw0/v2df/pkg/ports"
	"github.com/stretchr/testify/assert"
)

func TestGridKey(t *testing.T) {
	a := domain.PixelGrid{Width: 2, Height: 1, Cells: []uint8{0, 1}}
	b := domain.PixelGrid{Width: 1, Height: 2, Cells: []uint8{0, 1}}

	assert.Equal(t, ports.GridKey(a), ports.GridKey(a))
	assert.NotEqual(t, ports.GridKey(a), ports.GridKey(b), "dimensions are part of the key")
	assert.Len(t, ports.GridKey(a), 64)
}
