// Package sdf computes the Chebyshev distance gradient used by the tessellation frame encoding.
package sdf

import (
	"math"

	"github.com/aretw0/v2df/pkg/domain"
)

// Gradient returns one byte per cell of g. Cells with a value above cut map to
// 128..255 growing with their distance to the nearest cell at or below cut;
// the other cells map to 0..127 growing as they approach the nearest cell above cut.
func Gradient(g domain.PixelGrid, cut uint8) []byte {
	above := distances(g, func(v uint8) bool { return v > cut })
	below := distances(g, func(v uint8) bool { return v <= cut })
	aboveMax, belowMax := maxOf(above), maxOf(below)

	out := make([]byte, len(g.Cells))
	for i := range out {
		b := 128 + scale(below[i], belowMax)
		if b == 128 {
			out[i] = 127 - scale(above[i], aboveMax)
		} else {
			out[i] = b
		}
	}
	return out
}

func scale(d, max int) uint8 {
	if max == 0 {
		return 0
	}
	v := math.Round(float64(d) / float64(max) * 127)
	return uint8(math.Min(math.Max(v, 0), 127))
}

func maxOf(ds []int) int {
	m := 0
	for _, d := range ds {
		m = max(m, d)
	}
	return m
}

// distances is a two pass chamfer transform with unit cost on all eight neighbours,
// which yields the exact Chebyshev distance to the nearest seed cell.
func distances(g domain.PixelGrid, seed func(uint8) bool) []int {
	w, h := g.Width, g.Height
	far := w + h
	d := make([]int, w*h)
	for i, v := range g.Cells {
		if seed(v) {
			d[i] = 0
		} else {
			d[i] = far
		}
	}

	relax := func(i, j int) {
		if d[j]+1 < d[i] {
			d[i] = d[j] + 1
		}
	}
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			i := z*w + x
			if x > 0 {
				relax(i, i-1)
			}
			if z > 0 {
				relax(i, i-w)
				if x > 0 {
					relax(i, i-w-1)
				}
				if x < w-1 {
					relax(i, i-w+1)
				}
			}
		}
	}
	for z := h - 1; z >= 0; z-- {
		for x := w - 1; x >= 0; x-- {
			i := z*w + x
			if x < w-1 {
				relax(i, i+1)
			}
			if z < h-1 {
				relax(i, i+w)
				if x < w-1 {
					relax(i, i+w+1)
				}
				if x > 0 {
					relax(i, i+w-1)
				}
			}
		}
	}
	return d
}
