// Package traversal maps the frame range onto observer movement over host ticks.
package traversal

import (
	"fmt"

	"github.com/aretw0/v2df/internal/assembler"
	"github.com/aretw0/v2df/pkg/domain"
)

// Options configures Generate.
type Options struct {
	FrameStart int
	FrameCount int
	FrameRate  domain.Rational
	TickRate   int
	// DriftTolerance bounds the cumulative lag, in ticks, of the script behind real time.
	DriftTolerance float64
	Layout         assembler.Layout
	// Width and Height are the frame extent, used to centre the observer on each cell.
	Width  int
	Height int
	// Y is the fixed observer height.
	Y int
}

// Generate builds the traversal script for a frame range.
//
// Delays come from an integer accumulator carrying the fractional tick
// remainder forward, so the script never falls a whole tick behind.
func Generate(opts Options) (domain.TraversalScript, error) {
	fps := opts.FrameRate
	if fps.Num <= 0 || fps.Den <= 0 {
		return domain.TraversalScript{}, fmt.Errorf("%w: %s fps", domain.ErrUnsupportedFrameRate, fps)
	}
	if opts.TickRate <= 0 {
		return domain.TraversalScript{}, fmt.Errorf("%w: tick rate %d", domain.ErrUnsupportedFrameRate, opts.TickRate)
	}
	if opts.FrameCount <= 0 {
		return domain.TraversalScript{}, fmt.Errorf("%w: %d frames", domain.ErrInvalidFrameRange, opts.FrameCount)
	}
	if opts.Layout == nil {
		opts.Layout = assembler.Strip{Width: opts.Width}
	}

	script := domain.TraversalScript{
		FrameStart: opts.FrameStart,
		TickRate:   opts.TickRate,
		FrameRate:  fps,
		Steps:      make([]domain.TraversalStep, opts.FrameCount),
	}

	perFrame := int64(opts.TickRate) * fps.Den
	var acc, elapsed int64
	for i := range script.Steps {
		acc += perFrame
		delay := acc / fps.Num
		acc %= fps.Num
		if drift := float64(acc) / float64(fps.Num); drift > script.MaxDrift {
			script.MaxDrift = drift
		}

		x, z := opts.Layout.Cell(i)
		script.Steps[i] = domain.TraversalStep{
			FrameIndex: opts.FrameStart + i,
			Position:   domain.Position{X: x + opts.Width/2, Y: opts.Y, Z: z + opts.Height/2},
			Delay:      delay,
			Elapsed:    elapsed,
		}
		elapsed += delay
	}

	if script.MaxDrift > opts.DriftTolerance {
		return domain.TraversalScript{}, fmt.Errorf("%w: %s fps drifts %.3f ticks at %d ticks/s, tolerance %.3f",
			domain.ErrUnsupportedFrameRate, fps, script.MaxDrift, opts.TickRate, opts.DriftTolerance)
	}
	return script, nil
}
