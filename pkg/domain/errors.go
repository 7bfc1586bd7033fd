package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidPixelFormat is returned when a decoded sample violates the decoder contract
// (unsupported channel count or bit depth, or a buffer too short for the declared size).
var ErrInvalidPixelFormat = errors.New("invalid pixel format")

// ErrNonContiguousFrameRange is returned when the assembler receives frame indices
// that are not contiguous and strictly increasing from the configured start.
var ErrNonContiguousFrameRange = errors.New("non-contiguous frame range")

// ErrUnsupportedFrameRate is returned when the source frame rate cannot be mapped
// onto host ticks within the configured drift tolerance.
var ErrUnsupportedFrameRate = errors.New("unsupported frame rate")

// ErrInvalidLayout is returned when a layout places two frame cells over each other,
// or puts tessellated frames on cells not aligned to the frame extent.
var ErrInvalidLayout = errors.New("invalid layout")

// ErrWrite wraps every failure of an artifact writer.
var ErrWrite = errors.New("write error")

// ErrFrameOutOfRange is returned when a frame index outside the rendered range is requested.
var ErrFrameOutOfRange = errors.New("frame index out of range")

// ErrInvalidFrameRange is returned when the configured range does not fit the source.
var ErrInvalidFrameRange = errors.New("invalid frame range")

// ErrInvalidTestFrame is returned when the configured test frame does not exist in the source.
var ErrInvalidTestFrame = errors.New("invalid test frame")

// ErrCacheMiss is returned by a TreeCache when the key is not present.
var ErrCacheMiss = errors.New("cache miss")

// ErrConfigNotFound is returned when no configuration file exists in the project directory.
var ErrConfigNotFound = errors.New("config not found")

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Stage names the pipeline step an error originated from.
type Stage string

const (
	StageDecode    Stage = "decode"
	StageNormalize Stage = "normalize"
	StageCompile   Stage = "compile"
	StageEmit      Stage = "emit"
	StageAssemble  Stage = "assemble"
	StageTraversal Stage = "traversal"
)

// FrameError reports a failure tied to a single frame.
// X and Y hold the offending pixel coordinate when known, -1 otherwise.
type FrameError struct {
	Index int
	Stage Stage
	X, Y  int
	Err   error
}

// NewFrameError creates a FrameError without pixel coordinates.
func NewFrameError(index int, stage Stage, err error) *FrameError {
	return &FrameError{Index: index, Stage: stage, X: -1, Y: -1, Err: err}
}

func (e *FrameError) Error() string {
	if e.X >= 0 && e.Y >= 0 {
		return fmt.Sprintf("frame %d: %s at (%d, %d): %v", e.Index, e.Stage, e.X, e.Y, e.Err)
	}
	return fmt.Sprintf("frame %d: %s: %v", e.Index, e.Stage, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// ProjectError reports a failure that aborted a whole project.
type ProjectError struct {
	Project string
	Stage   Stage
	Err     error
}

func (e *ProjectError) Error() string {
	return fmt.Sprintf("project %q: %s: %v", e.Project, e.Stage, e.Err)
}

func (e *ProjectError) Unwrap() error { return e.Err }
