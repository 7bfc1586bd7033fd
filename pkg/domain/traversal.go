package domain

// Position is a block coordinate in the host world.
type Position struct {
	X, Y, Z int
}

// TraversalStep places the observer on one frame.
type TraversalStep struct {
	FrameIndex int
	Position   Position
	// Delay is the number of host ticks until the next step runs.
	Delay int64
	// Elapsed is the number of host ticks since the first step.
	Elapsed int64
}

// TraversalScript is the ordered observer movement for a frame range.
type TraversalScript struct {
	FrameStart int
	TickRate   int
	FrameRate  Rational
	MaxDrift   float64
	Steps      []TraversalStep
}
