package expr

import "fmt"

// Axis is a coordinate component a Conditional can test.
type Axis uint8

const (
	AxisX Axis = iota
	AxisZ
	AxisFrame
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisZ:
		return "z"
	case AxisFrame:
		return "frame"
	}
	return fmt.Sprintf("axis(%d)", uint8(a))
}

// ParseAxis is the inverse of Axis.String.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x":
		return AxisX, nil
	case "z":
		return AxisZ, nil
	case "frame":
		return AxisFrame, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// Kind tags the variant held by a Node.
type Kind uint8

const (
	KindConstant Kind = iota + 1
	KindConditional
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindConditional:
		return "conditional"
	case KindReference:
		return "reference"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// NodeID addresses a node inside its Arena.
type NodeID int32

// Invalid is returned by lookups that found nothing.
const Invalid NodeID = -1

// Node is a tagged expression node. Only the fields of its Kind are set,
// which keeps the struct usable as a hash-consing key.
type Node struct {
	Kind Kind

	// Constant
	Value int

	// Conditional
	Axis      Axis
	Threshold int
	Then      NodeID
	Else      NodeID

	// Reference
	Target NodeID
}

// Coord is an integer sample position.
type Coord struct {
	X, Z, Frame int
}

// Get returns the component tested by axis.
func (c Coord) Get(axis Axis) int {
	switch axis {
	case AxisX:
		return c.X
	case AxisZ:
		return c.Z
	default:
		return c.Frame
	}
}
