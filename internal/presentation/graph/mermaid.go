package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/v2df/pkg/expr"
)

// DefaultMaxNodes bounds the diagram size; real frames compile to thousands of nodes.
const DefaultMaxNodes = 200

// Overlay highlights the evaluation path of one coordinate.
type Overlay struct {
	Coord expr.Coord
}

// Options tunes GenerateMermaid.
type Options struct {
	// MaxNodes limits the drawn nodes, breadth first from the root. Zero means DefaultMaxNodes.
	MaxNodes int
	Overlay  *Overlay
}

// GenerateMermaid produces a Mermaid flowchart of the expression rooted at root.
// It applies semantic styling:
// - Constant: ((Circle))
// - Conditional: {Rhombus}
// - Reference: [[Subroutine]]
// Nodes past the limit are collapsed into a single elision marker per edge.
func GenerateMermaid(a *expr.Arena, root expr.NodeID, opts Options) string {
	limit := opts.MaxNodes
	if limit <= 0 {
		limit = DefaultMaxNodes
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	drawn := map[expr.NodeID]bool{root: true}
	queue := []expr.NodeID{root}
	elided := 0
	edge := func(from expr.NodeID, to expr.NodeID, label string) {
		if !drawn[to] {
			if len(drawn) >= limit {
				elided++
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> more%d[\"...\"]\n", nodeID(from), label, elided)
				return
			}
			drawn[to] = true
			queue = append(queue, to)
		}
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", nodeID(from), label, nodeID(to))
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := a.Node(id)
		switch n.Kind {
		case expr.KindConstant:
			fmt.Fprintf(&sb, "    %s((\"%d\"))\n", nodeID(id), n.Value)
		case expr.KindConditional:
			fmt.Fprintf(&sb, "    %s{\"%s &lt; %d\"}\n", nodeID(id), n.Axis, n.Threshold)
			edge(id, n.Then, "yes")
			edge(id, n.Else, "no")
		case expr.KindReference:
			fmt.Fprintf(&sb, "    %s[[\"ref %d\"]]\n", nodeID(id), n.Target)
			edge(id, n.Target, "")
		}
	}

	if opts.Overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		path := EvalPath(a, root, opts.Overlay.Coord)
		for i, id := range path {
			if !drawn[id] {
				break
			}
			class := "visited"
			if i == len(path)-1 {
				class = "current"
			}
			fmt.Fprintf(&sb, "    class %s %s;\n", nodeID(id), class)
		}
	}
	return sb.String()
}

// EvalPath returns the nodes visited while evaluating root at c, ending at the constant reached.
func EvalPath(a *expr.Arena, root expr.NodeID, c expr.Coord) []expr.NodeID {
	path := []expr.NodeID{root}
	for id := root; ; {
		n := a.Node(id)
		switch n.Kind {
		case expr.KindConditional:
			if c.Get(n.Axis) < n.Threshold {
				id = n.Then
			} else {
				id = n.Else
			}
		case expr.KindReference:
			id = n.Target
		default:
			return path
		}
		path = append(path, id)
	}
}

func nodeID(id expr.NodeID) string {
	return fmt.Sprintf("n%d", id)
}
