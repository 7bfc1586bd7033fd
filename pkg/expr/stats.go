package expr

import "math"

// Stats describes the shape of an expression.
type Stats struct {
	// Distinct is the number of distinct nodes reachable from the root.
	Distinct int
	// Size is the node count of the fully expanded tree, saturating at math.MaxInt64.
	Size int64
	// Leaves is the number of constants in the expanded tree, saturating like Size.
	Leaves int64
	// Depth is the length of the longest root to leaf path, counted in nodes.
	Depth int
}

// Measure computes the Stats of the expression rooted at root.
func (a *Arena) Measure(root NodeID) Stats {
	type shape struct {
		size, leaves int64
		depth        int
	}
	order := a.Reachable(root)
	memo := make(map[NodeID]shape, len(order))
	for _, id := range order {
		n := a.nodes[id]
		var s shape
		switch n.Kind {
		case KindConstant:
			s = shape{size: 1, leaves: 1, depth: 1}
		case KindConditional:
			t, e := memo[n.Then], memo[n.Else]
			s = shape{
				size:   satAdd(satAdd(t.size, e.size), 1),
				leaves: satAdd(t.leaves, e.leaves),
				depth:  max(t.depth, e.depth) + 1,
			}
		case KindReference:
			t := memo[n.Target]
			s = shape{size: satAdd(t.size, 1), leaves: t.leaves, depth: t.depth + 1}
		}
		memo[id] = s
	}
	top := memo[root]
	return Stats{Distinct: len(order), Size: top.size, Leaves: top.leaves, Depth: top.depth}
}

func satAdd(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
