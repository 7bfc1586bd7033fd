package expr

import "fmt"

// Arena owns a set of hash-consed nodes.
type Arena struct {
	nodes []Node
	index map[Node]NodeID
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{index: make(map[Node]NodeID)}
}

// Len returns the number of distinct nodes allocated.
func (a *Arena) Len() int { return len(a.nodes) }

// Node returns the node stored at id.
func (a *Arena) Node(id NodeID) Node { return a.nodes[id] }

// Contains reports whether id addresses a node of a.
func (a *Arena) Contains(id NodeID) bool {
	return id >= 0 && int(id) < len(a.nodes)
}

func (a *Arena) intern(n Node) NodeID {
	if id, ok := a.index[n]; ok {
		return id
	}
	id := NodeID(len(a.nodes))
	a.nodes = append(a.nodes, n)
	a.index[n] = id
	return id
}

// Constant returns the node for a fixed value.
func (a *Arena) Constant(value int) NodeID {
	return a.intern(Node{Kind: KindConstant, Value: value, Then: Invalid, Else: Invalid, Target: Invalid})
}

// Conditional returns the node testing coord[axis] < threshold.
// When both branches are the same node the test is redundant and the branch itself is returned.
func (a *Arena) Conditional(axis Axis, threshold int, then, els NodeID) NodeID {
	a.mustContain(then)
	a.mustContain(els)
	if then == els {
		return then
	}
	return a.intern(Node{Kind: KindConditional, Axis: axis, Threshold: threshold, Then: then, Else: els, Target: Invalid})
}

// Reference returns a node evaluating to target.
func (a *Arena) Reference(target NodeID) NodeID {
	a.mustContain(target)
	return a.intern(Node{Kind: KindReference, Then: Invalid, Else: Invalid, Target: target})
}

func (a *Arena) mustContain(id NodeID) {
	if !a.Contains(id) {
		panic(fmt.Sprintf("expr: node %d does not belong to arena of %d nodes", id, len(a.nodes)))
	}
}

// Eval evaluates the expression rooted at id for c.
func (a *Arena) Eval(id NodeID, c Coord) int {
	for {
		n := a.nodes[id]
		switch n.Kind {
		case KindConstant:
			return n.Value
		case KindConditional:
			if c.Get(n.Axis) < n.Threshold {
				id = n.Then
			} else {
				id = n.Else
			}
		case KindReference:
			id = n.Target
		default:
			panic(fmt.Sprintf("expr: node %d has invalid kind %d", id, n.Kind))
		}
	}
}

// Import copies the expression rooted at root in src into a and returns its new root.
// Subtrees already present in a are reused.
func (a *Arena) Import(src *Arena, root NodeID) NodeID {
	return a.ImportOffset(src, root, 0, 0)
}

// ImportOffset is Import with every X threshold moved by dx and every Z
// threshold by dz: the copy evaluated at (x+dx, z+dz) equals the source at (x, z).
func (a *Arena) ImportOffset(src *Arena, root NodeID, dx, dz int) NodeID {
	if src == a && dx == 0 && dz == 0 {
		return root
	}
	memo := make(map[NodeID]NodeID)
	var walk func(id NodeID) NodeID
	walk = func(id NodeID) NodeID {
		if out, ok := memo[id]; ok {
			return out
		}
		n := src.nodes[id]
		var out NodeID
		switch n.Kind {
		case KindConstant:
			out = a.Constant(n.Value)
		case KindConditional:
			threshold := n.Threshold
			switch n.Axis {
			case AxisX:
				threshold += dx
			case AxisZ:
				threshold += dz
			}
			out = a.Conditional(n.Axis, threshold, walk(n.Then), walk(n.Else))
		case KindReference:
			out = a.Reference(walk(n.Target))
		}
		memo[id] = out
		return out
	}
	return walk(root)
}

// Reachable returns every node reachable from root, children before parents.
func (a *Arena) Reachable(root NodeID) []NodeID {
	seen := make(map[NodeID]bool)
	var order []NodeID
	var walk func(id NodeID)
	walk = func(id NodeID) {
		if seen[id] {
			return
		}
		seen[id] = true
		n := a.nodes[id]
		switch n.Kind {
		case KindConditional:
			walk(n.Then)
			walk(n.Else)
		case KindReference:
			walk(n.Target)
		}
		order = append(order, id)
	}
	walk(root)
	return order
}

// Parents counts, for every node reachable from root, how many edges point at it.
func (a *Arena) Parents(root NodeID) map[NodeID]int {
	counts := make(map[NodeID]int)
	for _, id := range a.Reachable(root) {
		n := a.nodes[id]
		switch n.Kind {
		case KindConditional:
			counts[n.Then]++
			counts[n.Else]++
		case KindReference:
			counts[n.Target]++
		}
	}
	return counts
}

// Validate checks the expression rooted at root is well formed:
// every edge points backwards into the arena and every node has a known kind.
func (a *Arena) Validate(root NodeID) error {
	if !a.Contains(root) {
		return fmt.Errorf("root %d outside arena of %d nodes", root, len(a.nodes))
	}
	for id := NodeID(0); int(id) <= int(root); id++ {
		n := a.nodes[id]
		switch n.Kind {
		case KindConstant:
		case KindConditional:
			if n.Then < 0 || n.Then >= id || n.Else < 0 || n.Else >= id {
				return fmt.Errorf("conditional %d has forward or missing branch", id)
			}
		case KindReference:
			if n.Target < 0 || n.Target >= id {
				return fmt.Errorf("reference %d has forward or missing target", id)
			}
		default:
			return fmt.Errorf("node %d has invalid kind %d", id, n.Kind)
		}
	}
	return nil
}

// Equal reports whether two expressions have the same structure.
func Equal(a *Arena, ra NodeID, b *Arena, rb NodeID) bool {
	type pair struct{ a, b NodeID }
	seen := make(map[pair]bool)
	var eq func(x, y NodeID) bool
	eq = func(x, y NodeID) bool {
		p := pair{x, y}
		if seen[p] {
			return true
		}
		nx, ny := a.nodes[x], b.nodes[y]
		if nx.Kind != ny.Kind {
			return false
		}
		switch nx.Kind {
		case KindConstant:
			if nx.Value != ny.Value {
				return false
			}
		case KindConditional:
			if nx.Axis != ny.Axis || nx.Threshold != ny.Threshold {
				return false
			}
			if !eq(nx.Then, ny.Then) || !eq(nx.Else, ny.Else) {
				return false
			}
		case KindReference:
			if !eq(nx.Target, ny.Target) {
				return false
			}
		}
		seen[p] = true
		return true
	}
	return eq(ra, rb)
}
