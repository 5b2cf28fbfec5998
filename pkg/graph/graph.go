// Package graph holds the social network a cascade runs over.
//
// A Graph is built once through a Builder, which resolves every missing
// attribute (trust, tendency to share, credulity) from Defaults and rejects
// anything out of range. After Build the graph is read-only and may be shared
// by any number of concurrent simulation runs.
package graph

// Graph is an immutable, fully resolved social graph.
type Graph struct {
	directed bool
	nodes    []Node
	index    map[NodeID]int
	in       [][]Arc // arcs oriented toward nodes[i], in insertion order
	out      [][]Arc
	arcs     int
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// ArcCount returns the number of directed arcs. An undirected edge counts twice.
func (g *Graph) ArcCount() int {
	return g.arcs
}

// Directed reports whether the graph was built from directed edges.
func (g *Graph) Directed() bool {
	return g.directed
}

// Nodes returns every node in insertion order. The slice is a copy.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// IDs returns every node id in insertion order.
func (g *Graph) IDs() []NodeID {
	ids := make([]NodeID, len(g.nodes))
	for i, n := range g.nodes {
		ids[i] = n.ID
	}
	return ids
}

// Has reports whether id names a node of the graph.
func (g *Graph) Has(id NodeID) bool {
	_, ok := g.index[id]
	return ok
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Index returns the position of id in insertion order, or -1.
func (g *Graph) Index(id NodeID) int {
	i, ok := g.index[id]
	if !ok {
		return -1
	}
	return i
}

// At returns the node at position i of insertion order.
func (g *Graph) At(i int) Node {
	return g.nodes[i]
}

// InArcs returns the arcs pointing at id. The returned slice must not be modified.
func (g *Graph) InArcs(id NodeID) []Arc {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.in[i]
}

// OutArcs returns the arcs leaving id. The returned slice must not be modified.
func (g *Graph) OutArcs(id NodeID) []Arc {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.out[i]
}

// Arcs returns every arc grouped by source in insertion order.
func (g *Graph) Arcs() []Arc {
	all := make([]Arc, 0, g.arcs)
	for i := range g.nodes {
		all = append(all, g.out[i]...)
	}
	return all
}

// Eligible returns the ids of nodes that may seed a cascade (non fact-checkers).
func (g *Graph) Eligible() []NodeID {
	ids := make([]NodeID, 0, len(g.nodes))
	for _, n := range g.nodes {
		if !n.FactChecker {
			ids = append(ids, n.ID)
		}
	}
	return ids
}
