package graph

// Arc is a directed, trust-weighted connection from Source to Target.
// Undirected edges are stored as a pair of opposite arcs.
type Arc struct {
	Source NodeID  `json:"source"`
	Target NodeID  `json:"target"`
	Trust  float64 `json:"trust_weight"`
}

// SelfLoop reports whether the arc starts and ends at the same node.
func (a Arc) SelfLoop() bool {
	return a.Source == a.Target
}
