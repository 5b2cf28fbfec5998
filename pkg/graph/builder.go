package graph

import (
	"errors"
	"fmt"
	"math"
)

// Defaults supplies attribute values that an imported graph leaves out.
// Trust defaults are chosen by the identity type of the sending node.
type Defaults struct {
	TrustAnonymous    float64 `json:"default_trust_anonymous" yaml:"default_trust_anonymous"`
	TrustVerified     float64 `json:"default_trust_verified" yaml:"default_trust_verified"`
	TendencyAnonymous float64 `json:"default_tendency_anonymous" yaml:"default_tendency_anonymous"`
	TendencyVerified  float64 `json:"default_tendency_verified" yaml:"default_tendency_verified"`
	Credulity         float64 `json:"default_credulity" yaml:"default_credulity"`
}

// StandardDefaults returns the defaults used when nothing is configured.
func StandardDefaults() Defaults {
	return Defaults{
		TrustAnonymous:    0.3,
		TrustVerified:     0.9,
		TendencyAnonymous: 0.8,
		TendencyVerified:  0.3,
		Credulity:         0.0,
	}
}

// Trust returns the default trust for an arc sent by a node of the given identity.
func (d Defaults) Trust(sender IdentityType) float64 {
	if sender == Verified {
		return d.TrustVerified
	}
	return d.TrustAnonymous
}

// Tendency returns the default tendency to share for the given identity.
func (d Defaults) Tendency(identity IdentityType) float64 {
	if identity == Verified {
		return d.TendencyVerified
	}
	return d.TendencyAnonymous
}

// Validate checks every default lies in [0,1].
func (d Defaults) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"default_trust_anonymous", d.TrustAnonymous},
		{"default_trust_verified", d.TrustVerified},
		{"default_tendency_anonymous", d.TendencyAnonymous},
		{"default_tendency_verified", d.TendencyVerified},
		{"default_credulity", d.Credulity},
	}
	for _, f := range fields {
		if err := checkProbability(f.value); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return nil
}

// NodeSpec describes a node as imported. Nil attributes are resolved from Defaults.
type NodeSpec struct {
	ID              NodeID
	IdentityType    string
	Credulity       *float64
	TendencyToShare *float64
	FactChecker     bool
}

// EdgeSpec describes an edge as imported. A nil Trust is resolved from the
// sender's identity type.
type EdgeSpec struct {
	Source     NodeID
	Target     NodeID
	Trust      *float64
	Undirected bool
}

// Prob returns a pointer to v, for optional attributes in specs.
func Prob(v float64) *float64 {
	return &v
}

// Builder accumulates node and edge specs and produces an immutable Graph.
type Builder struct {
	directed bool
	nodes    []NodeSpec
	edges    []EdgeSpec
}

// NewBuilder creates a builder. When directed is false every edge is
// stored in both orientations.
func NewBuilder(directed bool) *Builder {
	return &Builder{directed: directed}
}

// AddNode queues a node.
func (b *Builder) AddNode(spec NodeSpec) *Builder {
	b.nodes = append(b.nodes, spec)
	return b
}

// AddEdge queues an edge.
func (b *Builder) AddEdge(spec EdgeSpec) *Builder {
	b.edges = append(b.edges, spec)
	return b
}

// Build resolves all specs against defaults and returns the graph.
// It fails with an *InvalidGraphError if any node or edge is malformed.
func (b *Builder) Build(defaults Defaults) (*Graph, error) {
	if err := defaults.Validate(); err != nil {
		return nil, &InvalidGraphError{Entity: "defaults", Cause: err}
	}

	g := &Graph{
		directed: b.directed,
		nodes:    make([]Node, 0, len(b.nodes)),
		index:    make(map[NodeID]int, len(b.nodes)),
	}

	for _, spec := range b.nodes {
		node, err := resolveNode(spec, defaults)
		if err != nil {
			return nil, err
		}
		if _, dup := g.index[node.ID]; dup {
			return nil, nodeError(node.ID, "id", errors.New("duplicate node id"))
		}
		g.index[node.ID] = len(g.nodes)
		g.nodes = append(g.nodes, node)
	}

	g.in = make([][]Arc, len(g.nodes))
	g.out = make([][]Arc, len(g.nodes))

	for _, spec := range b.edges {
		from, ok := g.index[spec.Source]
		if !ok {
			return nil, edgeError(spec.Source, spec.Target, "source", fmt.Errorf("node %q does not exist", spec.Source))
		}
		to, ok := g.index[spec.Target]
		if !ok {
			return nil, edgeError(spec.Source, spec.Target, "target", fmt.Errorf("node %q does not exist", spec.Target))
		}
		if spec.Trust != nil {
			if err := checkProbability(*spec.Trust); err != nil {
				return nil, edgeError(spec.Source, spec.Target, "trust_weight", err)
			}
		}

		g.addArc(from, to, spec.Trust, defaults)
		if (spec.Undirected || !b.directed) && from != to {
			g.addArc(to, from, spec.Trust, defaults)
		}
	}

	return g, nil
}

func (g *Graph) addArc(from, to int, trust *float64, defaults Defaults) {
	arc := Arc{
		Source: g.nodes[from].ID,
		Target: g.nodes[to].ID,
	}
	if trust != nil {
		arc.Trust = *trust
	} else {
		arc.Trust = defaults.Trust(g.nodes[from].IdentityType)
	}
	g.out[from] = append(g.out[from], arc)
	g.in[to] = append(g.in[to], arc)
	g.arcs++
}

func resolveNode(spec NodeSpec, defaults Defaults) (Node, error) {
	if spec.ID == "" {
		return Node{}, nodeError(spec.ID, "id", errors.New("node id is empty"))
	}

	identity, err := ParseIdentityType(spec.IdentityType)
	if err != nil {
		return Node{}, nodeError(spec.ID, "identity_type", err)
	}

	node := Node{
		ID:              spec.ID,
		IdentityType:    identity,
		Credulity:       defaults.Credulity,
		TendencyToShare: defaults.Tendency(identity),
		FactChecker:     spec.FactChecker,
	}

	if spec.Credulity != nil {
		if err := checkProbability(*spec.Credulity); err != nil {
			return Node{}, nodeError(spec.ID, "credulity", err)
		}
		node.Credulity = *spec.Credulity
	}
	if spec.TendencyToShare != nil {
		if err := checkProbability(*spec.TendencyToShare); err != nil {
			return Node{}, nodeError(spec.ID, "tendency_to_share", err)
		}
		node.TendencyToShare = *spec.TendencyToShare
	}

	return node, nil
}

func checkProbability(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("value %v is outside [0,1]", v)
	}
	return nil
}
