// Package loader reads social graphs in the networkx node-link layout, as
// JSON or YAML, and turns them into graph.Graph values.
package loader

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/misinfo-cascade/pkg/graph"
)

// ID is a node identifier that may be written as a string or an integer.
type ID string

// UnmarshalJSON accepts both "7" and 7.
func (id *ID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("node id must be a string or a number: %s", b)
	}
	return id.fromNumber(n.String())
}

// UnmarshalYAML accepts any scalar.
func (id *ID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: node id must be a scalar", value.Line)
	}
	if value.Tag == "!!int" || value.Tag == "!!float" {
		return id.fromNumber(value.Value)
	}
	*id = ID(value.Value)
	return nil
}

// fromNumber renders integral numbers in plain decimal so 7, 7.0 and "7"
// name the same node.
func (id *ID) fromNumber(s string) error {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		*id = ID(strconv.FormatInt(i, 10))
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric node id %q", s)
	}
	if f == float64(int64(f)) {
		*id = ID(strconv.FormatInt(int64(f), 10))
		return nil
	}
	*id = ID(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

// Document is a node-link graph as found on disk.
type Document struct {
	Directed   bool         `json:"directed" yaml:"directed"`
	Multigraph bool         `json:"multigraph,omitempty" yaml:"multigraph,omitempty"`
	Nodes      []NodeRecord `json:"nodes" yaml:"nodes" validate:"required,min=1,dive"`
	Links      []LinkRecord `json:"links,omitempty" yaml:"links,omitempty" validate:"dive"`
	Edges      []LinkRecord `json:"edges,omitempty" yaml:"edges,omitempty" validate:"dive"`
}

// NodeRecord carries the node attributes the simulator reads. Unknown
// attributes are ignored.
type NodeRecord struct {
	ID              ID       `json:"id" yaml:"id" validate:"required"`
	IdentityType    string   `json:"identity_type,omitempty" yaml:"identity_type,omitempty"`
	Credulity       *float64 `json:"credulity,omitempty" yaml:"credulity,omitempty" validate:"omitempty,probability"`
	TendencyToShare *float64 `json:"tendency_to_share,omitempty" yaml:"tendency_to_share,omitempty" validate:"omitempty,probability"`
	FactChecker     bool     `json:"is_fact_checker,omitempty" yaml:"is_fact_checker,omitempty"`
}

// LinkRecord is one edge. A missing trust_weight is resolved from the
// sender's identity type when the graph is built.
type LinkRecord struct {
	Source      ID       `json:"source" yaml:"source" validate:"required"`
	Target      ID       `json:"target" yaml:"target" validate:"required"`
	TrustWeight *float64 `json:"trust_weight,omitempty" yaml:"trust_weight,omitempty" validate:"omitempty,probability"`
}

// links returns whichever edge list the document uses.
func (d *Document) links() ([]LinkRecord, error) {
	if len(d.Links) > 0 && len(d.Edges) > 0 {
		return nil, fmt.Errorf("document has both links and edges")
	}
	if len(d.Edges) > 0 {
		return d.Edges, nil
	}
	return d.Links, nil
}

// Builder converts the document into a graph builder.
func (d *Document) Builder() (*graph.Builder, error) {
	links, err := d.links()
	if err != nil {
		return nil, err
	}

	b := graph.NewBuilder(d.Directed)
	for _, n := range d.Nodes {
		b.AddNode(graph.NodeSpec{
			ID:              graph.NodeID(n.ID),
			IdentityType:    n.IdentityType,
			Credulity:       n.Credulity,
			TendencyToShare: n.TendencyToShare,
			FactChecker:     n.FactChecker,
		})
	}
	for _, l := range links {
		b.AddEdge(graph.EdgeSpec{
			Source: graph.NodeID(l.Source),
			Target: graph.NodeID(l.Target),
			Trust:  l.TrustWeight,
		})
	}
	return b, nil
}

// Build resolves the document into a graph.
func (d *Document) Build(defaults graph.Defaults) (*graph.Graph, error) {
	b, err := d.Builder()
	if err != nil {
		return nil, err
	}
	return b.Build(defaults)
}

// FromGraph renders g as a fully resolved directed document.
func FromGraph(g *graph.Graph) *Document {
	doc := &Document{
		Directed: true,
		Nodes:    make([]NodeRecord, 0, g.Len()),
		Links:    make([]LinkRecord, 0, g.ArcCount()),
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, NodeRecord{
			ID:              ID(n.ID),
			IdentityType:    n.IdentityType.String(),
			Credulity:       graph.Prob(n.Credulity),
			TendencyToShare: graph.Prob(n.TendencyToShare),
			FactChecker:     n.FactChecker,
		})
	}
	for _, a := range g.Arcs() {
		doc.Links = append(doc.Links, LinkRecord{
			Source:      ID(a.Source),
			Target:      ID(a.Target),
			TrustWeight: graph.Prob(a.Trust),
		})
	}
	return doc
}
