package graph

import "fmt"

// NodeID identifies a node. Integer ids from node-link files are stored in
// their decimal form.
type NodeID string

// IdentityType distinguishes accountable accounts from anonymous ones.
type IdentityType uint8

const (
	Anonymous IdentityType = iota
	Verified
)

// String returns the wire name of the identity type
func (it IdentityType) String() string {
	switch it {
	case Anonymous:
		return "anonymous"
	case Verified:
		return "verified"
	default:
		return "unknown"
	}
}

// ParseIdentityType converts a wire name to an IdentityType.
// An empty string is treated as anonymous.
func ParseIdentityType(s string) (IdentityType, error) {
	switch s {
	case "", "anonymous", "ANONYMOUS", "Anonymous":
		return Anonymous, nil
	case "verified", "VERIFIED", "Verified":
		return Verified, nil
	default:
		return Anonymous, fmt.Errorf("unknown identity type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (it IdentityType) MarshalText() ([]byte, error) {
	return []byte(it.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (it *IdentityType) UnmarshalText(b []byte) error {
	parsed, err := ParseIdentityType(string(b))
	if err != nil {
		return err
	}
	*it = parsed
	return nil
}

// Node is a fully resolved vertex of the social graph. Its attributes never
// change once the graph is built.
type Node struct {
	ID              NodeID       `json:"id"`
	IdentityType    IdentityType `json:"identity_type"`
	Credulity       float64      `json:"credulity"`
	TendencyToShare float64      `json:"tendency_to_share"`
	FactChecker     bool         `json:"is_fact_checker"`
}

// Susceptible reports whether the node can ever become infected.
func (n Node) Susceptible() bool {
	return !n.FactChecker
}

// Spreads reports whether the node exposes its neighbours once infected.
func (n Node) Spreads() bool {
	return !n.FactChecker
}
