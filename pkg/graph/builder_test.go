package graph

import (
	"errors"
	"math"
	"testing"
)

func TestBuild_ResolvesDefaults(t *testing.T) {
	g, err := NewBuilder(true).
		AddNode(NodeSpec{ID: "anon", IdentityType: "anonymous", Credulity: Prob(0.6)}).
		AddNode(NodeSpec{ID: "ver", IdentityType: "verified", Credulity: Prob(1)}).
		AddNode(NodeSpec{ID: "bare"}).
		AddEdge(EdgeSpec{Source: "anon", Target: "ver"}).
		AddEdge(EdgeSpec{Source: "ver", Target: "bare"}).
		AddEdge(EdgeSpec{Source: "anon", Target: "bare", Trust: Prob(0.4)}).
		Build(StandardDefaults())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	anon, _ := g.Node("anon")
	if anon.TendencyToShare != 0.8 {
		t.Errorf("anonymous tendency = %v, want 0.8", anon.TendencyToShare)
	}
	ver, _ := g.Node("ver")
	if ver.TendencyToShare != 0.3 {
		t.Errorf("verified tendency = %v, want 0.3", ver.TendencyToShare)
	}
	bare, _ := g.Node("bare")
	if bare.IdentityType != Anonymous || bare.Credulity != 0 {
		t.Errorf("bare node = %+v, want anonymous with zero credulity", bare)
	}

	// Trust defaults follow the sender's identity
	in := g.InArcs("ver")
	if len(in) != 1 || in[0].Trust != 0.3 {
		t.Errorf("arc anon->ver = %+v, want trust 0.3", in)
	}
	in = g.InArcs("bare")
	if len(in) != 2 {
		t.Fatalf("expected 2 arcs into bare, got %d", len(in))
	}
	if in[0].Source != "ver" || in[0].Trust != 0.9 {
		t.Errorf("arc ver->bare = %+v, want trust 0.9", in[0])
	}
	if in[1].Source != "anon" || in[1].Trust != 0.4 {
		t.Errorf("arc anon->bare = %+v, want explicit trust 0.4", in[1])
	}
}

func TestBuild_Undirected(t *testing.T) {
	g, err := NewBuilder(false).
		AddNode(NodeSpec{ID: "a", IdentityType: "verified"}).
		AddNode(NodeSpec{ID: "b"}).
		AddEdge(EdgeSpec{Source: "a", Target: "b"}).
		Build(StandardDefaults())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if g.ArcCount() != 2 {
		t.Fatalf("ArcCount = %d, want 2", g.ArcCount())
	}
	if got := g.InArcs("b")[0].Trust; got != 0.9 {
		t.Errorf("a->b trust = %v, want verified default 0.9", got)
	}
	if got := g.InArcs("a")[0].Trust; got != 0.3 {
		t.Errorf("b->a trust = %v, want anonymous default 0.3", got)
	}
}

func TestBuild_MixedEdgeOrientation(t *testing.T) {
	g, err := NewBuilder(true).
		AddNode(NodeSpec{ID: "a"}).
		AddNode(NodeSpec{ID: "b"}).
		AddNode(NodeSpec{ID: "c"}).
		AddEdge(EdgeSpec{Source: "a", Target: "b"}).
		AddEdge(EdgeSpec{Source: "b", Target: "c", Undirected: true}).
		Build(StandardDefaults())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(g.InArcs("a")) != 0 {
		t.Error("directed edge must not produce a reverse arc")
	}
	if len(g.InArcs("b")) != 2 {
		t.Errorf("expected 2 arcs into b, got %d", len(g.InArcs("b")))
	}
}

func TestBuild_SelfLoopsAndParallelEdges(t *testing.T) {
	g, err := NewBuilder(false).
		AddNode(NodeSpec{ID: "a"}).
		AddNode(NodeSpec{ID: "b"}).
		AddEdge(EdgeSpec{Source: "a", Target: "a", Trust: Prob(1)}).
		AddEdge(EdgeSpec{Source: "a", Target: "b", Trust: Prob(0.5)}).
		AddEdge(EdgeSpec{Source: "a", Target: "b", Trust: Prob(0.25)}).
		Build(StandardDefaults())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// The self-loop is stored once even in an undirected graph
	if len(g.InArcs("a")) != 3 {
		t.Errorf("expected self-loop plus 2 reverse arcs into a, got %d", len(g.InArcs("a")))
	}
	if !g.InArcs("a")[0].SelfLoop() {
		t.Error("first arc into a should be the self-loop")
	}
	if len(g.InArcs("b")) != 2 {
		t.Errorf("parallel edges must be kept, got %d arcs into b", len(g.InArcs("b")))
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
		field   string
	}{
		{
			name:    "dangling target",
			builder: NewBuilder(true).AddNode(NodeSpec{ID: "a"}).AddEdge(EdgeSpec{Source: "a", Target: "ghost"}),
			field:   "target",
		},
		{
			name:    "dangling source",
			builder: NewBuilder(true).AddNode(NodeSpec{ID: "a"}).AddEdge(EdgeSpec{Source: "ghost", Target: "a"}),
			field:   "source",
		},
		{
			name:    "credulity above one",
			builder: NewBuilder(true).AddNode(NodeSpec{ID: "a", Credulity: Prob(1.5)}),
			field:   "credulity",
		},
		{
			name:    "negative tendency",
			builder: NewBuilder(true).AddNode(NodeSpec{ID: "a", TendencyToShare: Prob(-0.1)}),
			field:   "tendency_to_share",
		},
		{
			name:    "NaN credulity",
			builder: NewBuilder(true).AddNode(NodeSpec{ID: "a", Credulity: Prob(math.NaN())}),
			field:   "credulity",
		},
		{
			name: "trust out of range",
			builder: NewBuilder(true).
				AddNode(NodeSpec{ID: "a"}).
				AddNode(NodeSpec{ID: "b"}).
				AddEdge(EdgeSpec{Source: "a", Target: "b", Trust: Prob(2)}),
			field: "trust_weight",
		},
		{
			name:    "duplicate id",
			builder: NewBuilder(true).AddNode(NodeSpec{ID: "a"}).AddNode(NodeSpec{ID: "a"}),
			field:   "id",
		},
		{
			name:    "empty id",
			builder: NewBuilder(true).AddNode(NodeSpec{}),
			field:   "id",
		},
		{
			name:    "unknown identity",
			builder: NewBuilder(true).AddNode(NodeSpec{ID: "a", IdentityType: "bot"}),
			field:   "identity_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := tt.builder.Build(StandardDefaults())
			if err == nil {
				t.Fatalf("expected error, got graph with %d nodes", g.Len())
			}
			if !errors.Is(err, ErrInvalidGraph) {
				t.Errorf("error %v does not match ErrInvalidGraph", err)
			}
			var ige *InvalidGraphError
			if !errors.As(err, &ige) {
				t.Fatalf("error %T is not *InvalidGraphError", err)
			}
			if ige.Field != tt.field {
				t.Errorf("Field = %q, want %q", ige.Field, tt.field)
			}
		})
	}
}

func TestBuild_InvalidDefaults(t *testing.T) {
	d := StandardDefaults()
	d.TrustVerified = 1.2

	_, err := NewBuilder(true).AddNode(NodeSpec{ID: "a"}).Build(d)
	if !errors.Is(err, ErrInvalidGraph) {
		t.Fatalf("expected ErrInvalidGraph, got %v", err)
	}
}

func TestInvalidGraphError_Error(t *testing.T) {
	tests := []struct {
		err      *InvalidGraphError
		expected string
	}{
		{
			err:      &InvalidGraphError{Entity: "node", ID: "7", Field: "credulity", Cause: errors.New("bad")},
			expected: "invalid graph: node 7 (field credulity): bad",
		},
		{
			err:      &InvalidGraphError{Entity: "edge", ID: "a->b", Cause: errors.New("bad")},
			expected: "invalid graph: edge a->b: bad",
		},
		{
			err:      &InvalidGraphError{Entity: "defaults", Field: "x", Cause: errors.New("bad")},
			expected: "invalid graph: defaults (field x): bad",
		},
		{
			err:      &InvalidGraphError{Entity: "defaults", Cause: errors.New("bad")},
			expected: "invalid graph: defaults: bad",
		},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.expected {
			t.Errorf("Error() = %q, want %q", got, tt.expected)
		}
	}
}

func TestParseIdentityType(t *testing.T) {
	tests := []struct {
		input    string
		expected IdentityType
		wantErr  bool
	}{
		{"", Anonymous, false},
		{"anonymous", Anonymous, false},
		{"verified", Verified, false},
		{"VERIFIED", Verified, false},
		{"robot", Anonymous, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseIdentityType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIdentityType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseIdentityType(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
