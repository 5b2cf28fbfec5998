package simulation

import (
	"math"
	"testing"

	"github.com/dd0wney/misinfo-cascade/pkg/graph"
)

func TestExposure(t *testing.T) {
	sender := graph.Node{ID: "s", TendencyToShare: 0.8}
	receiver := graph.Node{ID: "r", Credulity: 0.5}

	tests := []struct {
		name     string
		sender   graph.Node
		receiver graph.Node
		trust    float64
		want     float64
	}{
		{"product", sender, receiver, 0.3, 0.5 * 0.8 * 0.3},
		{"zero trust", sender, receiver, 0, 0},
		{"fact-checking sender", graph.Node{TendencyToShare: 1, FactChecker: true}, receiver, 1, 0},
		{"fact-checking receiver", sender, graph.Node{Credulity: 1, FactChecker: true}, 1, 0},
		{"certain", graph.Node{TendencyToShare: 1}, graph.Node{Credulity: 1}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Exposure(tt.sender, tt.receiver, tt.trust); got != tt.want {
				t.Errorf("Exposure() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCombine(t *testing.T) {
	tests := []struct {
		name string
		ps   []float64
		want float64
	}{
		{"empty", nil, 0},
		{"single is exact", []float64{0.123456789}, 0.123456789},
		{"two halves", []float64{0.5, 0.5}, 0.75},
		{"certain dominates", []float64{0.2, 1, 0.3}, 1},
		{"zeros", []float64{0, 0, 0}, 0},
		{"clamps above", []float64{1.5}, 1},
		{"clamps below", []float64{-0.5}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Combine(tt.ps); got != tt.want {
				t.Errorf("Combine(%v) = %v, want %v", tt.ps, got, tt.want)
			}
		})
	}
}

func TestCombine_ManySmallExposures(t *testing.T) {
	ps := make([]float64, 1000)
	for i := range ps {
		ps[i] = 1e-12
	}

	got := Combine(ps)
	want := -math.Expm1(1000 * math.Log1p(-1e-12))
	if math.Abs(got-want)/want > 1e-12 {
		t.Errorf("Combine() = %g, want %g", got, want)
	}
	if got <= 0 {
		t.Error("precision lost: combined probability collapsed to 0")
	}
}

func TestCombine_ExceedsEveryInput(t *testing.T) {
	ps := []float64{0.1, 0.2, 0.3}
	got := Combine(ps)
	for _, p := range ps {
		if got < p {
			t.Errorf("Combine() = %v is below input %v", got, p)
		}
	}
	if want := 1 - 0.9*0.8*0.7; math.Abs(got-want) > 1e-15 {
		t.Errorf("Combine() = %v, want %v", got, want)
	}
}

func TestDecider_Deterministic(t *testing.T) {
	a := NewSeededDecider(42)
	b := NewSeededDecider(42)
	for i := 0; i < 1000; i++ {
		p := float64(i%10) / 10
		if a.Decide(p) != b.Decide(p) {
			t.Fatalf("draw %d differs between identically seeded deciders", i)
		}
	}
}

func TestDecider_Bounds(t *testing.T) {
	d := NewDecider(nil)
	for i := 0; i < 1000; i++ {
		if d.Decide(0) {
			t.Fatal("Decide(0) returned true")
		}
		if !d.Decide(1) {
			t.Fatal("Decide(1) returned false")
		}
	}
}

func TestDeriveSeed(t *testing.T) {
	seen := make(map[uint64]int)
	for i := 0; i < 10000; i++ {
		s := DeriveSeed(7, i)
		if prev, dup := seen[s]; dup {
			t.Fatalf("DeriveSeed(7, %d) collides with index %d", i, prev)
		}
		seen[s] = i
	}
	if DeriveSeed(7, 3) != DeriveSeed(7, 3) {
		t.Error("DeriveSeed is not a pure function")
	}
	if DeriveSeed(7, 0) == DeriveSeed(8, 0) {
		t.Error("different bases produced the same seed")
	}
}
