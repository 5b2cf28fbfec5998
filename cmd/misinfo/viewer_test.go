package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/misinfo-cascade/pkg/export"
	"github.com/dd0wney/misinfo-cascade/pkg/graph"
	"github.com/dd0wney/misinfo-cascade/pkg/simulation"
)

// chainTrace is a -> b -> c with an isolated fact-checker f, fully
// infected by t=2.
func chainTrace() *export.Trace {
	seed := uint64(3)
	return &export.Trace{
		Version: export.TraceVersion,
		Seed:    &seed,
		Nodes: []graph.Node{
			{ID: "a", IdentityType: graph.Verified},
			{ID: "b"},
			{ID: "c"},
			{ID: "f", FactChecker: true},
		},
		Result: &simulation.Result{
			RunID:          "run-1",
			NumTimesteps:   2,
			Initial:        []graph.NodeID{"a"},
			Final:          []graph.NodeID{"a", "b", "c"},
			InfectionTimes: map[graph.NodeID]int{"a": 0, "b": 1, "c": 2},
			Records: []simulation.StepRecord{
				{Timestep: 1, NewlyInfected: []graph.NodeID{"b"}, TotalInfected: 2},
				{Timestep: 2, NewlyInfected: []graph.NodeID{"c"}, TotalInfected: 3},
			},
		},
	}
}

func press(t *testing.T, m viewer, k string) viewer {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, _ := m.Update(msg)
	v, ok := next.(viewer)
	require.True(t, ok)
	return v
}

func states(m viewer) map[string]string {
	out := make(map[string]string)
	for _, row := range m.nodeTable.Rows() {
		out[row[0]] = row[2]
	}
	return out
}

func TestViewer_Stepping(t *testing.T) {
	m := newViewer(chainTrace())
	assert.Equal(t, 0, m.timestep)
	assert.Equal(t, 2, m.last)
	assert.Equal(t, map[string]string{
		"a": "infected", "b": "susceptible", "c": "susceptible", "f": "fact-checker",
	}, states(m))

	m = press(t, m, "right")
	assert.Equal(t, 1, m.timestep)
	assert.Equal(t, "infected", states(m)["b"])
	assert.Equal(t, []graph.NodeID{"b"}, m.newlyInfected())

	m = press(t, m, "left")
	assert.Equal(t, 0, m.timestep)
	assert.Equal(t, "susceptible", states(m)["b"])
}

func TestViewer_Clamps(t *testing.T) {
	m := newViewer(chainTrace())

	m = press(t, m, "left")
	assert.Equal(t, 0, m.timestep)

	m = press(t, m, "G")
	assert.Equal(t, 2, m.timestep)
	assert.Equal(t, "infected", states(m)["c"])

	m = press(t, m, "right")
	assert.Equal(t, 2, m.timestep)

	m = press(t, m, "g")
	assert.Equal(t, 0, m.timestep)
	assert.Equal(t, []graph.NodeID{"a"}, m.newlyInfected())
}

func TestViewer_InfectionTimeColumn(t *testing.T) {
	m := press(t, newViewer(chainTrace()), "G")
	for _, row := range m.nodeTable.Rows() {
		switch row[0] {
		case "c":
			assert.Equal(t, "2", row[3])
		case "f":
			assert.Empty(t, row[3])
		}
	}
}

func TestViewer_Quit(t *testing.T) {
	_, cmd := newViewer(chainTrace()).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestViewer_View(t *testing.T) {
	m := newViewer(chainTrace())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	out := next.(viewer).View()

	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "0 / 2")
	assert.True(t, strings.Contains(out, "Seed"))
}
