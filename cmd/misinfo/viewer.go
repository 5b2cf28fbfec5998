package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/misinfo-cascade/pkg/export"
	"github.com/dd0wney/misinfo-cascade/pkg/graph"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 2).
			MarginLeft(2)

	infectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type keyMap struct {
	Prev  key.Binding
	Next  key.Binding
	Start key.Binding
	End   key.Binding
	Up    key.Binding
	Down  key.Binding
	Quit  key.Binding
}

var keys = keyMap{
	Prev: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "step -1"),
	),
	Next: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "step +1"),
	),
	Start: key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("g", "go to start"),
	),
	End: key.NewBinding(
		key.WithKeys("end", "G"),
		key.WithHelp("G", "go to end"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Start, k.End, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.Start, k.End},
		{k.Up, k.Down},
		{k.Quit},
	}
}

// viewer steps through a recorded cascade one timestep at a time.
type viewer struct {
	trace     *export.Trace
	timestep  int
	last      int
	nodeTable table.Model
	help      help.Model
	keys      keyMap
	width     int
	height    int
}

func newViewer(trace *export.Trace) viewer {
	columns := []table.Column{
		{Title: "Node", Width: 12},
		{Title: "Identity", Width: 10},
		{Title: "State", Width: 14},
		{Title: "Infected at", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)

	m := viewer{
		trace:     trace,
		last:      trace.Result.Timesteps(),
		nodeTable: t,
		help:      help.New(),
		keys:      keys,
	}
	m.refresh()
	return m
}

func (m viewer) Init() tea.Cmd {
	return nil
}

func (m viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if msg.Height > 12 {
			m.nodeTable.SetHeight(msg.Height - 12)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Prev):
			m.seek(m.timestep - 1)
			return m, nil
		case key.Matches(msg, m.keys.Next):
			m.seek(m.timestep + 1)
			return m, nil
		case key.Matches(msg, m.keys.Start):
			m.seek(0)
			return m, nil
		case key.Matches(msg, m.keys.End):
			m.seek(m.last)
			return m, nil
		}
	}

	m.nodeTable, cmd = m.nodeTable.Update(msg)
	return m, cmd
}

// seek moves to timestep t, clamped to the recorded range.
func (m *viewer) seek(t int) {
	t = max(0, min(t, m.last))
	if t == m.timestep {
		return
	}
	m.timestep = t
	m.refresh()
}

func (m *viewer) refresh() {
	res := m.trace.Result
	rows := make([]table.Row, 0, len(m.trace.Nodes))
	for _, n := range m.trace.Nodes {
		infectedAt := ""
		state := "susceptible"
		switch ti, ok := res.InfectionTime(n.ID); {
		case n.FactChecker:
			state = "fact-checker"
		case ok && ti <= m.timestep:
			state = "infected"
			infectedAt = strconv.Itoa(ti)
		}
		rows = append(rows, table.Row{string(n.ID), n.IdentityType.String(), state, infectedAt})
	}
	m.nodeTable.SetRows(rows)
}

// newlyInfected returns the nodes infected exactly at the current timestep.
func (m viewer) newlyInfected() []graph.NodeID {
	if m.timestep == 0 {
		return m.trace.Result.InitialInfected()
	}
	for _, rec := range m.trace.Result.Records {
		if rec.Timestep == m.timestep {
			return rec.NewlyInfected
		}
	}
	return nil
}

func (m viewer) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Misinformation cascade - run " + m.trace.Result.RunID))
	s.WriteString("\n\n")

	infected := len(m.trace.Result.InfectedAt(m.timestep))
	stats := fmt.Sprintf("Timestep  %d / %d\nInfected  %s of %d\nNew       %d",
		m.timestep, m.last,
		infectedStyle.Render(strconv.Itoa(infected)), len(m.trace.Nodes),
		len(m.newlyInfected()))
	if m.trace.Seed != nil {
		stats += fmt.Sprintf("\nSeed      %d", *m.trace.Seed)
	}
	s.WriteString(statsBoxStyle.Render(stats))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.NewStyle().MarginLeft(2).Render(m.nodeTable.View()))
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return s.String()
}
