package kripke

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Stats reports the size of one run and where its time went.
type Stats struct {
	States  int
	Edges   int
	Initial int
	Depth   int
	// Rounds counts fixpoint layers processed while labeling.
	Rounds  int
	Explore time.Duration
	Label   time.Duration
}

func (g *Graph) stats() Stats {
	return Stats{
		States:  g.Len(),
		Edges:   g.Edges(),
		Initial: len(g.init),
		Depth:   g.Depth(),
	}
}

// Metric is one row of a stats table.
type Metric struct {
	Name        string
	Value       float64
	Unit        string
	Description string
}

// Metrics lists s as table rows in a fixed order.
func (s Stats) Metrics() []Metric {
	return []Metric{
		{"states", float64(s.States), "states", "reachable states"},
		{"edges", float64(s.Edges), "edges", "transitions between reachable states"},
		{"initial", float64(s.Initial), "states", "states admitted by the initial predicate"},
		{"depth", float64(s.Depth), "steps", "BFS layers beyond the initial states"},
		{"rounds", float64(s.Rounds), "layers", "fixpoint layers while labeling"},
		{"explore", float64(s.Explore.Microseconds()) / 1000, "ms", "reachability time"},
		{"label", float64(s.Label.Microseconds()) / 1000, "ms", "labeling and witness time"},
	}
}

// format prints counts as integers and durations with two decimals.
func (m Metric) format() string {
	if m.Unit == "ms" {
		return strconv.FormatFloat(m.Value, 'f', 2, 64)
	}
	return strconv.FormatFloat(m.Value, 'f', 0, 64)
}

// Table renders s as a markdown table.
func (s Stats) Table() string {
	var sb strings.Builder
	sb.WriteString("| Metric | Value | Unit | Description |\n")
	sb.WriteString("|--------|-------|------|-------------|\n")
	for _, m := range s.Metrics() {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			m.Name, m.format(), m.Unit, m.Description))
	}
	return sb.String()
}

// Rate is states explored per second, zero when nothing was timed.
func (s Stats) Rate() float64 {
	if s.Explore <= 0 {
		return 0
	}
	return float64(s.States) / s.Explore.Seconds()
}

func (s Stats) String() string {
	return fmt.Sprintf("%d states, %d edges, depth %d (%.0f states/s)",
		s.States, s.Edges, s.Depth, s.Rate())
}
