package kripke

import (
	"fmt"
	"os"
	"strings"
)

// GenerateGraphviz generates a Graphviz DOT representation of the reachable
// graph. States and edges on t, if given, are highlighted.
func (g *Graph) GenerateGraphviz(t *Trace) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("digraph %q {\n", g.sys.Name()))
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, fontsize=9];\n")
	sb.WriteString("\n")

	onTrace := make(map[StateID]bool)
	traceEdge := make(map[[2]StateID]bool)
	if t != nil {
		for i, id := range t.IDs {
			onTrace[id] = true
			if i > 0 {
				traceEdge[[2]StateID{t.IDs[i-1], id}] = true
			}
		}
		if t.Loop >= 0 && t.Len() > 0 {
			traceEdge[[2]StateID{t.IDs[len(t.IDs)-1], t.IDs[t.Loop]}] = true
		}
	}

	// invisible start node pointing at each initial state
	sb.WriteString("  start [shape=point];\n")
	for _, id := range g.init {
		sb.WriteString(fmt.Sprintf("  start -> s%d;\n", id))
	}
	sb.WriteString("\n")

	for s := 0; s < g.Len(); s++ {
		id := StateID(s)
		label := strings.ReplaceAll(g.Valuation(id).String(), ", ", "\\n")
		if onTrace[id] {
			sb.WriteString(fmt.Sprintf("  s%d [label=\"s%d\\n%s\", color=red, penwidth=2];\n", id, id, label))
		} else {
			sb.WriteString(fmt.Sprintf("  s%d [label=\"s%d\\n%s\"];\n", id, id, label))
		}
	}
	sb.WriteString("\n")

	for s := 0; s < g.Len(); s++ {
		from := StateID(s)
		for _, to := range g.succ[from] {
			if traceEdge[[2]StateID{from, to}] {
				sb.WriteString(fmt.Sprintf("  s%d -> s%d [color=red, penwidth=2];\n", from, to))
			} else {
				sb.WriteString(fmt.Sprintf("  s%d -> s%d;\n", from, to))
			}
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// SaveGraphviz writes the DOT representation to filename.
func (g *Graph) SaveGraphviz(filename string, t *Trace) error {
	return os.WriteFile(filename, []byte(g.GenerateGraphviz(t)), 0o644)
}
