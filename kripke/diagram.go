package kripke

import (
	"fmt"
	"io"
	"strings"
)

// WriteMermaidTrace writes a Mermaid stateDiagram-v2 of t to w. Each node
// notes the variables that changed on the way in.
func WriteMermaidTrace(t *Trace, w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")
	if t.Len() > 0 {
		writeMermaidBody(&sb, t)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeMermaidBody(sb *strings.Builder, t *Trace) {
	sb.WriteString(fmt.Sprintf("  [*] --> s%d\n", t.IDs[0]))

	seenEdge := make(map[[2]StateID]bool)
	edge := func(from, to StateID) {
		key := [2]StateID{from, to}
		if seenEdge[key] {
			return
		}
		seenEdge[key] = true
		sb.WriteString(fmt.Sprintf("  s%d --> s%d\n", from, to))
	}
	for i := 1; i < len(t.IDs); i++ {
		edge(t.IDs[i-1], t.IDs[i])
	}
	if t.Loop >= 0 {
		edge(t.IDs[len(t.IDs)-1], t.IDs[t.Loop])
	}

	sb.WriteString("\n")
	for i, s := range t.States {
		desc := s.String()
		if i > 0 {
			var parts []string
			for _, name := range s.Diff(t.States[i-1]) {
				v, _ := s.Get(name)
				parts = append(parts, name+"="+v)
			}
			desc = strings.Join(parts, ", ")
		}
		if desc == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("  s%d: %s\n", t.IDs[i], mermaidEscape(desc)))
	}
}

func mermaidEscape(s string) string {
	return strings.NewReplacer(":", "#58;", "[", "(", "]", ")").Replace(s)
}
