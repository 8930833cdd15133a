package kripke

import (
	"fmt"
	"strings"
)

// Requirement is a named property of a model.
type Requirement struct {
	ID          string
	Description string
	Formula     Formula
}

// GenerateRequirementsTable generates a markdown table of requirements
func GenerateRequirementsTable(reqs []Requirement) string {
	var sb strings.Builder
	sb.WriteString("| ID | Requirement | CTL Formula |\n")
	sb.WriteString("|----|-------------|-------------|\n")
	for _, req := range reqs {
		sb.WriteString(fmt.Sprintf("| %s | %s | `%s` |\n",
			req.ID, req.Description, req.Formula))
	}
	return sb.String()
}

// GenerateCTLTable generates a markdown table of verdicts. results[i]
// belongs to reqs[i]; a nil result is reported as not checked.
func GenerateCTLTable(reqs []Requirement, results []*Result) string {
	var sb strings.Builder
	sb.WriteString("| ID | Requirement | CTL Formula | Result | Trace |\n")
	sb.WriteString("|----|-------------|-------------|--------|-------|\n")
	for i, req := range reqs {
		result, trace := "NOT CHECKED", "-"
		if i < len(results) && results[i] != nil {
			r := results[i]
			result = "PASS"
			if r.Verdict == Violated {
				result = "FAIL"
			}
			if r.Trace != nil {
				trace = fmt.Sprintf("%d states", r.Trace.Len())
				if r.Trace.Loop >= 0 {
					trace += fmt.Sprintf(", loops to %d", r.Trace.Loop)
				}
			}
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | `%s` | %s | %s |\n",
			req.ID, req.Description, req.Formula, result, trace))
	}
	return sb.String()
}

// GenerateTraceTable lists a trace step by step, showing only the variables
// that changed after the first state.
func GenerateTraceTable(t *Trace) string {
	var sb strings.Builder
	sb.WriteString("| Step | State | Changes |\n")
	sb.WriteString("|------|-------|---------|\n")
	for i, s := range t.States {
		changes := s.String()
		if i > 0 {
			var parts []string
			for _, name := range s.Diff(t.States[i-1]) {
				v, _ := s.Get(name)
				parts = append(parts, name+"="+v)
			}
			changes = strings.Join(parts, ", ")
			if changes == "" {
				changes = "(stutter)"
			}
		}
		sb.WriteString(fmt.Sprintf("| %d | s%d | %s |\n", i, t.IDs[i], changes))
	}
	if t.Loop >= 0 {
		sb.WriteString(fmt.Sprintf("| %d | s%d | (loop back to step %d) |\n",
			len(t.States), t.IDs[t.Loop], t.Loop))
	}
	return sb.String()
}
