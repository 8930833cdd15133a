package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/rfielding/kripke-smv/kripke"
)

type printer struct {
	w     io.Writer
	pass  func(a ...any) string
	fail  func(a ...any) string
	dim   func(a ...any) string
	value func(string, ...any) string
}

func newPrinter(w io.Writer, colored bool) *printer {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return &printer{
		w:     w,
		pass:  mk(color.FgGreen, color.Bold).SprintFunc(),
		fail:  mk(color.FgRed, color.Bold).SprintFunc(),
		dim:   mk(color.Faint).SprintFunc(),
		value: mk(color.FgCyan).SprintfFunc(),
	}
}

func (p *printer) result(req kripke.Requirement, res *kripke.Result) {
	verdict := p.pass("HOLDS")
	if res.Verdict == kripke.Violated {
		verdict = p.fail("VIOLATED")
	}
	fmt.Fprintf(p.w, "%s %s: %s\n", verdict, req.ID, res.Formula)
	if req.Description != "" {
		fmt.Fprintf(p.w, "  %s\n", p.dim(req.Description))
	}
	if res.Trace == nil {
		return
	}
	kind := "witness"
	if res.Verdict == kripke.Violated {
		kind = "counterexample"
	}
	fmt.Fprintf(p.w, "  %s (%d states):\n", kind, res.Trace.Len())
	p.trace(res.Trace)
}

// trace prints the first state in full and then only what changed.
func (p *printer) trace(t *kripke.Trace) {
	for i, s := range t.States {
		var parts []string
		if i == 0 {
			m := s.Map()
			itr := m.Iterator()
			for !itr.Done() {
				k, v, _ := itr.Next()
				parts = append(parts, k+"="+p.value("%s", v))
			}
		} else {
			for _, name := range s.Diff(t.States[i-1]) {
				v, _ := s.Get(name)
				parts = append(parts, name+"="+p.value("%s", v))
			}
		}
		line := strings.Join(parts, ", ")
		if line == "" {
			line = p.dim("(no change)")
		}
		fmt.Fprintf(p.w, "    %d: %s\n", i, line)
	}
	if t.Loop >= 0 {
		fmt.Fprintf(p.w, "    %s\n", p.dim(fmt.Sprintf("loops back to %d", t.Loop)))
	}
}

func (p *printer) stats(s kripke.Stats) {
	fmt.Fprintln(p.w)
	fmt.Fprint(p.w, s.Table())
}

func (p *printer) simulation(t *kripke.Trace, moves map[string]int) {
	fmt.Fprintf(p.w, "run of %d states:\n", t.Len())
	p.trace(t)
	names := make([]string, 0, len(moves))
	for m := range moves {
		names = append(names, m)
	}
	sort.Strings(names)
	for _, m := range names {
		fmt.Fprintf(p.w, "  %s moved %d times\n", m, moves[m])
	}
}
