package kripke

import (
	"github.com/benbjohnson/immutable"
)

// Trace is a legal execution: States[i+1] is a successor of States[i] and
// States[0] is initial. When Loop >= 0 the last state steps back to
// States[Loop], making the trace the finite prefix of an infinite lasso.
type Trace struct {
	States []Valuation
	IDs    []StateID
	Loop   int
}

// Len is the number of states on the trace.
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	return len(t.States)
}

// path is a partial witness: a state sequence plus the lasso entry, -1 if
// the path is finite.
type path struct {
	ids  *immutable.List[StateID]
	loop int
}

func single(s StateID) path {
	return path{ids: immutable.NewList(s), loop: -1}
}

// then appends rest after p. rest must start at a successor of p's last
// state; its lasso index is shifted accordingly.
func (p path) then(rest path) path {
	out := p.ids
	itr := rest.ids.Iterator()
	for !itr.Done() {
		_, s := itr.Next()
		out = out.Append(s)
	}
	loop := -1
	if rest.loop >= 0 {
		loop = rest.loop + p.ids.Len()
	}
	return path{ids: out, loop: loop}
}

// follow walks via from s until stop holds, returning the states visited
// including both ends.
func follow(s StateID, via []StateID, stop func(StateID) bool) path {
	b := immutable.NewListBuilder[StateID]()
	for {
		b.Append(s)
		if stop(s) || via[s] == noState {
			break
		}
		s = via[s]
	}
	return path{ids: b.List(), loop: -1}
}

// lasso walks via from s until a state repeats.
func lasso(s StateID, via []StateID) path {
	b := immutable.NewListBuilder[StateID]()
	seen := make(map[StateID]int)
	for {
		if at, ok := seen[s]; ok {
			return path{ids: b.List(), loop: at}
		}
		seen[s] = len(seen)
		b.Append(s)
		s = via[s]
	}
}

// drop removes the first state of p; used when splicing a segment that
// starts at the state the prefix already ends with.
func (p path) drop() path {
	if p.ids.Len() <= 1 {
		return path{ids: immutable.NewList[StateID](), loop: -1}
	}
	loop := p.loop
	if loop >= 0 {
		loop--
	}
	return path{ids: p.ids.Slice(1, p.ids.Len()), loop: loop}
}

// joinAt extends prefix, whose last state is also the first of rest.
func (p path) joinAt(rest path) path {
	if rest.loop == 0 {
		// the loop returns to the shared state, which stays in prefix
		d := rest.drop()
		out := p.then(d)
		out.loop = p.ids.Len() - 1
		return out
	}
	return p.then(rest.drop())
}

// witnesser explains why a labeling does or does not hold at a state.
type witnesser struct {
	lb *labeler
}

// explain returns a path starting at s that shows l is want at s. Paths
// for universal claims that hold, and for state predicates, are just s.
func (w *witnesser) explain(l *labeling, s StateID, want bool) path {
	g := w.lb.g
	if l.sat[s] != want {
		return single(s)
	}
	switch l.n.op {
	case opNot:
		return w.explain(l.kids[0], s, !want)
	case opAnd, opOr:
		for _, k := range l.kids {
			if k.sat[s] == want && k.n.nested() {
				return w.explain(k, s, want)
			}
		}
	case opImplies:
		a, b := l.kids[0], l.kids[1]
		if want && !a.sat[s] {
			return w.explain(a, s, false)
		}
		return w.explain(b, s, want)
	case opEX:
		if want {
			return single(s).then(w.explain(l.kids[0], l.via[s], true))
		}
		return single(s).then(w.explain(l.kids[0], g.succ[s][0], false))
	case opAX:
		if !want {
			return single(s).then(w.explain(l.kids[0], l.via[s], false))
		}
	case opEF, opEU:
		if want {
			goal := l.kids[len(l.kids)-1]
			p := follow(s, l.via, func(t StateID) bool { return goal.sat[t] })
			last := p.ids.Get(p.ids.Len() - 1)
			return p.joinAt(w.explain(goal, last, true))
		}
	case opAG:
		if !want {
			f := l.kids[0]
			p := follow(s, l.dual.via, func(t StateID) bool { return !f.sat[t] })
			last := p.ids.Get(p.ids.Len() - 1)
			return p.joinAt(w.explain(f, last, false))
		}
	case opEG:
		if want {
			return lasso(s, l.via)
		}
	case opAF:
		if !want {
			return lasso(s, l.dual.via)
		}
	case opAU:
		if !want {
			return w.explainAU(l, s)
		}
	}
	return single(s)
}

// explainAU refutes A[p U q] at s: either a path of !q states reaches a
// state with neither p nor q, or !q holds forever along a lasso.
func (w *witnesser) explainAU(l *labeling, s StateID) path {
	p, q := l.kids[0].sat, l.kids[1].sat
	notQ := not(q)
	stuck := make([]bool, len(p))
	for i := range stuck {
		stuck[i] = !p[i] && !q[i]
	}
	sat, via := w.lb.eu(notQ, stuck)
	if sat[s] {
		return follow(s, via, func(t StateID) bool { return stuck[t] })
	}
	_, gvia := w.lb.eg(notQ)
	return lasso(s, gvia)
}

// trace renders a path as a Trace.
func (g *Graph) trace(p path) *Trace {
	t := &Trace{Loop: p.loop}
	itr := p.ids.Iterator()
	for !itr.Done() {
		_, id := itr.Next()
		t.IDs = append(t.IDs, id)
		t.States = append(t.States, g.Valuation(id))
	}
	return t
}

// Valid reports whether t is a legal execution of g: it starts at an
// initial state, each step is an edge, and the lasso edge exists.
func (g *Graph) Valid(t *Trace) bool {
	if t.Len() == 0 {
		return false
	}
	start := false
	for _, id := range g.init {
		if id == t.IDs[0] {
			start = true
			break
		}
	}
	if !start {
		return false
	}
	for i := 1; i < len(t.IDs); i++ {
		if !g.IsEdge(t.IDs[i-1], t.IDs[i]) {
			return false
		}
	}
	if t.Loop >= 0 {
		if t.Loop >= len(t.IDs) || !g.IsEdge(t.IDs[len(t.IDs)-1], t.IDs[t.Loop]) {
			return false
		}
	}
	return true
}
