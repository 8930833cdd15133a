package kripke

// labeling is the per-state truth of one subformula over a Graph. via
// records, for states labeled by an existential fixpoint, the successor
// that justified the label; following it forward rebuilds a witness.
type labeling struct {
	n    *node
	sat  []bool
	via  []StateID
	kids []*labeling
	// dual is the existential labeling a universal operator was derived
	// from: EF !f for AG f, EG !f for AF f.
	dual *labeling
}

// labeler computes labelings bottom up over one graph.
type labeler struct {
	g      *Graph
	rounds int
}

func newVia(n int) []StateID {
	via := make([]StateID, n)
	for i := range via {
		via[i] = noState
	}
	return via
}

func not(in []bool) []bool {
	out := make([]bool, len(in))
	for i, b := range in {
		out[i] = !b
	}
	return out
}

func (lb *labeler) label(n *node) *labeling {
	g := lb.g
	size := g.Len()
	l := &labeling{n: n}
	for _, k := range n.kids {
		l.kids = append(l.kids, lb.label(k))
	}
	switch n.op {
	case opTrue, opFalse, opEq, opIn, opSame:
		l.sat = make([]bool, size)
		for s := 0; s < size; s++ {
			l.sat[s] = n.eval(g.pool.Vec(StateID(s)))
		}
	case opNot:
		l.sat = not(l.kids[0].sat)
	case opAnd, opOr, opImplies:
		a, b := l.kids[0].sat, l.kids[1].sat
		l.sat = make([]bool, size)
		for s := range l.sat {
			switch n.op {
			case opAnd:
				l.sat[s] = a[s] && b[s]
			case opOr:
				l.sat[s] = a[s] || b[s]
			default:
				l.sat[s] = !a[s] || b[s]
			}
		}
	case opEX:
		l.sat, l.via = lb.ex(l.kids[0].sat)
	case opAX:
		// AX f = !EX !f; via points at a failing successor.
		notEX, via := lb.ex(not(l.kids[0].sat))
		l.sat, l.via = not(notEX), via
	case opEF:
		all := make([]bool, size)
		for i := range all {
			all[i] = true
		}
		l.sat, l.via = lb.eu(all, l.kids[0].sat)
	case opEU:
		l.sat, l.via = lb.eu(l.kids[0].sat, l.kids[1].sat)
	case opAG:
		all := make([]bool, size)
		for i := range all {
			all[i] = true
		}
		d := &labeling{n: n}
		d.sat, d.via = lb.eu(all, not(l.kids[0].sat))
		l.dual = d
		l.sat = not(d.sat)
	case opEG:
		l.sat, l.via = lb.eg(l.kids[0].sat)
	case opAF:
		d := &labeling{n: n}
		d.sat, d.via = lb.eg(not(l.kids[0].sat))
		l.dual = d
		l.sat = not(d.sat)
	case opAU:
		l.sat = lb.au(l.kids[0].sat, l.kids[1].sat)
	}
	return l
}

// ex labels states with some successor in f.
func (lb *labeler) ex(f []bool) ([]bool, []StateID) {
	g := lb.g
	sat := make([]bool, g.Len())
	via := newVia(g.Len())
	for s := range sat {
		for _, t := range g.succ[s] {
			if f[t] {
				sat[s], via[s] = true, t
				break
			}
		}
	}
	lb.rounds++
	return sat, via
}

// eu computes the least fixpoint E[l U r] by backward breadth-first growth
// from the r states, one predecessor layer per round. Each newly labeled
// state records the successor that pulled it in, so via chains are
// shortest paths to r.
func (lb *labeler) eu(l, r []bool) ([]bool, []StateID) {
	g := lb.g
	sat := make([]bool, g.Len())
	via := newVia(g.Len())
	var layer []StateID
	for s, ok := range r {
		if ok {
			sat[s] = true
			layer = append(layer, StateID(s))
		}
	}
	for len(layer) > 0 {
		lb.rounds++
		var next []StateID
		for _, t := range layer {
			for _, p := range g.pred[t] {
				if !sat[p] && l[p] {
					sat[p], via[p] = true, t
					next = append(next, p)
				}
			}
		}
		layer = next
	}
	return sat, via
}

// eg computes the greatest fixpoint EG f: start from f and repeatedly drop
// states none of whose successors remain. Survivors point at a surviving
// successor.
func (lb *labeler) eg(f []bool) ([]bool, []StateID) {
	g := lb.g
	sat := append([]bool(nil), f...)
	count := make([]int, g.Len())
	var layer []StateID
	for s := range sat {
		if !sat[s] {
			continue
		}
		for _, t := range g.succ[s] {
			if sat[t] {
				count[s]++
			}
		}
		if count[s] == 0 {
			layer = append(layer, StateID(s))
		}
	}
	for _, s := range layer {
		sat[s] = false
	}
	for len(layer) > 0 {
		lb.rounds++
		var next []StateID
		for _, t := range layer {
			for _, p := range g.pred[t] {
				if !sat[p] {
					continue
				}
				count[p]--
				if count[p] == 0 {
					sat[p] = false
					next = append(next, p)
				}
			}
		}
		layer = next
	}
	via := newVia(g.Len())
	for s := range sat {
		if !sat[s] {
			continue
		}
		for _, t := range g.succ[s] {
			if sat[t] {
				via[s] = t
				break
			}
		}
	}
	return sat, via
}

// au computes the least fixpoint A[l U r]: a state joins once every one of
// its successors has.
func (lb *labeler) au(l, r []bool) []bool {
	g := lb.g
	sat := make([]bool, g.Len())
	pending := make([]int, g.Len())
	var layer []StateID
	for s := range sat {
		if r[s] {
			sat[s] = true
			layer = append(layer, StateID(s))
			continue
		}
		pending[s] = len(g.succ[s])
	}
	for len(layer) > 0 {
		lb.rounds++
		var next []StateID
		for _, t := range layer {
			for _, p := range g.pred[t] {
				if sat[p] || !l[p] {
					continue
				}
				pending[p]--
				if pending[p] == 0 {
					sat[p] = true
					next = append(next, p)
				}
			}
		}
		layer = next
	}
	return sat
}

// Label returns the set of reachable states satisfying f, indexed by
// StateID.
func (g *Graph) Label(f Formula) ([]bool, error) {
	n, err := compileFormula(g.sys.reg, f)
	if err != nil {
		return nil, err
	}
	lb := &labeler{g: g}
	return lb.label(n).sat, nil
}
