package kripke

import (
	"bytes"
	"sort"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// initEncoder translates a compiled state predicate into a circuit over
// one-hot value literals: lits[slot][i] is true iff the variable at slot
// has value index i.
type initEncoder struct {
	c    *logic.C
	lits [][]z.Lit
}

func newInitEncoder(reg *Registry) *initEncoder {
	e := &initEncoder{
		c:    logic.NewC(),
		lits: make([][]z.Lit, reg.Len()),
	}
	for slot := range e.lits {
		n := len(reg.Var(slot).Values)
		e.lits[slot] = make([]z.Lit, n)
		for i := range e.lits[slot] {
			e.lits[slot][i] = e.c.Lit()
		}
	}
	return e
}

func (e *initEncoder) encode(n *node) z.Lit {
	switch n.op {
	case opTrue:
		return e.c.T
	case opFalse:
		return e.c.F
	case opEq:
		return e.lits[n.slot][n.val]
	case opIn:
		var ms []z.Lit
		for i, ok := range n.set {
			if ok {
				ms = append(ms, e.lits[n.slot][i])
			}
		}
		if len(ms) == 0 {
			return e.c.F
		}
		return e.c.Ors(ms...)
	case opSame:
		ms := make([]z.Lit, len(e.lits[n.slot]))
		for i := range ms {
			ms[i] = e.c.And(e.lits[n.slot][i], e.lits[n.slot2][i])
		}
		return e.c.Ors(ms...)
	case opNot:
		return e.encode(n.kids[0]).Not()
	case opAnd:
		return e.c.And(e.encode(n.kids[0]), e.encode(n.kids[1]))
	case opOr:
		return e.c.Or(e.encode(n.kids[0]), e.encode(n.kids[1]))
	case opImplies:
		return e.c.Or(e.encode(n.kids[0]).Not(), e.encode(n.kids[1]))
	}
	panic("kripke: temporal operator in initial predicate")
}

// exactlyOne constrains every variable to hold a single value.
func (e *initEncoder) exactlyOne(g *gini.Gini) {
	for _, ms := range e.lits {
		for _, m := range ms {
			g.Add(m)
		}
		g.Add(0)
		for i := 0; i < len(ms); i++ {
			for j := i + 1; j < len(ms); j++ {
				g.Add(ms[i].Not())
				g.Add(ms[j].Not())
				g.Add(0)
			}
		}
	}
}

// initialStates enumerates every state satisfying the initial predicate,
// sorted by value vector. More than limit states is a StateSpaceOverflow.
func (s *System) initialStates(limit int) ([][]uint8, error) {
	if s.Width() == 0 {
		if s.init.eval(nil) {
			return [][]uint8{{}}, nil
		}
		return nil, nil
	}
	e := newInitEncoder(s.reg)
	root := e.encode(s.init)
	g := gini.New()
	e.c.ToCnf(g)
	e.exactlyOne(g)

	var out [][]uint8
	for {
		g.Assume(root)
		if g.Solve() != 1 {
			break
		}
		vec := make([]uint8, s.Width())
		for slot, ms := range e.lits {
			for i, m := range ms {
				if g.Value(m) {
					vec[slot] = uint8(i)
					break
				}
			}
		}
		out = append(out, vec)
		if limit > 0 && len(out) > limit {
			return nil, &Error{
				Kind:  StateSpaceOverflow,
				Count: len(out),
				Msg:   "initial predicate admits more states than the cap",
			}
		}
		// block this model so the next solve finds a different state
		for slot, ms := range e.lits {
			g.Add(ms[vec[slot]].Not())
		}
		g.Add(0)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i], out[j]) < 0 })
	return out, nil
}

// InitialStates returns every state admitted by the initial predicate.
func (s *System) InitialStates() ([]Valuation, error) {
	vecs, err := s.initialStates(0)
	if err != nil {
		return nil, err
	}
	out := make([]Valuation, len(vecs))
	for i, v := range vecs {
		out[i] = Valuation{reg: s.reg, vec: v}
	}
	return out, nil
}
