package kripke

import (
	"time"
)

// Verdict is the outcome of checking one formula.
type Verdict int

const (
	Holds Verdict = iota
	Violated
)

func (v Verdict) String() string {
	if v == Holds {
		return "Holds"
	}
	return "Violated"
}

// Result packages a verdict with its evidence. Trace is a counterexample
// when the verdict is Violated, a witness when an existential formula
// holds, and nil otherwise.
type Result struct {
	Verdict Verdict
	Formula Formula
	Trace   *Trace
	Stats   Stats
}

// Check explores sys and decides f. f is bound to the model before any
// state is generated, so a malformed formula costs nothing.
func Check(sys *System, f Formula, opts Options) (*Result, error) {
	if err := sys.Validate(f); err != nil {
		return nil, err
	}
	start := time.Now()
	g, err := Explore(sys, opts)
	if err != nil {
		return nil, err
	}
	explored := time.Since(start)
	res, err := g.Check(f)
	if err != nil {
		return nil, err
	}
	res.Stats.Explore = explored
	return res, nil
}

// Check decides f over an already explored graph. f holds when it holds
// in every initial state.
func (g *Graph) Check(f Formula) (*Result, error) {
	n, err := compileFormula(g.sys.reg, f)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	lb := &labeler{g: g}
	l := lb.label(n)
	res := &Result{
		Verdict: Holds,
		Formula: f,
		Stats:   g.stats(),
	}
	w := &witnesser{lb: lb}
	for _, s := range g.init {
		if !l.sat[s] {
			res.Verdict = Violated
			res.Trace = g.trace(w.explain(l, s, false))
			break
		}
	}
	if res.Verdict == Holds && IsExistential(f) {
		res.Trace = g.trace(w.explain(l, g.init[0], true))
	}
	res.Stats.Rounds = lb.rounds
	res.Stats.Label = time.Since(start)
	return res, nil
}

// CheckAll decides every formula over one exploration of sys.
func CheckAll(sys *System, fs []Formula, opts Options) ([]*Result, error) {
	for _, f := range fs {
		if err := sys.Validate(f); err != nil {
			return nil, err
		}
	}
	start := time.Now()
	g, err := Explore(sys, opts)
	if err != nil {
		return nil, err
	}
	explored := time.Since(start)
	out := make([]*Result, 0, len(fs))
	for _, f := range fs {
		res, err := g.Check(f)
		if err != nil {
			return nil, err
		}
		res.Stats.Explore = explored
		out = append(out, res)
	}
	return out, nil
}
