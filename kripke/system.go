package kripke

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Term is one element of a rule's next-value set: a literal domain value,
// or the current value of the variable named by Ref.
type Term struct {
	Value string
	Ref   string
}

// Lit is the literal next value v.
func Lit(v string) Term { return Term{Value: v} }

// Ref copies the current value of the named variable.
func Ref(name string) Term { return Term{Ref: name} }

func (t Term) String() string {
	if t.Ref != "" {
		return t.Ref
	}
	return t.Value
}

// Rule is one guarded case: when Guard holds in the current state the
// variable's next value is any element of Next.
type Rule struct {
	Guard Formula
	Next  []Term
}

// Assign drives one variable with a prioritized rule list. The first rule
// whose guard holds decides; later rules are not consulted.
type Assign struct {
	Var   string
	Rules []Rule
}

// Module owns the variables it assigns. It may read every variable.
type Module struct {
	Name    string
	Assigns []Assign
}

// Model is the structural description the engine consumes.
type Model struct {
	Name    string
	Vars    []Variable
	Modules []Module
	// Init is the initial predicate; nil admits every state.
	Init Formula
}

// nextTerm is a compiled Term: the literal index lit, or the value at slot
// ref when ref >= 0.
type nextTerm struct {
	lit uint8
	ref int
}

type compiledRule struct {
	guard *node
	terms []nextTerm
}

type slotRules struct {
	module string
	rules  []compiledRule
}

// System is a validated Model: the transition relation evaluator plus the
// compiled initial predicate.
type System struct {
	name  string
	model *Model
	reg   *Registry
	// slots[i] is nil for a variable no module assigns; such a variable is
	// free and may take any value at each step.
	slots []*slotRules
	init  *node
}

// NewSystem validates m and compiles its guards and initial predicate.
// Every structural defect is reported together.
func NewSystem(m *Model) (*System, error) {
	reg, err := NewRegistry(m.Vars)
	if err != nil {
		return nil, err
	}
	s := &System{
		name:  m.Name,
		model: m,
		reg:   reg,
		slots: make([]*slotRules, reg.Len()),
	}
	owner := make(map[string]string)
	for _, mod := range m.Modules {
		for _, a := range mod.Assigns {
			slot, ok := reg.Slot(a.Var)
			if !ok {
				err = multierr.Append(err, modelErr(mod.Name, a.Var, "assigns an undeclared variable"))
				continue
			}
			if prev, dup := owner[a.Var]; dup {
				err = multierr.Append(err, modelErr(mod.Name, a.Var, "already assigned by module %s", prev))
				continue
			}
			owner[a.Var] = mod.Name
			sr, rerr := s.compileAssign(reg, mod.Name, slot, a)
			if rerr != nil {
				err = multierr.Append(err, rerr)
				continue
			}
			s.slots[slot] = sr
		}
	}
	init := m.Init
	if init == nil {
		init = True{}
	}
	n, ierr := compilePredicate(reg, "", init)
	if ierr != nil {
		err = multierr.Append(err, ierr)
	}
	if err != nil {
		return nil, err
	}
	s.init = n
	return s, nil
}

func (s *System) compileAssign(reg *Registry, module string, slot int, a Assign) (*slotRules, error) {
	v := reg.Var(slot)
	if len(a.Rules) == 0 {
		return nil, modelErr(module, a.Var, "no rules")
	}
	sr := &slotRules{module: module}
	var err error
	for i, r := range a.Rules {
		guard := r.Guard
		if guard == nil {
			guard = True{}
		}
		g, gerr := compilePredicate(reg, module, guard)
		if gerr != nil {
			err = multierr.Append(err, gerr)
			continue
		}
		if len(r.Next) == 0 {
			err = multierr.Append(err, modelErr(module, a.Var, "rule %d has an empty next-value set", i+1))
			continue
		}
		cr := compiledRule{guard: g}
		for _, t := range r.Next {
			if t.Ref != "" {
				rs, ok := reg.Slot(t.Ref)
				if !ok {
					err = multierr.Append(err, modelErr(module, a.Var, "rule %d refers to undeclared variable %q", i+1, t.Ref))
					continue
				}
				if !reg.Var(rs).sameDomain(v) {
					err = multierr.Append(err, modelErr(module, a.Var, "rule %d copies %s, which has a different domain", i+1, t.Ref))
					continue
				}
				cr.terms = append(cr.terms, nextTerm{ref: rs})
				continue
			}
			x, ok := reg.Value(slot, t.Value)
			if !ok {
				err = multierr.Append(err, modelErr(module, a.Var, "rule %d: value %q outside the domain", i+1, t.Value))
				continue
			}
			cr.terms = append(cr.terms, nextTerm{lit: x, ref: -1})
		}
		sr.rules = append(sr.rules, cr)
	}
	if err != nil {
		return nil, err
	}
	return sr, nil
}

// Name is the model name.
func (s *System) Name() string { return s.name }

// Model returns the description s was built from.
func (s *System) Model() *Model { return s.model }

// Registry returns the variable registry.
func (s *System) Registry() *Registry { return s.reg }

// Width is the number of state variables.
func (s *System) Width() int { return s.reg.Len() }

// Owner returns the module assigning the named variable, or "" for a free
// variable.
func (s *System) Owner(name string) string {
	slot, ok := s.reg.Slot(name)
	if !ok || s.slots[slot] == nil {
		return ""
	}
	return s.slots[slot].module
}

// Validate binds f against the registry without evaluating it, surfacing
// MalformedFormula before any exploration.
func (s *System) Validate(f Formula) error {
	_, err := compileFormula(s.reg, f)
	return err
}

// expander holds per-goroutine scratch space for successor enumeration.
type expander struct {
	sys     *System
	choices [][]uint8
	idx     []int
	next    []uint8
}

func (s *System) newExpander() *expander {
	w := s.Width()
	e := &expander{
		sys:     s,
		choices: make([][]uint8, w),
		idx:     make([]int, w),
		next:    make([]uint8, w),
	}
	return e
}

// choose computes, per slot, the set of legal next values in vec.
func (e *expander) choose(vec []uint8) error {
	s := e.sys
	for slot := range e.choices {
		ch := e.choices[slot][:0]
		sr := s.slots[slot]
		if sr == nil {
			for x := range s.reg.Var(slot).Values {
				ch = append(ch, uint8(x))
			}
			e.choices[slot] = ch
			continue
		}
		matched := false
		for _, r := range sr.rules {
			if !r.guard.eval(vec) {
				continue
			}
			matched = true
			for _, t := range r.terms {
				if t.ref >= 0 {
					ch = appendUnique(ch, vec[t.ref])
				} else {
					ch = appendUnique(ch, t.lit)
				}
			}
			break
		}
		e.choices[slot] = ch
		if !matched {
			return &Error{
				Kind:     IncompleteTransitionRelation,
				Module:   sr.module,
				Variable: s.reg.Var(slot).Name,
				State:    Valuation{reg: s.reg, vec: vec}.String(),
				Msg:      "no guard matched",
			}
		}
	}
	return nil
}

func appendUnique(ch []uint8, x uint8) []uint8 {
	for _, y := range ch {
		if y == x {
			return ch
		}
	}
	return append(ch, x)
}

// expand calls emit once per successor of vec: the cross product of every
// slot's choice set, last slot varying fastest. The slice passed to emit is
// reused between calls.
func (e *expander) expand(vec []uint8, emit func(next []uint8) error) error {
	if err := e.choose(vec); err != nil {
		return err
	}
	for i := range e.idx {
		e.idx[i] = 0
		e.next[i] = e.choices[i][0]
	}
	for {
		if err := emit(e.next); err != nil {
			return err
		}
		i := len(e.idx) - 1
		for ; i >= 0; i-- {
			e.idx[i]++
			if e.idx[i] < len(e.choices[i]) {
				e.next[i] = e.choices[i][e.idx[i]]
				break
			}
			e.idx[i] = 0
			e.next[i] = e.choices[i][0]
		}
		if i < 0 {
			return nil
		}
	}
}

// Successors returns every successor of the state given as a valuation.
func (s *System) Successors(v Valuation) ([]Valuation, error) {
	var out []Valuation
	err := s.newExpander().expand(v.vec, func(next []uint8) error {
		out = append(out, newValuation(s.reg, next))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// State builds a valuation from a name-to-value map; every variable must be
// given.
func (s *System) State(values map[string]string) (Valuation, error) {
	vec := make([]uint8, s.Width())
	var err error
	for slot := 0; slot < s.Width(); slot++ {
		name := s.reg.Var(slot).Name
		val, ok := values[name]
		if !ok {
			err = multierr.Append(err, fmt.Errorf("no value for %s", name))
			continue
		}
		x, ok := s.reg.Value(slot, val)
		if !ok {
			err = multierr.Append(err, fmt.Errorf("value %q outside the domain of %s", val, name))
			continue
		}
		vec[slot] = x
	}
	for name := range values {
		if _, ok := s.reg.Slot(name); !ok {
			err = multierr.Append(err, fmt.Errorf("undeclared variable %s", name))
		}
	}
	if err != nil {
		return Valuation{}, err
	}
	return Valuation{reg: s.reg, vec: vec}, nil
}

// Holds decides a temporal-free predicate on one state.
func (s *System) Holds(f Formula, v Valuation) (bool, error) {
	n, err := compileFormula(s.reg, f)
	if err != nil {
		return false, err
	}
	if IsTemporal(f) {
		return false, &Error{Kind: MalformedFormula, Formula: f.String(), Msg: "temporal operator needs a state graph"}
	}
	return n.eval(v.vec), nil
}

// TransitionTable renders the rule lists as a markdown table in module
// order.
func (s *System) TransitionTable() string {
	var sb strings.Builder
	sb.WriteString("| Module | Variable | # | Guard | Next |\n")
	sb.WriteString("|--------|----------|---|-------|------|\n")
	for _, mod := range s.model.Modules {
		for _, a := range mod.Assigns {
			for i, r := range a.Rules {
				guard := r.Guard
				if guard == nil {
					guard = True{}
				}
				next := make([]string, len(r.Next))
				for j, t := range r.Next {
					next[j] = t.String()
				}
				sb.WriteString(fmt.Sprintf("| %s | %s | %d | `%s` | {%s} |\n",
					mod.Name, a.Var, i+1, guard, strings.Join(next, ", ")))
			}
		}
	}
	return sb.String()
}
